package config

import "fmt"

type GameType string

const (
	CoinFlip     GameType = "coin_flip"
	DiceRoll     GameType = "dice_roll"
	Limbo        GameType = "limbo"
	Crash        GameType = "crash"
	PvPChallenge GameType = "pvp_challenge"
)

// Choice carries the player's pick. Which fields are meaningful depends on
// the game type; ValidateChoice enforces the ledger program's own ranges so
// a bad pick never costs a transaction fee.
type Choice struct {
	Side             *uint8  `json:"side,omitempty"`
	Target           *uint8  `json:"target,omitempty"`
	TargetMultiplier *uint16 `json:"target_multiplier,omitempty"`
	Opponent         string  `json:"opponent,omitempty"`
}

// GameOps is one variant of the game dispatch table: the ledger request and
// settle instruction names paired with the wire index of the game type.
type GameOps struct {
	RequestMethod string
	SettleMethod  string
	WireIndex     uint8
}

func (gt GameType) Ops() (GameOps, error) {
	switch gt {
	case CoinFlip:
		return GameOps{RequestMethod: "request_coin_flip", SettleMethod: "settle_coin_flip", WireIndex: 0}, nil
	case DiceRoll:
		return GameOps{RequestMethod: "request_dice_roll", SettleMethod: "settle_dice_roll", WireIndex: 1}, nil
	case Limbo:
		return GameOps{RequestMethod: "request_limbo", SettleMethod: "settle_limbo", WireIndex: 2}, nil
	case Crash:
		return GameOps{RequestMethod: "request_crash", SettleMethod: "settle_crash", WireIndex: 3}, nil
	case PvPChallenge:
		return GameOps{RequestMethod: "request_pvp_challenge", SettleMethod: "settle_pvp_challenge", WireIndex: 4}, nil
	}

	return GameOps{}, fmt.Errorf("unknown game type: %q", gt)
}

func GameTypeFromWireIndex(idx uint8) (GameType, error) {
	switch idx {
	case 0:
		return CoinFlip, nil
	case 1:
		return DiceRoll, nil
	case 2:
		return Limbo, nil
	case 3:
		return Crash, nil
	case 4:
		return PvPChallenge, nil
	}

	return "", fmt.Errorf("unknown game type index: %d", idx)
}

func ValidateChoice(gt GameType, choice Choice) error {
	switch gt {
	case CoinFlip:
		if choice.Side == nil {
			return fmt.Errorf("coin flip requires a side")
		}
		if *choice.Side > 1 {
			return fmt.Errorf("coin flip side must be 0 or 1")
		}
	case DiceRoll:
		if choice.Target == nil {
			return fmt.Errorf("dice roll requires a target")
		}
		if *choice.Target < 1 || *choice.Target > 5 {
			return fmt.Errorf("dice roll target must be between 1 and 5")
		}
	case Limbo, Crash:
		if choice.TargetMultiplier == nil {
			return fmt.Errorf("%s requires a target multiplier", gt)
		}
		if *choice.TargetMultiplier < 101 || *choice.TargetMultiplier > 10000 {
			return fmt.Errorf("target multiplier must be between 101 and 10000 basis points")
		}
	case PvPChallenge:
		if choice.Opponent == "" {
			return fmt.Errorf("pvp challenge requires an opponent")
		}
	default:
		return fmt.Errorf("unknown game type: %q", gt)
	}

	return nil
}
