package attestation

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// On-chain GameRecord layout after the 8-byte discriminator header:
// player[32] | game_type u8 | amount u64 LE | choice u8 | result u8 |
// payout u64 LE | server_seed[32] | client_seed[32] | timestamp i64 LE |
// slot u64 LE | bump u8.
// Any field reorder in the ledger program is a breaking change here.
const (
	recordHeaderLen = 8
	recordDataLen   = 32 + 1 + 8 + 1 + 1 + 8 + 32 + 32 + 8 + 8 + 1
)

// ParseRawRecord decodes the fixed-offset settled game record as the ledger
// lays it out.
func ParseRawRecord(data []byte) (*model.GameRequest, error) {
	const op = "attestation.ParseRawRecord"

	if len(data) < recordHeaderLen+recordDataLen {
		return nil, fmt.Errorf("%s: record truncated: got %d bytes, want %d", op, len(data), recordHeaderLen+recordDataLen)
	}

	dec := bin.NewBinDecoder(data[recordHeaderLen:])

	playerBytes, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gtIndex, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gameType, err := config.GameTypeFromWireIndex(gtIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	amount, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choiceByte, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payout, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverSeed, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clientSeed, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	timestamp, err := dec.ReadInt64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slot, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	settledAt := time.Unix(timestamp, 0).UTC()

	return &model.GameRequest{
		Player:      solana.PublicKeyFromBytes(playerBytes),
		GameType:    gameType,
		BetAmount:   amount,
		Choice:      choiceFromWire(gameType, choiceByte),
		Status:      model.StatusSettled,
		Result:      result,
		Won:         payout > 0,
		Payout:      payout,
		RequestSlot: slot,
		ServerSeed:  hex.EncodeToString(serverSeed),
		ClientSeed:  hex.EncodeToString(clientSeed),
		SettledAt:   &settledAt,
	}, nil
}

// choiceFromWire rebuilds the typed choice from the record's single choice
// byte. The ledger stores the high byte of multiplier-style choices, so the
// rebuilt multiplier is truncated the same way the record is.
func choiceFromWire(gt config.GameType, choice uint8) config.Choice {
	switch gt {
	case config.CoinFlip:
		side := choice

		return config.Choice{Side: &side}
	case config.DiceRoll:
		target := choice

		return config.Choice{Target: &target}
	case config.Limbo, config.Crash:
		multiplier := uint16(choice) << 8

		return config.Choice{TargetMultiplier: &multiplier}
	}

	return config.Choice{}
}
