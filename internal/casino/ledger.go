package casino

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/attestation"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/exp/slog"
)

// Ledger is the on-chain casino program's surface: build a wager request,
// build the matching settle, read records back. Its accounting internals
// stay on the other side of this interface.
type Ledger interface {
	NextRequestIndex(ctx context.Context) (uint64, error)
	RequestInstruction(player solana.PublicKey, gt config.GameType, amount uint64, choice config.Choice, clientSeed [32]byte, handle solana.PublicKey, index uint64) (solana.Instruction, solana.PublicKey, error)
	SettleInstruction(player solana.PublicKey, gt config.GameType, record solana.PublicKey, handle solana.PublicKey) (solana.Instruction, error)
	FetchGameRequest(ctx context.Context, record solana.PublicKey) (*model.GameRequest, error)
	HouseStats(ctx context.Context) (*model.HouseStats, error)
}

// House account layout after the 8-byte discriminator header:
// authority[32] | pool u64 | house_edge_bps u16 | min_bet u64 |
// max_bet_percent u8 | total_games u64 | total_volume u64 |
// total_payout u64 | bump u8.
const (
	houseHeaderLen = 8
	houseDataLen   = 32 + 8 + 2 + 8 + 1 + 8 + 8 + 8 + 1
)

// ProgramLedger builds instructions against the agent-casino program. PDAs
// are derived once for the fixed accounts and per call for indexed ones.
type ProgramLedger struct {
	log       *slog.Logger
	reader    chain.Reader
	programID solana.PublicKey
	house     solana.PublicKey
	vault     solana.PublicKey
}

func NewProgramLedger(log *slog.Logger, reader chain.Reader, programID solana.PublicKey) (*ProgramLedger, error) {
	const op = "casino.NewProgramLedger"

	house, _, err := solana.FindProgramAddress([][]byte{[]byte("house")}, programID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vault, _, err := solana.FindProgramAddress([][]byte{[]byte("vault"), house.Bytes()}, programID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ProgramLedger{
		log:       log,
		reader:    reader,
		programID: programID,
		house:     house,
		vault:     vault,
	}, nil
}

// NextRequestIndex reads the house account fresh on every call. The index
// must never be cached: two concurrent flows would otherwise race on a
// stale value.
func (l *ProgramLedger) NextRequestIndex(ctx context.Context) (uint64, error) {
	const op = "casino.ledger.NextRequestIndex"

	data, err := l.reader.AccountData(ctx, l.house)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	house, err := parseHouse(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return house.TotalGames, nil
}

func (l *ProgramLedger) RequestInstruction(
	player solana.PublicKey,
	gt config.GameType,
	amount uint64,
	choice config.Choice,
	clientSeed [32]byte,
	handle solana.PublicKey,
	index uint64) (solana.Instruction, solana.PublicKey, error) {
	const op = "casino.ledger.RequestInstruction"

	ops, err := gt.Ops()
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%s: %w", op, err)
	}

	indexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(indexBytes, index)

	record, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("game"), l.house.Bytes(), indexBytes},
		l.programID,
	)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%s: %w", op, err)
	}

	stats, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("agent"), player.Bytes()},
		l.programID,
	)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%s: %w", op, err)
	}

	data := chain.AnchorDiscriminator(ops.RequestMethod)
	data = binary.LittleEndian.AppendUint64(data, amount)

	data, err = appendChoice(data, gt, choice)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%s: %w", op, err)
	}

	data = append(data, clientSeed[:]...)

	instr := solana.NewInstruction(
		l.programID,
		solana.AccountMetaSlice{
			solana.Meta(l.house).WRITE(),
			solana.Meta(l.vault).WRITE(),
			solana.Meta(record).WRITE(),
			solana.Meta(stats).WRITE(),
			solana.Meta(player),
			solana.Meta(handle),
			solana.Meta(solana.SystemProgramID),
		},
		data,
	)

	return instr, record, nil
}

func (l *ProgramLedger) SettleInstruction(
	player solana.PublicKey,
	gt config.GameType,
	record solana.PublicKey,
	handle solana.PublicKey) (solana.Instruction, error) {
	const op = "casino.ledger.SettleInstruction"

	ops, err := gt.Ops()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	instr := solana.NewInstruction(
		l.programID,
		solana.AccountMetaSlice{
			solana.Meta(l.house).WRITE(),
			solana.Meta(l.vault).WRITE(),
			solana.Meta(record).WRITE(),
			solana.Meta(player).WRITE(),
			solana.Meta(handle),
		},
		chain.AnchorDiscriminator(ops.SettleMethod),
	)

	return instr, nil
}

func (l *ProgramLedger) FetchGameRequest(ctx context.Context, record solana.PublicKey) (*model.GameRequest, error) {
	const op = "casino.ledger.FetchGameRequest"

	data, err := l.reader.AccountData(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	game, err := attestation.ParseRawRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return game, nil
}

func (l *ProgramLedger) HouseStats(ctx context.Context) (*model.HouseStats, error) {
	const op = "casino.ledger.HouseStats"

	data, err := l.reader.AccountData(ctx, l.house)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	house, err := parseHouse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.HouseStats{
		Pool:         house.Pool,
		HouseEdgeBps: house.HouseEdgeBps,
		MinBet:       house.MinBet,
		MaxBet:       house.Pool * uint64(house.MaxBetPercent) / 100,
		TotalGames:   house.TotalGames,
		TotalVolume:  house.TotalVolume,
		TotalPayout:  house.TotalPayout,
		HouseProfit:  house.TotalVolume - min(house.TotalPayout, house.TotalVolume),
	}, nil
}

// appendChoice packs the variant-specific wager arguments. The switch is
// exhaustive over the game catalogue.
func appendChoice(data []byte, gt config.GameType, choice config.Choice) ([]byte, error) {
	if err := config.ValidateChoice(gt, choice); err != nil {
		return nil, err
	}

	switch gt {
	case config.CoinFlip:
		return append(data, *choice.Side), nil
	case config.DiceRoll:
		return append(data, *choice.Target), nil
	case config.Limbo, config.Crash:
		return binary.LittleEndian.AppendUint16(data, *choice.TargetMultiplier), nil
	case config.PvPChallenge:
		opponent, err := solana.PublicKeyFromBase58(choice.Opponent)
		if err != nil {
			return nil, fmt.Errorf("bad opponent: %w", err)
		}

		return append(data, opponent.Bytes()...), nil
	}

	return nil, fmt.Errorf("unknown game type: %q", gt)
}

type houseAccount struct {
	Pool          uint64
	HouseEdgeBps  uint16
	MinBet        uint64
	MaxBetPercent uint8
	TotalGames    uint64
	TotalVolume   uint64
	TotalPayout   uint64
}

func parseHouse(data []byte) (*houseAccount, error) {
	if len(data) < houseHeaderLen+houseDataLen {
		return nil, fmt.Errorf("house account truncated: %d bytes", len(data))
	}

	dec := bin.NewBinDecoder(data[houseHeaderLen:])

	if _, err := dec.ReadNBytes(32); err != nil {
		return nil, err
	}

	house := &houseAccount{}

	var err error

	if house.Pool, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}

	if house.HouseEdgeBps, err = dec.ReadUint16(bin.LE); err != nil {
		return nil, err
	}

	if house.MinBet, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}

	if house.MaxBetPercent, err = dec.ReadUint8(); err != nil {
		return nil, err
	}

	if house.TotalGames, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}

	if house.TotalVolume, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}

	if house.TotalPayout, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}

	return house, nil
}
