package oracle

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/exp/slog"
)

// Round account layout after the 8-byte discriminator header:
// authority[32] | queue[32] | nonce u64 LE | state u8 | reveal_slot u64 LE | value[32].
const (
	roundHeaderLen = 8
	roundDataLen   = 32 + 32 + 8 + 1 + 8 + 32

	roundStateRevealable = 2
)

// RPCClient builds oracle instructions against the randomness program and
// re-reads round state from the chain on every reveal attempt. Nothing is
// trusted across restarts.
type RPCClient struct {
	log       *slog.Logger
	reader    chain.Reader
	programID solana.PublicKey
	authority solana.PublicKey
}

func NewRPCClient(
	log *slog.Logger,
	reader chain.Reader,
	programID solana.PublicKey,
	authority solana.PublicKey) *RPCClient {
	return &RPCClient{
		log:       log,
		reader:    reader,
		programID: programID,
		authority: authority,
	}
}

func (c *RPCClient) CreateRound(_ context.Context, queue solana.PublicKey) (solana.PublicKey, solana.Instruction, error) {
	const op = "oracle.rpcclient.CreateRound"

	nonce := uint64(time.Now().UnixNano())

	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, nonce)

	handle, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("randomness"), c.authority.Bytes(), nonceBytes},
		c.programID,
	)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	data := append(chain.AnchorDiscriminator("create_randomness"), nonceBytes...)

	instr := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.Meta(handle).WRITE(),
			solana.Meta(queue),
			solana.Meta(c.authority).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		data,
	)

	return handle, instr, nil
}

func (c *RPCClient) CommitRound(_ context.Context, handle solana.PublicKey, queue solana.PublicKey) (solana.Instruction, error) {
	instr := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.Meta(handle).WRITE(),
			solana.Meta(queue),
			solana.Meta(c.authority).SIGNER(),
		},
		chain.AnchorDiscriminator("commit_randomness"),
	)

	return instr, nil
}

// BuildRevealInstruction re-reads the round account and only yields the
// reveal once the queue has produced the committed value.
func (c *RPCClient) BuildRevealInstruction(ctx context.Context, handle solana.PublicKey) (solana.Instruction, error) {
	const op = "oracle.rpcclient.BuildRevealInstruction"

	data, err := c.reader.AccountData(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(data) < roundHeaderLen+roundDataLen {
		return nil, fmt.Errorf("%s: round account truncated: %d bytes", op, len(data))
	}

	state := data[roundHeaderLen+32+32+8]
	if state < roundStateRevealable {
		return nil, ErrRevealPending
	}

	queue := solana.PublicKeyFromBytes(data[roundHeaderLen+32 : roundHeaderLen+64])

	instr := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.Meta(handle).WRITE(),
			solana.Meta(queue),
			solana.Meta(c.authority).SIGNER(),
		},
		chain.AnchorDiscriminator("reveal_randomness"),
	)

	return instr, nil
}
