package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/exp/slog"
)

type RoundState string

const (
	RoundCreated   RoundState = "created"
	RoundCommitted RoundState = "committed"
	RoundRevealed  RoundState = "revealed"
	RoundExpired   RoundState = "expired"
)

// Round is one oracle interaction. The handle is an opaque on-chain account
// reference; state transitions only on confirmed writes.
type Round struct {
	Handle solana.PublicKey
	Queue  solana.PublicKey
	State  RoundState
}

// ErrRevealPending is returned by the oracle client while the committed
// value has not yet been produced by the queue.
var ErrRevealPending = errors.New("reveal not yet constructible")

// OracleUnavailableError means the reveal never became constructible within
// the retry budget. The whole flow is safe to retry later.
type OracleUnavailableError struct {
	Attempts int
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("oracle unavailable after %d attempts", e.Attempts)
}

// Client is the oracle network's surface. Its internal consensus is opaque;
// all we get is create/commit/reveal instruction building.
type Client interface {
	CreateRound(ctx context.Context, queue solana.PublicKey) (solana.PublicKey, solana.Instruction, error)
	CommitRound(ctx context.Context, handle solana.PublicKey, queue solana.PublicKey) (solana.Instruction, error)
	BuildRevealInstruction(ctx context.Context, handle solana.PublicKey) (solana.Instruction, error)
}

type PollPolicy struct {
	Interval       time.Duration
	MaxAttempts    int
	AttemptTimeout time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:       3 * time.Second,
		MaxAttempts:    16,
		AttemptTimeout: 10 * time.Second,
	}
}

type Coordinator struct {
	log       *slog.Logger
	oracle    Client
	submitter chain.Submitter
	policy    PollPolicy
}

func NewCoordinator(
	log *slog.Logger,
	oracleClient Client,
	submitter chain.Submitter,
	policy PollPolicy) *Coordinator {
	return &Coordinator{
		log:       log,
		oracle:    oracleClient,
		submitter: submitter,
		policy:    policy,
	}
}

// BeginRound submits the handle-creation transaction and waits for its
// confirmation before the round exists at all.
func (c *Coordinator) BeginRound(ctx context.Context, queue solana.PublicKey) (*Round, error) {
	const op = "oracle.BeginRound"

	handle, instr, err := c.oracle.CreateRound(ctx, queue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = c.submitter.Submit(ctx, []solana.Instruction{instr}, chain.TxOpts{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("randomness round created", sl.Pubkey("handle", handle))

	return &Round{
		Handle: handle,
		Queue:  queue,
		State:  RoundCreated,
	}, nil
}

// Commit binds the round to a future oracle output.
func (c *Coordinator) Commit(ctx context.Context, round *Round) error {
	const op = "oracle.Commit"

	instr, err := c.oracle.CommitRound(ctx, round.Handle, round.Queue)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = c.submitter.Submit(ctx, []solana.Instruction{instr}, chain.TxOpts{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	round.State = RoundCommitted

	c.log.Info("randomness round committed", sl.Pubkey("handle", round.Handle))

	return nil
}

// AwaitReveal polls until the reveal instruction is constructible, at the
// configured interval, up to the configured attempt budget. Each attempt
// races its own timeout because the oracle client can hang independently of
// round state; that timeout cancels only the one attempt.
func (c *Coordinator) AwaitReveal(ctx context.Context, round *Round) (solana.Instruction, error) {
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		instr, err := c.buildRevealAttempt(ctx, round.Handle)
		if err == nil {
			round.State = RoundRevealed

			c.log.Debug("reveal constructible",
				sl.Pubkey("handle", round.Handle),
				slog.Int("attempt", attempt))

			return instr, nil
		}

		c.log.Debug("reveal not ready",
			sl.Pubkey("handle", round.Handle),
			slog.Int("attempt", attempt),
			sl.Err(err))

		if attempt == c.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.policy.Interval):
		}
	}

	round.State = RoundExpired

	return nil, &OracleUnavailableError{Attempts: c.policy.MaxAttempts}
}

func (c *Coordinator) buildRevealAttempt(ctx context.Context, handle solana.PublicKey) (solana.Instruction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()

	return c.oracle.BuildRevealInstruction(ctx, handle)
}
