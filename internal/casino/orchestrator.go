package casino

import (
	"context"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/oracle"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// The combined reveal+settle transaction is latency-sensitive: a reveal
// that waits in the queue too long expires. It ships with an elevated
// compute budget so it lands ahead of ordinary traffic.
const (
	settleComputeUnitLimit = 400_000
	settleComputeUnitPrice = 50_000
)

type Coordinator interface {
	BeginRound(ctx context.Context, queue solana.PublicKey) (*oracle.Round, error)
	Commit(ctx context.Context, round *oracle.Round) error
	AwaitReveal(ctx context.Context, round *oracle.Round) (solana.Instruction, error)
}

type Orchestrator struct {
	log       *slog.Logger
	coord     Coordinator
	ledger    Ledger
	submitter chain.Submitter
	queue     solana.PublicKey
}

func NewOrchestrator(
	log *slog.Logger,
	coord Coordinator,
	ledger Ledger,
	submitter chain.Submitter,
	queue solana.PublicKey) *Orchestrator {
	return &Orchestrator{
		log:       log,
		coord:     coord,
		ledger:    ledger,
		submitter: submitter,
		queue:     queue,
	}
}

// Play drives one full game lifecycle. Steps are strictly sequential, each
// gated on the prior confirmation; any failure before settlement fails the
// whole attempt with no partial settled record.
func (o *Orchestrator) Play(
	ctx context.Context,
	player solana.PublicKey,
	gt config.GameType,
	betAmount uint64,
	choice config.Choice,
	clientSeed [32]byte) (*model.GameRequest, error) {
	const op = "casino.Play"

	if err := config.ValidateChoice(gt, choice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.New()
	createdAt := time.Now().UTC()

	log := o.log.With(
		slog.String("op", op),
		slog.String("game_id", id.String()),
		slog.String("game_type", string(gt)),
	)

	// Step 1: begin and commit a randomness round, each confirmed.
	round, err := o.coord.BeginRound(ctx, o.queue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = o.coord.Commit(ctx, round); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Step 2: submit the wager. The request index is read fresh here, not
	// earlier, so concurrent flows never build against a stale index.
	index, err := o.ledger.NextRequestIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	requestIx, record, err := o.ledger.RequestInstruction(player, gt, betAmount, choice, clientSeed, round.Handle, index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = o.submitter.Submit(ctx, []solana.Instruction{requestIx}, chain.TxOpts{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("wager submitted", sl.Pubkey("record", record), slog.Uint64("request_index", index))

	// Step 3: pre-build the settlement instruction. It is never submitted
	// alone; it rides behind the reveal in one transaction.
	settleIx, err := o.ledger.SettleInstruction(player, gt, record, round.Handle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Step 4: wait out the oracle.
	revealIx, err := o.coord.AwaitReveal(ctx, round)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Step 5: one transaction consumes the reveal and settles, so no
	// observer can act on the revealed value before the payout is fixed.
	if err = o.submitRevealAndSettle(ctx, log, round, revealIx, settleIx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	game, err := o.ledger.FetchGameRequest(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	game.ID = id
	game.Choice = choice
	game.RandomnessHandle = round.Handle
	game.CreatedAt = createdAt

	log.Info("game settled",
		slog.Bool("won", game.Won),
		slog.Uint64("payout", game.Payout))

	return game, nil
}

// submitRevealAndSettle lands the combined transaction, allowing one fresh
// reveal if the first attempt failed because the reveal went stale. A
// rejection the ledger would repeat is terminal immediately.
func (o *Orchestrator) submitRevealAndSettle(
	ctx context.Context,
	log *slog.Logger,
	round *oracle.Round,
	revealIx solana.Instruction,
	settleIx solana.Instruction) error {
	opts := chain.TxOpts{
		ComputeUnitLimit: settleComputeUnitLimit,
		ComputeUnitPrice: settleComputeUnitPrice,
	}

	_, err := o.submitter.Submit(ctx, []solana.Instruction{revealIx, settleIx}, opts)
	if err == nil {
		return nil
	}

	if !revealWentStale(err) {
		return &SettlementTransactionFailedError{Err: err}
	}

	log.Warn("reveal went stale, re-polling", sl.Err(err))

	revealIx, err = o.coord.AwaitReveal(ctx, round)
	if err != nil {
		return err
	}

	if _, err = o.submitter.Submit(ctx, []solana.Instruction{revealIx, settleIx}, opts); err != nil {
		return &SettlementTransactionFailedError{Err: err}
	}

	return nil
}
