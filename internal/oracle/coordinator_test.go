package oracle

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy(maxAttempts int) PollPolicy {
	return PollPolicy{
		Interval:       time.Millisecond,
		MaxAttempts:    maxAttempts,
		AttemptTimeout: 50 * time.Millisecond,
	}
}

type fakeOracle struct {
	handle solana.PublicKey

	revealAfter   int
	revealCalls   int
	blockOnReveal bool
}

func (f *fakeOracle) CreateRound(_ context.Context, _ solana.PublicKey) (solana.PublicKey, solana.Instruction, error) {
	return f.handle, noopInstruction(), nil
}

func (f *fakeOracle) CommitRound(_ context.Context, _, _ solana.PublicKey) (solana.Instruction, error) {
	return noopInstruction(), nil
}

func (f *fakeOracle) BuildRevealInstruction(ctx context.Context, _ solana.PublicKey) (solana.Instruction, error) {
	f.revealCalls++

	if f.blockOnReveal {
		<-ctx.Done()

		return nil, ctx.Err()
	}

	if f.revealCalls <= f.revealAfter {
		return nil, ErrRevealPending
	}

	return noopInstruction(), nil
}

type fakeSubmitter struct {
	submits int
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, _ []solana.Instruction, _ chain.TxOpts) (solana.Signature, error) {
	f.submits++

	return solana.Signature{}, f.err
}

func (f *fakeSubmitter) SubmitRaw(_ context.Context, _ []byte) (solana.Signature, error) {
	f.submits++

	return solana.Signature{}, f.err
}

func noopInstruction() solana.Instruction {
	return solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{0})
}

func TestBeginRoundAndCommit(t *testing.T) {
	handle := solana.NewWallet().PublicKey()
	queue := solana.NewWallet().PublicKey()

	oracleClient := &fakeOracle{handle: handle}
	submitter := &fakeSubmitter{}

	coord := NewCoordinator(testLogger(), oracleClient, submitter, testPolicy(4))

	round, err := coord.BeginRound(context.Background(), queue)
	require.NoError(t, err)
	require.Equal(t, handle, round.Handle)
	require.Equal(t, RoundCreated, round.State)
	require.Equal(t, 1, submitter.submits)

	require.NoError(t, coord.Commit(context.Background(), round))
	require.Equal(t, RoundCommitted, round.State)
	require.Equal(t, 2, submitter.submits)
}

func TestBeginRoundSubmitFailure(t *testing.T) {
	oracleClient := &fakeOracle{handle: solana.NewWallet().PublicKey()}
	submitter := &fakeSubmitter{err: errors.New("rpc down")}

	coord := NewCoordinator(testLogger(), oracleClient, submitter, testPolicy(4))

	_, err := coord.BeginRound(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
}

func TestAwaitRevealSucceedsAfterRetries(t *testing.T) {
	oracleClient := &fakeOracle{handle: solana.NewWallet().PublicKey(), revealAfter: 3}
	submitter := &fakeSubmitter{}

	coord := NewCoordinator(testLogger(), oracleClient, submitter, testPolicy(8))

	round := &Round{Handle: oracleClient.handle, State: RoundCommitted}

	instr, err := coord.AwaitReveal(context.Background(), round)
	require.NoError(t, err)
	require.NotNil(t, instr)
	require.Equal(t, RoundRevealed, round.State)
	require.Equal(t, 4, oracleClient.revealCalls)
}

func TestAwaitRevealBudgetExhausted(t *testing.T) {
	oracleClient := &fakeOracle{handle: solana.NewWallet().PublicKey(), revealAfter: 1000}
	submitter := &fakeSubmitter{}

	const budget = 5

	coord := NewCoordinator(testLogger(), oracleClient, submitter, testPolicy(budget))

	round := &Round{Handle: oracleClient.handle, State: RoundCommitted}

	_, err := coord.AwaitReveal(context.Background(), round)

	var unavailable *OracleUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, budget, unavailable.Attempts)
	require.Equal(t, RoundExpired, round.State)

	// Exactly one poll per budgeted attempt, and polling never writes.
	require.Equal(t, budget, oracleClient.revealCalls)
	require.Equal(t, 0, submitter.submits)
}

func TestAwaitRevealPerAttemptTimeout(t *testing.T) {
	oracleClient := &fakeOracle{handle: solana.NewWallet().PublicKey(), blockOnReveal: true}
	submitter := &fakeSubmitter{}

	const budget = 3

	coord := NewCoordinator(testLogger(), oracleClient, submitter, testPolicy(budget))

	round := &Round{Handle: oracleClient.handle, State: RoundCommitted}

	start := time.Now()

	_, err := coord.AwaitReveal(context.Background(), round)

	var unavailable *OracleUnavailableError
	require.ErrorAs(t, err, &unavailable)

	// A hung oracle client costs at most AttemptTimeout per attempt, not the
	// whole call.
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, budget, oracleClient.revealCalls)
}

func TestAwaitRevealContextCancelled(t *testing.T) {
	oracleClient := &fakeOracle{handle: solana.NewWallet().PublicKey(), revealAfter: 1000}
	submitter := &fakeSubmitter{}

	policy := testPolicy(1000)
	policy.Interval = 20 * time.Millisecond

	coord := NewCoordinator(testLogger(), oracleClient, submitter, policy)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	round := &Round{Handle: oracleClient.handle, State: RoundCommitted}

	_, err := coord.AwaitReveal(ctx, round)
	require.ErrorIs(t, err, context.Canceled)
}
