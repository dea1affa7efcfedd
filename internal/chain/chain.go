package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/exp/slog"
)

// TxOpts tunes one submission. The compute budget fields are used by the
// combined reveal+settle transaction, which must land before the reveal
// goes stale.
type TxOpts struct {
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
	SkipPreflight    bool
}

type Submitter interface {
	Submit(ctx context.Context, instrs []solana.Instruction, opts TxOpts) (solana.Signature, error)
	SubmitRaw(ctx context.Context, raw []byte) (solana.Signature, error)
}

type Reader interface {
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

type Client struct {
	log             *slog.Logger
	rpc             *rpc.Client
	signer          solana.PrivateKey
	confirmInterval time.Duration
	confirmTimeout  time.Duration
}

func New(
	log *slog.Logger,
	rpcClient *rpc.Client,
	signer solana.PrivateKey,
	confirmInterval time.Duration,
	confirmTimeout time.Duration) *Client {
	return &Client{
		log:             log,
		rpc:             rpcClient,
		signer:          signer,
		confirmInterval: confirmInterval,
		confirmTimeout:  confirmTimeout,
	}
}

func (c *Client) Submit(ctx context.Context, instrs []solana.Instruction, opts TxOpts) (solana.Signature, error) {
	const op = "chain.Submit"

	all := make([]solana.Instruction, 0, len(instrs)+2)

	if opts.ComputeUnitPrice > 0 {
		all = append(all, computebudget.NewSetComputeUnitPriceInstruction(opts.ComputeUnitPrice).Build())
	}

	if opts.ComputeUnitLimit > 0 {
		all = append(all, computebudget.NewSetComputeUnitLimitInstruction(opts.ComputeUnitLimit).Build())
	}

	all = append(all, instrs...)

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := solana.NewTransaction(all, recent.Value.Blockhash, solana.TransactionPayer(c.signer.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.signer.PublicKey()) {
			return &c.signer
		}

		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", op, err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = c.awaitConfirmation(ctx, sig); err != nil {
		return sig, fmt.Errorf("%s: %w", op, err)
	}

	return sig, nil
}

func (c *Client) SubmitRaw(ctx context.Context, raw []byte) (solana.Signature, error) {
	const op = "chain.SubmitRaw"

	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = c.awaitConfirmation(ctx, sig); err != nil {
		return sig, fmt.Errorf("%s: %w", op, err)
	}

	return sig, nil
}

func (c *Client) AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	const op = "chain.AccountData"

	res, err := c.rpc.GetAccountInfo(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.Value == nil {
		return nil, fmt.Errorf("%s: account %s not found", op, account)
	}

	return res.Value.Data.GetBinary(), nil
}

// awaitConfirmation polls signature status until the cluster reports the
// transaction confirmed, it fails, or the timeout elapses. Timed sleeps
// between reads, no busy-waiting.
func (c *Client) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	t := time.NewTicker(c.confirmInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out: %w", ctx.Err())
		case <-t.C:
			out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				c.log.Debug("signature status read failed", sl.Err(err))

				continue
			}

			if len(out.Value) == 0 || out.Value[0] == nil {
				continue
			}

			st := out.Value[0]

			if st.Err != nil {
				return fmt.Errorf("transaction failed on-chain: %v", st.Err)
			}

			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				c.log.Debug("transaction confirmed", sl.Sig(sig))

				return nil
			}
		}
	}
}
