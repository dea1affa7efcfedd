package payment

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/converter"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/render"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/slog"
)

const (
	// Header carrying the base64 payment envelope.
	paymentHeader = "X-Payment"

	// Wrapped SOL mint; payments are plain lamport transfers.
	wrappedSOLMint = "So11111111111111111111111111111111111111112"

	x402Version = 1

	// System program transfer instruction tag.
	systemTransferIndex = 2
)

type ctxKey struct{}

// Gateway gates paid endpoints behind the x402 challenge/response flow. A
// request without payment gets a 402 challenge; a request with a valid,
// unseen, on-chain-confirmed payment passes through with its proof attached
// to the context.
type Gateway struct {
	log         *slog.Logger
	submitter   chain.Submitter
	replay      *lru.Cache[string, time.Time]
	payTo       solana.PublicKey
	price       uint64
	network     string
	description string
}

func NewGateway(log *slog.Logger, submitter chain.Submitter, cfg config.Payment, network string) (*Gateway, error) {
	const op = "payment.NewGateway"

	payTo, err := solana.PublicKeyFromBase58(cfg.PayTo)
	if err != nil {
		return nil, fmt.Errorf("%s: bad pay_to address: %w", op, err)
	}

	replay, err := lru.New[string, time.Time](cfg.ReplayCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Gateway{
		log:         log,
		submitter:   submitter,
		replay:      replay,
		payTo:       payTo,
		price:       cfg.PriceLamports,
		network:     network,
		description: cfg.Description,
	}, nil
}

// Gate wraps a handler with the payment check.
func (g *Gateway) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "payment.Gate"

		log := g.log.With(
			slog.String("op", op),
			slog.String("path", r.URL.Path),
		)

		header := r.Header.Get(paymentHeader)
		if header == "" {
			render.Status(r, http.StatusPaymentRequired)
			render.JSON(w, r, g.challenge(r))

			return
		}

		raw, err := g.decodeEnvelope(header)
		if err != nil {
			log.Info("malformed payment envelope", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed payment", resp.CodeInvalidPayment, http.StatusBadRequest))

			return
		}

		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		if err != nil {
			log.Info("payment transaction does not decode", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed payment transaction", resp.CodeInvalidPayment, http.StatusBadRequest))

			return
		}

		payer, amount, err := g.extractTransfer(tx)
		if err != nil {
			log.Info("payment transfer rejected", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(err.Error(), resp.CodeInvalidPayment, http.StatusBadRequest))

			return
		}

		if len(tx.Signatures) == 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("payment transaction is unsigned", resp.CodeInvalidPayment, http.StatusBadRequest))

			return
		}

		sig, err := g.submitter.SubmitRaw(r.Context(), raw)
		if err != nil {
			log.Warn("payment did not land on chain", sl.Err(err))

			render.Status(r, http.StatusPaymentRequired)
			render.JSON(w, r, resp.Error("payment failed on chain", resp.CodePaymentFailed, http.StatusPaymentRequired))

			return
		}

		// Replay is checked against the confirmed signature, after the chain
		// has accepted it. A signature seen before buys nothing twice.
		key := sig.String()
		if _, seen := g.replay.Get(key); seen {
			log.Warn("payment signature replayed", sl.Sig(sig))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("payment already consumed", resp.CodePaymentReplayed, http.StatusBadRequest))

			return
		}

		g.replay.Add(key, time.Now().UTC())

		proof := &model.PaymentProof{
			Payer:      payer.String(),
			Asset:      wrappedSOLMint,
			Amount:     amount,
			Signature:  key,
			ConsumedAt: time.Now().UTC(),
		}

		log.Info("payment accepted",
			sl.Pubkey("payer", payer),
			slog.Uint64("amount", amount),
			sl.Sig(sig))

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), proof)))
	})
}

// NewContext attaches a consumed payment proof to the context.
func NewContext(ctx context.Context, proof *model.PaymentProof) context.Context {
	return context.WithValue(ctx, ctxKey{}, proof)
}

// FromContext returns the payment proof the gate attached for this request.
func FromContext(ctx context.Context) (*model.PaymentProof, bool) {
	proof, ok := ctx.Value(ctxKey{}).(*model.PaymentProof)

	return proof, ok
}

func (g *Gateway) challenge(r *http.Request) model.PaymentChallenge {
	return model.PaymentChallenge{
		X402Version: x402Version,
		Accepts: []model.PaymentTerms{
			{
				Scheme:            "exact",
				Network:           g.network,
				MaxAmountRequired: converter.ConvertLamportsToString(g.price),
				Asset:             wrappedSOLMint,
				PayTo:             g.payTo.String(),
				Resource:          r.URL.Path,
				Description:       g.description,
				MimeType:          "application/json",
				Extra: model.PaymentExtra{
					Mint:     wrappedSOLMint,
					Decimals: 9,
					Price:    converter.ConvertLamportsToSol(g.price),
				},
			},
		},
	}
}

// decodeEnvelope unwraps header base64 -> envelope JSON -> transaction base64.
func (g *Gateway) decodeEnvelope(header string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("header is not base64: %w", err)
	}

	var envelope model.PaymentEnvelope
	if err = json.Unmarshal(decoded, &envelope); err != nil {
		return nil, fmt.Errorf("envelope is not json: %w", err)
	}

	if envelope.Payload.SerializedTransaction == "" {
		return nil, fmt.Errorf("envelope carries no transaction")
	}

	raw, err := base64.StdEncoding.DecodeString(envelope.Payload.SerializedTransaction)
	if err != nil {
		return nil, fmt.Errorf("transaction is not base64: %w", err)
	}

	return raw, nil
}

// extractTransfer finds the system transfer paying the house. Payer and
// amount come from the instruction itself; caller metadata is never trusted.
func (g *Gateway) extractTransfer(tx *solana.Transaction) (solana.PublicKey, uint64, error) {
	for _, ix := range tx.Message.Instructions {
		prog, err := tx.Message.Program(ix.ProgramIDIndex)
		if err != nil {
			continue
		}

		if !prog.Equals(solana.SystemProgramID) {
			continue
		}

		if len(ix.Data) < 12 || binary.LittleEndian.Uint32(ix.Data[:4]) != systemTransferIndex {
			continue
		}

		if len(ix.Accounts) < 2 {
			continue
		}

		from, err := tx.Message.Account(ix.Accounts[0])
		if err != nil {
			continue
		}

		to, err := tx.Message.Account(ix.Accounts[1])
		if err != nil {
			continue
		}

		if !to.Equals(g.payTo) {
			return solana.PublicKey{}, 0, fmt.Errorf("transfer pays %s, not the house", to)
		}

		amount := binary.LittleEndian.Uint64(ix.Data[4:12])
		if amount < g.price {
			return solana.PublicKey{}, 0, fmt.Errorf("transfer of %d lamports is below the price of %d", amount, g.price)
		}

		return from, amount, nil
	}

	return solana.PublicKey{}, 0, fmt.Errorf("no system transfer to the house in transaction")
}
