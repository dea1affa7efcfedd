package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/chain"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	rawCalls int
	rawErr   error
}

func (f *fakeSubmitter) Submit(_ context.Context, _ []solana.Instruction, _ chain.TxOpts) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not used")
}

// SubmitRaw echoes the transaction's own signature, as the chain would.
func (f *fakeSubmitter) SubmitRaw(_ context.Context, raw []byte) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rawCalls++

	if f.rawErr != nil {
		return solana.Signature{}, f.rawErr
	}

	if len(raw) < 65 {
		return solana.Signature{}, errors.New("short transaction")
	}

	return solana.SignatureFromBytes(raw[1:65]), nil
}

func testGateway(t *testing.T, submitter chain.Submitter, payTo solana.PublicKey) *Gateway {
	t.Helper()

	cfg := config.Payment{
		PayTo:               payTo.String(),
		PriceLamports:       10_000,
		Description:         "one settled casino game",
		ReplayCacheCapacity: 16,
	}

	gw, err := NewGateway(slog.New(slog.NewTextHandler(io.Discard, nil)), submitter, cfg, "solana-devnet")
	require.NoError(t, err)

	return gw
}

// paymentHeaderFor builds a signed lamport transfer and wraps it the way a
// paying client would: tx base64 inside the envelope, envelope base64 in the
// header.
func paymentHeaderFor(t *testing.T, from *solana.Wallet, to solana.PublicKey, lamports uint64) string {
	t.Helper()

	ix := system.NewTransferInstruction(lamports, from.PublicKey(), to).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		solana.Hash{},
		solana.TransactionPayer(from.PublicKey()),
	)
	require.NoError(t, err)

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from.PrivateKey
		}

		return nil
	})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	envelope := model.PaymentEnvelope{
		Payload: model.PaymentPayload{
			SerializedTransaction: base64.StdEncoding.EncodeToString(raw),
		},
	}

	body, err := json.Marshal(envelope)
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(body)
}

func gatedHandler(gw *Gateway, captured **model.PaymentProof) http.Handler {
	return gw.Gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if proof, ok := FromContext(r.Context()); ok && captured != nil {
			*captured = proof
		}

		w.WriteHeader(http.StatusOK)
	}))
}

func TestGateChallengesWithoutPayment(t *testing.T) {
	payTo := solana.NewWallet().PublicKey()
	gw := testGateway(t, &fakeSubmitter{}, payTo)

	rec := httptest.NewRecorder()
	gatedHandler(gw, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/play", nil))

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var challenge model.PaymentChallenge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))

	require.Equal(t, 1, challenge.X402Version)
	require.Len(t, challenge.Accepts, 1)
	require.Equal(t, "exact", challenge.Accepts[0].Scheme)
	require.Equal(t, "solana-devnet", challenge.Accepts[0].Network)
	require.Equal(t, "10000", challenge.Accepts[0].MaxAmountRequired)
	require.Equal(t, payTo.String(), challenge.Accepts[0].PayTo)
	require.Equal(t, "/play", challenge.Accepts[0].Resource)
	require.Equal(t, 9, challenge.Accepts[0].Extra.Decimals)
}

func TestGateAmountBoundary(t *testing.T) {
	cases := []struct {
		name     string
		lamports uint64
		status   int
	}{
		{name: "BelowPrice", lamports: 9_999, status: http.StatusBadRequest},
		{name: "ExactPrice", lamports: 10_000, status: http.StatusOK},
		{name: "AbovePrice", lamports: 10_001, status: http.StatusOK},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			payTo := solana.NewWallet().PublicKey()
			gw := testGateway(t, &fakeSubmitter{}, payTo)

			payer := solana.NewWallet()

			var proof *model.PaymentProof

			req := httptest.NewRequest(http.MethodPost, "/play", nil)
			req.Header.Set("X-Payment", paymentHeaderFor(t, payer, payTo, tc.lamports))

			rec := httptest.NewRecorder()
			gatedHandler(gw, &proof).ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)

			if tc.status == http.StatusOK {
				require.NotNil(t, proof)
				require.Equal(t, payer.PublicKey().String(), proof.Payer)
				require.Equal(t, tc.lamports, proof.Amount)
				require.NotEmpty(t, proof.Signature)
			}
		})
	}
}

func TestGateRejectsReplay(t *testing.T) {
	payTo := solana.NewWallet().PublicKey()
	submitter := &fakeSubmitter{}
	gw := testGateway(t, submitter, payTo)

	header := paymentHeaderFor(t, solana.NewWallet(), payTo, 10_000)
	handler := gatedHandler(gw, nil)

	first := httptest.NewRequest(http.MethodPost, "/play", nil)
	first.Header.Set("X-Payment", header)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/play", nil)
	second.Header.Set("X-Payment", header)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body resp.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, resp.CodePaymentReplayed, body.Code)
}

func TestGateMalformedNeverReachesChain(t *testing.T) {
	payTo := solana.NewWallet().PublicKey()

	garbageTx := model.PaymentEnvelope{
		Payload: model.PaymentPayload{
			SerializedTransaction: base64.StdEncoding.EncodeToString([]byte("not a transaction")),
		},
	}
	garbageBody, err := json.Marshal(garbageTx)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{name: "NotBase64", header: "%%%not-base64%%%"},
		{name: "NotJSON", header: base64.StdEncoding.EncodeToString([]byte("not json"))},
		{name: "EmptyEnvelope", header: base64.StdEncoding.EncodeToString([]byte(`{"payload":{}}`))},
		{name: "GarbageTransaction", header: base64.StdEncoding.EncodeToString(garbageBody)},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			submitter := &fakeSubmitter{}
			gw := testGateway(t, submitter, payTo)

			req := httptest.NewRequest(http.MethodPost, "/play", nil)
			req.Header.Set("X-Payment", tc.header)

			rec := httptest.NewRecorder()
			gatedHandler(gw, nil).ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body resp.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, resp.CodeInvalidPayment, body.Code)

			require.Equal(t, 0, submitter.rawCalls)
		})
	}
}

func TestGateRejectsWrongRecipient(t *testing.T) {
	payTo := solana.NewWallet().PublicKey()
	submitter := &fakeSubmitter{}
	gw := testGateway(t, submitter, payTo)

	req := httptest.NewRequest(http.MethodPost, "/play", nil)
	req.Header.Set("X-Payment", paymentHeaderFor(t, solana.NewWallet(), solana.NewWallet().PublicKey(), 10_000))

	rec := httptest.NewRecorder()
	gatedHandler(gw, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, submitter.rawCalls)
}

func TestGateChainFailure(t *testing.T) {
	payTo := solana.NewWallet().PublicKey()
	submitter := &fakeSubmitter{rawErr: errors.New("transaction simulation failed")}
	gw := testGateway(t, submitter, payTo)

	req := httptest.NewRequest(http.MethodPost, "/play", nil)
	req.Header.Set("X-Payment", paymentHeaderFor(t, solana.NewWallet(), payTo, 10_000))

	rec := httptest.NewRecorder()
	gatedHandler(gw, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body resp.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, resp.CodePaymentFailed, body.Code)
}
