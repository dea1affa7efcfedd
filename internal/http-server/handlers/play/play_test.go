package play

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/attestation"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/casino"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/job"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/middleware/payment"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/oracle"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakePlayer struct {
	err    error
	played *model.GameRequest
}

func (f *fakePlayer) Play(_ context.Context, player solana.PublicKey, gt config.GameType, betAmount uint64, choice config.Choice, _ [32]byte) (*model.GameRequest, error) {
	if f.err != nil {
		return nil, f.err
	}

	settledAt := time.Now().UTC()

	f.played = &model.GameRequest{
		ID:        uuid.New(),
		Player:    player,
		GameType:  gt,
		BetAmount: betAmount,
		Choice:    choice,
		Status:    model.StatusSettled,
		Won:       true,
		Payout:    betAmount * 2,
		SettledAt: &settledAt,
	}

	return f.played, nil
}

type fakeFormatter struct{}

func (f *fakeFormatter) Format(game *model.GameRequest, network string, _ solana.PublicKey) (*attestation.Attestation, error) {
	return &attestation.Attestation{
		Protocol:        attestation.Protocol,
		Version:         attestation.Version,
		Network:         network,
		GameID:          game.ID.String(),
		AttestationHash: "deadbeef",
	}, nil
}

func newTestPlay(player GamePlayer) *Play {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := make(job.JobQueue, 8)

	return NewPlay(log, player, &fakeFormatter{}, "solana-devnet", solana.NewWallet().PublicKey(), queue, nil, nil, nil)
}

func paidRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/play", bytes.NewReader(payload))

	proof := &model.PaymentProof{
		Payer:      solana.NewWallet().PublicKey().String(),
		Amount:     10_000,
		Signature:  "5Nf8pSyUKZ8C3h1Y6sFQvR7jW2bqgk",
		ConsumedAt: time.Now().UTC(),
	}

	return req.WithContext(payment.NewContext(req.Context(), proof))
}

func side(v uint8) *uint8 { return &v }

func TestPlaySuccess(t *testing.T) {
	player := &fakePlayer{}
	handler := newTestPlay(player).New()

	req := paidRequest(t, Request{
		GameType:  config.CoinFlip,
		BetAmount: 50_000,
		Choice:    config.Choice{Side: side(1)},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	require.NotNil(t, response.Game)
	require.True(t, response.Game.Won)
	require.NotNil(t, response.Attestation)
	require.Equal(t, "deadbeef", response.Attestation.AttestationHash)
	require.NotEmpty(t, response.PaymentTx)
}

func TestPlayWithoutProofFails(t *testing.T) {
	handler := newTestPlay(&fakePlayer{}).New()

	body, _ := json.Marshal(Request{GameType: config.CoinFlip, BetAmount: 1, Choice: config.Choice{Side: side(0)}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/play", bytes.NewReader(body)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPlayInvalidChoice(t *testing.T) {
	player := &fakePlayer{}
	handler := newTestPlay(player).New()

	req := paidRequest(t, Request{
		GameType:  config.DiceRoll,
		BetAmount: 50_000,
		Choice:    config.Choice{Target: side(9)},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, player.played)
}

func TestPlayBadClientSeed(t *testing.T) {
	handler := newTestPlay(&fakePlayer{}).New()

	req := paidRequest(t, Request{
		GameType:   config.CoinFlip,
		BetAmount:  50_000,
		Choice:     config.Choice{Side: side(1)},
		ClientSeed: "zz",
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   resp.Code
	}{
		{
			name:   "OracleUnavailable",
			err:    &oracle.OracleUnavailableError{Attempts: 16},
			status: http.StatusServiceUnavailable,
			code:   resp.CodeOracleDown,
		},
		{
			name:   "SettlementFailed",
			err:    &casino.SettlementTransactionFailedError{Err: errors.New("insufficient liquidity")},
			status: http.StatusBadGateway,
			code:   resp.CodeSettlement,
		},
		{
			name:   "Unknown",
			err:    errors.New("rpc connection reset"),
			status: http.StatusInternalServerError,
			code:   resp.CodeInternal,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			handler := newTestPlay(&fakePlayer{err: tc.err}).New()

			req := paidRequest(t, Request{
				GameType:  config.CoinFlip,
				BetAmount: 50_000,
				Choice:    config.Choice{Side: side(0)},
			})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)

			var body resp.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Code)
		})
	}
}
