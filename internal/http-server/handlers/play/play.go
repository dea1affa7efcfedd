package play

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/attestation"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/casino"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/event"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/job"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/middleware/payment"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/random"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/oracle"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/repository"
	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"
)

type Request struct {
	GameType   config.GameType `json:"game_type" validate:"required"`
	BetAmount  uint64          `json:"bet_amount" validate:"required,min=1"`
	Choice     config.Choice   `json:"choice"`
	ClientSeed string          `json:"client_seed,omitempty"`
}

type Response struct {
	resp.Response
	Game        *model.GameRequest       `json:"game"`
	Attestation *attestation.Attestation `json:"attestation"`
	PaymentTx   string                   `json:"paymentTx"`
}

type GamePlayer interface {
	Play(ctx context.Context, player solana.PublicKey, gt config.GameType, betAmount uint64, choice config.Choice, clientSeed [32]byte) (*model.GameRequest, error)
}

type Formatter interface {
	Format(game *model.GameRequest, network string, program solana.PublicKey) (*attestation.Attestation, error)
}

type Play struct {
	log             *slog.Logger
	validator       *validator.Validate
	player          GamePlayer
	formatter       Formatter
	network         string
	program         solana.PublicKey
	queue           job.JobQueue
	pusher          *event.SettlementPusher
	gameRepo        *repository.GameRepository
	attestationRepo *repository.AttestationRepository
}

func NewPlay(
	log *slog.Logger,
	player GamePlayer,
	formatter Formatter,
	network string,
	program solana.PublicKey,
	queue job.JobQueue,
	pusher *event.SettlementPusher,
	gameRepo *repository.GameRepository,
	attestationRepo *repository.AttestationRepository) *Play {
	return &Play{
		log:             log,
		validator:       validator.New(),
		player:          player,
		formatter:       formatter,
		network:         network,
		program:         program,
		queue:           queue,
		pusher:          pusher,
		gameRepo:        gameRepo,
		attestationRepo: attestationRepo,
	}
}

func (p *Play) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.play.New"

		log := p.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		proof, ok := payment.FromContext(r.Context())
		if !ok {
			log.Error("no payment proof on gated route")

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("payment proof missing", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request body", resp.CodeBadRequest, http.StatusBadRequest))

			return
		}

		log.Info("request body decoded", slog.Any("request", req))

		if err := p.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := config.ValidateChoice(req.GameType, req.Choice); err != nil {
			log.Error("invalid choice", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(err.Error(), resp.CodeBadRequest, http.StatusBadRequest))

			return
		}

		player, err := solana.PublicKeyFromBase58(proof.Payer)
		if err != nil {
			log.Error("payment proof carries a bad payer", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("bad payer", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		clientSeed, err := p.resolveClientSeed(req.ClientSeed)
		if err != nil {
			log.Error("bad client seed", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("client_seed must be 32 hex-encoded bytes", resp.CodeBadRequest, http.StatusBadRequest))

			return
		}

		game, err := p.player.Play(r.Context(), player, req.GameType, req.BetAmount, req.Choice, clientSeed)
		if err != nil {
			p.renderPlayError(w, r, log, err)

			return
		}

		att, err := p.formatter.Format(game, p.network, p.program)
		if err != nil {
			log.Error("failed to format attestation", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to format attestation", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		p.queue.Dispatch(&job.PersistGameJob{
			Log:              p.log,
			Game:             game,
			Attestation:      att,
			PaymentSignature: proof.Signature,
			GameRepo:         p.gameRepo,
			AttestationRepo:  p.attestationRepo,
		}, 0)

		p.queue.Dispatch(&job.SendEventJob{
			EventMessage: event.Message{
				Channel: event.SettlementChannel,
				Event:   event.GameSettledEvent,
				Data: map[string]interface{}{
					"game_id":   game.ID.String(),
					"player":    game.Player.String(),
					"game_type": string(game.GameType),
					"won":       game.Won,
					"payout":    game.Payout,
				},
			},
			Event: p.pusher,
		}, time.Second)

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			Game:        game,
			Attestation: att,
			PaymentTx:   proof.Signature,
		})
	}
}

func (p *Play) resolveClientSeed(seed string) ([32]byte, error) {
	if seed == "" {
		return random.NewClientSeed()
	}

	var out [32]byte

	raw, err := hex.DecodeString(seed)
	if err != nil {
		return out, err
	}

	if len(raw) != len(out) {
		return out, errors.New("client seed must be 32 bytes")
	}

	copy(out[:], raw)

	return out, nil
}

// renderPlayError maps domain failures onto the public error-code set.
func (p *Play) renderPlayError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		unavailable *oracle.OracleUnavailableError
		settlement  *casino.SettlementTransactionFailedError
	)

	switch {
	case errors.As(err, &unavailable):
		log.Error("oracle unavailable", sl.Err(err))

		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, resp.Error("randomness oracle unavailable", resp.CodeOracleDown, http.StatusServiceUnavailable))
	case errors.As(err, &settlement):
		log.Error("settlement failed", sl.Err(err))

		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("settlement transaction failed", resp.CodeSettlement, http.StatusBadGateway))
	default:
		log.Error("play failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("failed to play", resp.CodeInternal, http.StatusInternalServerError))
	}
}
