package game

import (
	"encoding/json"
	"net/http"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"
)

type Response struct {
	resp.Response
	Game        *model.GameRequest `json:"game"`
	Attestation json.RawMessage    `json:"attestation,omitempty"`
}

type Get struct {
	log             *slog.Logger
	gameRepo        *repository.GameRepository
	attestationRepo *repository.AttestationRepository
}

func NewGet(log *slog.Logger, gameRepo *repository.GameRepository, attestationRepo *repository.AttestationRepository) *Get {
	return &Get{
		log:             log,
		gameRepo:        gameRepo,
		attestationRepo: attestationRepo,
	}
}

func (g *Get) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.game.get.New"

		log := g.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		uuidStr := chi.URLParam(r, "uuid")

		game, err := g.gameRepo.FindGameByUUID(uuidStr)
		if err != nil {
			log.Error("failed to find game", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to find game", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		if game == nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("game not found", resp.CodeNotFound, http.StatusNotFound))

			return
		}

		document, err := g.attestationRepo.FindDocumentByGameUUID(uuidStr)
		if err != nil {
			log.Error("failed to find attestation", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to find attestation", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			Game:        game,
			Attestation: document,
		})
	}
}
