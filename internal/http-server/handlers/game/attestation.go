package game

import (
	"encoding/json"
	"net/http"

	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"
)

type AttestationResponse struct {
	resp.Response
	Attestation json.RawMessage `json:"attestation"`
}

// GetAttestation serves the stored attestation document verbatim. The
// document is returned byte-for-byte as sealed; re-marshalling could change
// the bytes the hash covers.
type GetAttestation struct {
	log             *slog.Logger
	attestationRepo *repository.AttestationRepository
}

func NewGetAttestation(log *slog.Logger, attestationRepo *repository.AttestationRepository) *GetAttestation {
	return &GetAttestation{
		log:             log,
		attestationRepo: attestationRepo,
	}
}

func (g *GetAttestation) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.game.attestation.New"

		log := g.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		uuidStr := chi.URLParam(r, "uuid")

		document, err := g.attestationRepo.FindDocumentByGameUUID(uuidStr)
		if err != nil {
			log.Error("failed to find attestation", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to find attestation", resp.CodeInternal, http.StatusInternalServerError))

			return
		}

		if document == nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("attestation not found", resp.CodeNotFound, http.StatusNotFound))

			return
		}

		render.JSON(w, r, AttestationResponse{
			Response:    resp.OK(),
			Attestation: document,
		})
	}
}
