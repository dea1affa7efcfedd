package game

import (
	"io"
	"net/http"

	resp "github.com/Romulus-Sol/agent-casino-sub001/internal/lib/api/response"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"
)

const maxDocumentSize = 64 << 10

type VerifyResponse struct {
	resp.Response
	Valid bool `json:"valid"`
}

type DocumentVerifier interface {
	VerifyDocument(document []byte) (bool, error)
}

// Verify re-hashes a submitted attestation document and reports whether the
// seal still holds. Anyone can call it; verification needs no secrets.
type Verify struct {
	log      *slog.Logger
	verifier DocumentVerifier
}

func NewVerify(log *slog.Logger, verifier DocumentVerifier) *Verify {
	return &Verify{
		log:      log,
		verifier: verifier,
	}
}

func (v *Verify) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.game.verify.New"

		log := v.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		document, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
		if err != nil {
			log.Error("failed to read request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to read request body", resp.CodeBadRequest, http.StatusBadRequest))

			return
		}

		valid, err := v.verifier.VerifyDocument(document)
		if err != nil {
			log.Info("attestation document rejected", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(err.Error(), resp.CodeBadRequest, http.StatusBadRequest))

			return
		}

		render.JSON(w, r, VerifyResponse{
			Response: resp.OK(),
			Valid:    valid,
		})
	}
}
