package job

import (
	"encoding/json"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/attestation"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/repository"
	"golang.org/x/exp/slog"
)

// PersistGameJob writes the settled game and its attestation to MySQL off
// the request path. The chain is the source of truth; a failed write here
// costs history, not money.
type PersistGameJob struct {
	Log              *slog.Logger
	Game             *model.GameRequest
	Attestation      *attestation.Attestation
	PaymentSignature string
	GameRepo         *repository.GameRepository
	AttestationRepo  *repository.AttestationRepository
}

func (job *PersistGameJob) Execute() {
	const op = "job.PersistGameJob.Execute"

	log := job.Log.With(
		slog.String("op", op),
		slog.String("game_id", job.Game.ID.String()),
	)

	if _, err := job.GameRepo.SaveGame(job.Game, job.PaymentSignature); err != nil {
		log.Error("failed to persist game", sl.Err(err))

		return
	}

	document, err := json.Marshal(job.Attestation)
	if err != nil {
		log.Error("failed to marshal attestation", sl.Err(err))

		return
	}

	if _, err = job.AttestationRepo.SaveAttestation(job.Game.ID.String(), job.Attestation.AttestationHash, document); err != nil {
		log.Error("failed to persist attestation", sl.Err(err))

		return
	}

	log.Info("game persisted")
}
