package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/mysql"
)

type AttestationRepository struct {
	dbhandler mysql.Handler
}

func NewAttestationRepository(dbhandler mysql.Handler) *AttestationRepository {
	return &AttestationRepository{dbhandler: dbhandler}
}

func (repo *AttestationRepository) SaveAttestation(gameUUID string, hash string, document []byte) (int64, error) {
	const op = "repository.attestation.SaveAttestation"

	const query = "INSERT INTO attestations(game_uuid, hash, document, created_at) VALUES(?, ?, ?, ?)"

	res, err := repo.dbhandler.PrepareAndExecute(query, gameUUID, hash, document, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *AttestationRepository) FindDocumentByGameUUID(gameUUID string) ([]byte, error) {
	const op = "repository.attestation.FindDocumentByGameUUID"

	const query = "SELECT document FROM attestations WHERE game_uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, gameUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var document []byte

	err = row.Scan(&document)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return document, nil
}
