package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/mysql"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

type GameRepository struct {
	dbhandler mysql.Handler
}

func NewGameRepository(dbhandler mysql.Handler) *GameRepository {
	return &GameRepository{dbhandler: dbhandler}
}

func (repo *GameRepository) SaveGame(game *model.GameRequest, paymentSignature string) (int64, error) {
	const op = "repository.game.SaveGame"

	const query = "INSERT INTO games(uuid, player, game_type, bet_amount, choice, status, result, won, payout, " +
		"request_slot, randomness_handle, server_seed, client_seed, payment_signature, created_at, settled_at, updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	choice, err := json.Marshal(game.Choice)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := repo.dbhandler.PrepareAndExecute(query,
		game.ID.String(),
		game.Player.String(),
		string(game.GameType),
		game.BetAmount,
		string(choice),
		string(game.Status),
		game.Result,
		game.Won,
		game.Payout,
		game.RequestSlot,
		game.RandomnessHandle.String(),
		game.ServerSeed,
		game.ClientSeed,
		paymentSignature,
		game.CreatedAt,
		game.SettledAt,
		time.Now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *GameRepository) FindGameByUUID(uuidStr string) (*model.GameRequest, error) {
	const op = "repository.game.FindGameByUUID"

	const query = "SELECT uuid, player, game_type, bet_amount, choice, status, result, won, payout, " +
		"request_slot, randomness_handle, server_seed, client_seed, created_at, settled_at FROM games WHERE uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, uuidStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		id        string
		player    string
		gameType  string
		choice    string
		status    string
		handle    string
		settledAt sql.NullTime
	)

	game := &model.GameRequest{}

	err = row.Scan(&id, &player, &gameType, &game.BetAmount, &choice, &status, &game.Result,
		&game.Won, &game.Payout, &game.RequestSlot, &handle, &game.ServerSeed, &game.ClientSeed,
		&game.CreatedAt, &settledAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if game.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if game.Player, err = solana.PublicKeyFromBase58(player); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if game.RandomnessHandle, err = solana.PublicKeyFromBase58(handle); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = json.Unmarshal([]byte(choice), &game.Choice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	game.GameType = config.GameType(gameType)
	game.Status = model.GameStatus(status)

	if settledAt.Valid {
		t := settledAt.Time
		game.SettledAt = &t
	}

	return game, nil
}
