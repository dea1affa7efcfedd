package model

import (
	"time"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

type GameStatus string

const (
	StatusPending   GameStatus = "pending"
	StatusCommitted GameStatus = "committed"
	StatusSettled   GameStatus = "settled"
	StatusExpired   GameStatus = "expired"
)

// GameRequest is one wagering attempt. It is mutated only on confirmed
// on-chain writes and becomes immutable once Settled.
type GameRequest struct {
	ID               uuid.UUID        `json:"id"`
	Player           solana.PublicKey `json:"player"`
	GameType         config.GameType  `json:"game_type"`
	BetAmount        uint64           `json:"bet_amount"`
	Choice           config.Choice    `json:"choice"`
	Status           GameStatus       `json:"status"`
	Result           uint8            `json:"result"`
	Won              bool             `json:"won"`
	Payout           uint64           `json:"payout"`
	RequestSlot      uint64           `json:"request_slot"`
	RandomnessHandle solana.PublicKey `json:"randomness_handle"`
	ServerSeed       string           `json:"server_seed"`
	ClientSeed       string           `json:"client_seed"`
	CreatedAt        time.Time        `json:"created_at"`
	SettledAt        *time.Time       `json:"settled_at,omitempty"`
}
