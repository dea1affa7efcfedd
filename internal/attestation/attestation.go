package attestation

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/config"
	"github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/model"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/exp/slog"
)

const (
	Protocol = "agent-casino"
	Version  = 1
)

// Attestation is the sealed record of one settled game. attestation_hash is
// the SHA-256 of the canonical (sorted-key, whitespace-free) serialization
// of every other field, so any third party can re-hash and compare without
// calling back into this service. Amounts are integer strings so every
// verifier decodes them exactly.
//
// Fields meaningful only for some game types are omitted entirely rather
// than serialized as null; otherwise independent verifiers would disagree
// on the canonical bytes.
type Attestation struct {
	Protocol         string  `json:"protocol"`
	Version          int     `json:"version"`
	Network          string  `json:"network"`
	Program          string  `json:"program"`
	GameID           string  `json:"game_id"`
	Player           string  `json:"player"`
	GameType         string  `json:"game_type"`
	BetAmount        string  `json:"bet_amount"`
	Side             *uint8  `json:"side,omitempty"`
	Target           *uint8  `json:"target,omitempty"`
	TargetMultiplier *uint16 `json:"target_multiplier,omitempty"`
	Opponent         string  `json:"opponent,omitempty"`
	Result           uint8   `json:"result"`
	Won              bool    `json:"won"`
	Payout           string  `json:"payout"`
	RequestSlot      uint64  `json:"request_slot"`
	RandomnessHandle string  `json:"randomness_handle"`
	ServerSeed       string  `json:"server_seed"`
	ClientSeed       string  `json:"client_seed"`
	CreatedAt        int64   `json:"created_at"`
	SettledAt        int64   `json:"settled_at"`
	AttestationHash  string  `json:"attestation_hash"`
}

type Service struct {
	log *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{log: log}
}

// Format seals a settled game into an attestation document.
func (s *Service) Format(game *model.GameRequest, network string, program solana.PublicKey) (*Attestation, error) {
	const op = "attestation.Format"

	if game.Status != model.StatusSettled {
		return nil, fmt.Errorf("%s: game %s is not settled", op, game.ID)
	}

	if game.SettledAt == nil {
		return nil, fmt.Errorf("%s: game %s has no settlement time", op, game.ID)
	}

	att := &Attestation{
		Protocol:         Protocol,
		Version:          Version,
		Network:          network,
		Program:          program.String(),
		GameID:           game.ID.String(),
		Player:           game.Player.String(),
		GameType:         string(game.GameType),
		BetAmount:        strconv.FormatUint(game.BetAmount, 10),
		Result:           game.Result,
		Won:              game.Won,
		Payout:           strconv.FormatUint(game.Payout, 10),
		RequestSlot:      game.RequestSlot,
		RandomnessHandle: game.RandomnessHandle.String(),
		ServerSeed:       game.ServerSeed,
		ClientSeed:       game.ClientSeed,
		CreatedAt:        game.CreatedAt.Unix(),
		SettledAt:        game.SettledAt.Unix(),
	}

	switch game.GameType {
	case config.CoinFlip:
		att.Side = game.Choice.Side
	case config.DiceRoll:
		att.Target = game.Choice.Target
	case config.Limbo, config.Crash:
		att.TargetMultiplier = game.Choice.TargetMultiplier
	case config.PvPChallenge:
		att.Opponent = game.Choice.Opponent
	}

	hash, err := hashCanonical(canonicalFields(att))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	att.AttestationHash = hash

	return att, nil
}

// Verify re-derives the hash of a formatted attestation and compares.
func (s *Service) Verify(att *Attestation) (bool, error) {
	const op = "attestation.Verify"

	if att.Version != Version {
		return false, fmt.Errorf("%s: unknown attestation version %d", op, att.Version)
	}

	hash, err := hashCanonical(canonicalFields(att))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return hash == att.AttestationHash, nil
}

// VerifyDocument verifies a raw attestation document exactly as a third
// party would: strip the hash, canonicalize, re-hash, compare. Unknown
// versions are rejected rather than guessed at.
func (s *Service) VerifyDocument(doc []byte) (bool, error) {
	const op = "attestation.VerifyDocument"

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	version, ok := fields["version"].(json.Number)
	if !ok || version.String() != strconv.Itoa(Version) {
		return false, fmt.Errorf("%s: unknown attestation version", op)
	}

	claimed, ok := fields["attestation_hash"].(string)
	if !ok || claimed == "" {
		return false, fmt.Errorf("%s: missing attestation_hash", op)
	}

	delete(fields, "attestation_hash")

	hash, err := hashCanonical(fields)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return hash == claimed, nil
}

// canonicalFields flattens the attestation into the map the hash is
// computed over, leaving out the hash itself and any absent optional field.
func canonicalFields(att *Attestation) map[string]interface{} {
	fields := map[string]interface{}{
		"protocol":          att.Protocol,
		"version":           att.Version,
		"network":           att.Network,
		"program":           att.Program,
		"game_id":           att.GameID,
		"player":            att.Player,
		"game_type":         att.GameType,
		"bet_amount":        att.BetAmount,
		"result":            att.Result,
		"won":               att.Won,
		"payout":            att.Payout,
		"request_slot":      att.RequestSlot,
		"randomness_handle": att.RandomnessHandle,
		"server_seed":       att.ServerSeed,
		"client_seed":       att.ClientSeed,
		"created_at":        att.CreatedAt,
		"settled_at":        att.SettledAt,
	}

	if att.Side != nil {
		fields["side"] = *att.Side
	}

	if att.Target != nil {
		fields["target"] = *att.Target
	}

	if att.TargetMultiplier != nil {
		fields["target_multiplier"] = *att.TargetMultiplier
	}

	if att.Opponent != "" {
		fields["opponent"] = att.Opponent
	}

	return fields
}

// hashCanonical serializes the field map with sorted keys and no whitespace,
// then hashes. encoding/json sorts map keys, which is exactly the canonical
// form the document promises.
func hashCanonical(fields map[string]interface{}) (string, error) {
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}
