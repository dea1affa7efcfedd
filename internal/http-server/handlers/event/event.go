package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

const (
	SettlementChannel = "settlement-channel"

	GameSettledEvent = "game-settled"
)

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

// SettlementPusher publishes settlement events over a single outbound
// websocket connection to the hub. Writes are serialized; gorilla
// connections do not tolerate concurrent writers.
type SettlementPusher struct {
	log  *slog.Logger
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewSettlementPusher(log *slog.Logger, conn *websocket.Conn) *SettlementPusher {
	return &SettlementPusher{
		log:  log,
		conn: conn,
	}
}

func (p *SettlementPusher) TriggerEvent(m Message) error {
	const op = "handlers.event.TriggerEvent"

	msg, err := json.Marshal(m)
	if err != nil {
		p.log.Error("failed to marshal message", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		p.log.Error("failed to trigger event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	p.log.Info("event triggered",
		slog.String("channel", m.Channel),
		slog.String("event", m.Event))

	return nil
}
