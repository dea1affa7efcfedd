package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/Romulus-Sol/agent-casino-sub001/internal/lib/logger/sl"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

// Hub fans settlement events out to subscribed connections. One goroutine
// owns the channel map; handlers talk to it over channels only.
type Hub struct {
	channels    map[string]map[*websocket.Conn]bool
	Broadcast   chan Message
	Subscribe   chan Subscription
	Unsubscribe chan *websocket.Conn
	mutex       sync.RWMutex
	log         *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		channels:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:   make(chan Message),
		Subscribe:   make(chan Subscription),
		Unsubscribe: make(chan *websocket.Conn),
		log:         log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (hub *Hub) run() {
	for {
		select {
		case sub := <-hub.Subscribe:
			hub.mutex.Lock()
			if hub.channels[sub.Channel] == nil {
				hub.channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.channels[sub.Channel][sub.Conn] = true
			hub.mutex.Unlock()
		case conn := <-hub.Unsubscribe:
			hub.mutex.Lock()
			for _, receivers := range hub.channels {
				delete(receivers, conn)
			}
			hub.mutex.Unlock()
		case message := <-hub.Broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				hub.log.Error("failed to marshal message", sl.Err(err))

				continue
			}

			hub.mutex.RLock()
			receivers := hub.channels[message.Channel]

			hub.log.Info("broadcasting message",
				slog.String("channel", message.Channel),
				slog.String("event", message.Event),
				slog.Int("receivers", len(receivers)))

			for conn := range receivers {
				if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
					hub.log.Error("failed to write message", sl.Err(err))
				}
			}
			hub.mutex.RUnlock()
		}
	}
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}
	defer func() {
		hub.Unsubscribe <- ws

		if err = ws.Close(); err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}()

	if room := r.URL.Query().Get("room"); room != "" {
		hub.Subscribe <- Subscription{Conn: ws, Channel: room}
	}

	for {
		_, p, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var message Message
		if err = json.Unmarshal(p, &message); err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		hub.log.Info("incoming message",
			slog.String("channel", message.Channel),
			slog.String("event", message.Event))

		hub.Subscribe <- Subscription{Conn: ws, Channel: message.Channel}
		hub.Broadcast <- message
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
