package websocket

import (
	"context"
	"encoding/json"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statusChannel = "status_events"

type statusMessage struct {
	Type string              `json:"type"`
	Data entity.StatusRecord `json:"data"`
}

// clusterMessage is what instances exchange over redis. Origin lets an
// instance skip its own publications, which it has already delivered.
type clusterMessage struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// Hub fans status records out to the websocket clients watching a session.
type Hub struct {
	instanceID string

	// session id -> clients (several tabs may watch one session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}

	rdb    *redis.Client
	logger logger.ILogger
}

type delivery struct {
	sessionID string
	data      []byte
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		instanceID: uuid.NewString(),
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns the client map until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
			}
			h.clients = map[string][]*Client{}
			return

		case client := <-h.register:
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			for _, client := range h.clients[d.sessionID] {
				select {
				case client.Send <- d.data:
				default:
					h.logger.Warn("Hub", "Client send buffer full, dropping status", map[string]interface{}{"session_id": d.sessionID})
				}
			}
		}
	}
}

// Register and Unregister give up once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	clients := h.clients[client.SessionID]
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
	}
}

// NotifyStatus pushes a record to local watchers and to the other instances.
func (h *Hub) NotifyStatus(rec entity.StatusRecord) {
	data, err := json.Marshal(statusMessage{Type: "status", Data: rec})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode status", map[string]interface{}{"status_id": rec.ID, "error": err.Error()})
		return
	}

	h.local(rec.SessionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, SessionID: rec.SessionID, Message: data})
		if err := h.rdb.Publish(context.Background(), statusChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"status_id": rec.ID, "error": err.Error()})
		}
	}
}

func (h *Hub) local(sessionID string, data []byte) {
	select {
	case h.deliver <- delivery{sessionID: sessionID, data: data}:
	default:
		h.logger.Warn("Hub", "Delivery queue full, dropping status", map[string]interface{}{"session_id": sessionID})
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, statusChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.local(payload.SessionID, payload.Message)
		}
	}
}
