package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"speech-rehearsal-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Channel used to fan status updates out to the other API instances.
const clusterChannel = "rehearsal_events"

type StatusMessage struct {
	Type        string    `json:"type"`
	RehearsalID string    `json:"rehearsalId"`
	Status      string    `json:"status"`
	Kinds       []string  `json:"kinds,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

type clusterEnvelope struct {
	Origin      string          `json:"origin"`
	RehearsalID string          `json:"rehearsal_id"`
	Message     json.RawMessage `json:"message"`
}

type Hub struct {
	// Clients watching a rehearsal, keyed by rehearsal id.
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Optional; nil keeps fan-out local to this process.
	rdb *redis.Client
	// Identifies this instance so it ignores its own Redis echoes.
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, origin string, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		origin:     origin,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.RehearsalID] = append(h.clients[client.RehearsalID], client)
			h.mu.Unlock()
			h.logger.Debug("Hub", "Client registered", map[string]interface{}{"rehearsal_id": client.RehearsalID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.RehearsalID]
			for i, c := range clients {
				if c == client {
					h.clients[client.RehearsalID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.RehearsalID]) == 0 {
				delete(h.clients, client.RehearsalID)
			}
			h.mu.Unlock()
		}
	}
}

// NotifyAnalysisStatus pushes a status update to everyone watching the
// rehearsal, here and, when Redis is configured, on the other instances.
func (h *Hub) NotifyAnalysisStatus(rehearsalId string, status string, kinds []string, errMsg string) {
	data, err := json.Marshal(StatusMessage{
		Type:        "analysis_status",
		RehearsalID: rehearsalId,
		Status:      status,
		Kinds:       kinds,
		Error:       errMsg,
		At:          time.Now(),
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal status message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(rehearsalId, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEnvelope{Origin: h.origin, RehearsalID: rehearsalId, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// deliver never blocks: a client whose buffer is full misses the update.
func (h *Hub) deliver(rehearsalId string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[rehearsalId] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{"rehearsal_id": rehearsalId})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if env.Origin == h.origin {
			continue
		}
		h.deliver(env.RehearsalID, env.Message)
	}
}
