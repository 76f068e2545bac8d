package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"navwalk/internal/sim"
	"navwalk/internal/telemetry"
)

const writeWait = 10 * time.Second

// Source supplies the world state sent to new subscribers.
type Source interface {
	Snapshot() sim.Snapshot
}

type subscriberConn interface {
	SetWriteDeadline(time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type subscriber struct {
	conn subscriberConn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

type stateMessage struct {
	Type       string           `json:"type"`
	Tick       uint64           `json:"tick"`
	ServerTime int64            `json:"serverTime"`
	Agents     []sim.AgentState `json:"agents"`
}

// Hub fans world snapshots out to every connected viewer.
type Hub struct {
	source  Source
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu          sync.Mutex
	subscribers map[string]*subscriber
}

func NewHub(source Source, logger telemetry.Logger, metrics telemetry.Metrics) *Hub {
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Hub{
		source:      source,
		logger:      logger,
		metrics:     metrics,
		subscribers: make(map[string]*subscriber),
	}
}

// Subscribe registers conn and sends it the current world state. The
// returned id is used to unsubscribe.
func (h *Hub) Subscribe(conn subscriberConn) (string, error) {
	id := uuid.NewString()
	sub := &subscriber{conn: conn}
	if h.source != nil {
		data, err := marshalState(h.source.Snapshot())
		if err != nil {
			return "", err
		}
		if err := sub.write(data); err != nil {
			return "", fmt.Errorf("initial state to %s: %w", id, err)
		}
	}
	h.mu.Lock()
	h.subscribers[id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()
	h.metrics.Store("ws_subscribers", uint64(count))
	return id, nil
}

// Unsubscribe drops a subscriber and closes its connection.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	count := len(h.subscribers)
	h.mu.Unlock()
	if !ok {
		return
	}
	sub.conn.Close()
	h.metrics.Store("ws_subscribers", uint64(count))
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Broadcast sends snap to every subscriber. Subscribers whose write fails
// are dropped.
func (h *Hub) Broadcast(snap sim.Snapshot) {
	data, err := marshalState(snap)
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", id, err)
			h.Unsubscribe(id)
			continue
		}
		h.metrics.Add("ws_bytes_sent", uint64(len(data)))
	}
}

func marshalState(snap sim.Snapshot) ([]byte, error) {
	agents := snap.Agents
	if agents == nil {
		agents = []sim.AgentState{}
	}
	return json.Marshal(stateMessage{
		Type:       "state",
		Tick:       snap.Tick,
		ServerTime: time.Now().UnixMilli(),
		Agents:     agents,
	})
}
