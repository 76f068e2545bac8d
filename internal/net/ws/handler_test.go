package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"navwalk/internal/sim"
	"navwalk/internal/walk"
)

type staticSource struct {
	snap sim.Snapshot
}

func (s staticSource) Snapshot() sim.Snapshot { return s.snap }

func testSnapshot(tick uint64) sim.Snapshot {
	return sim.Snapshot{Tick: tick, Agents: []sim.AgentState{{State: walk.State{ID: "keeper", WalkType: walk.SelfInDistance}}}}
}

type recordingConn struct {
	mu        sync.Mutex
	messages  [][]byte
	deadlines []time.Time
	closed    bool
	fail      bool
}

func (c *recordingConn) SetWriteDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines = append(c.deadlines, deadline)
	return nil
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, append([]byte(nil), data...))
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func decodeState(t *testing.T, payload []byte) stateMessage {
	t.Helper()
	var msg stateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode state message: %v", err)
	}
	return msg
}

func TestHubSubscribeSendsInitialState(t *testing.T) {
	hub := NewHub(staticSource{snap: testSnapshot(7)}, nil, nil)
	conn := &recordingConn{}
	before := time.Now()
	if _, err := hub.Subscribe(conn); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(conn.messages) != 1 {
		t.Fatalf("expected initial state, got %d messages", len(conn.messages))
	}
	msg := decodeState(t, conn.messages[0])
	if msg.Type != "state" || msg.Tick != 7 || len(msg.Agents) != 1 || msg.Agents[0].ID != "keeper" {
		t.Fatalf("unexpected initial state %+v", msg)
	}
	if conn.deadlines[0].Before(before.Add(writeWait)) {
		t.Fatalf("expected write deadline of at least %v", writeWait)
	}
}

func TestHubSubscribeFailsWhenInitialWriteFails(t *testing.T) {
	hub := NewHub(staticSource{snap: testSnapshot(1)}, nil, nil)
	if _, err := hub.Subscribe(&recordingConn{fail: true}); err == nil {
		t.Fatalf("expected subscribe to fail")
	}
	if hub.Len() != 0 {
		t.Fatalf("expected failed subscriber not registered")
	}
}

func TestHubBroadcastDropsFailedSubscribers(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	healthy := &recordingConn{}
	broken := &recordingConn{}
	if _, err := hub.Subscribe(healthy); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := hub.Subscribe(broken); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	broken.fail = true

	hub.Broadcast(testSnapshot(3))

	if hub.Len() != 1 {
		t.Fatalf("expected broken subscriber dropped, have %d", hub.Len())
	}
	if !broken.closed {
		t.Fatalf("expected broken connection closed")
	}
	if len(healthy.messages) != 1 || decodeState(t, healthy.messages[0]).Tick != 3 {
		t.Fatalf("expected healthy subscriber to receive tick 3")
	}
}

func TestHandleStreamsSnapshots(t *testing.T) {
	hub := NewHub(staticSource{snap: testSnapshot(1)}, nil, nil)
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}
	if msg := decodeState(t, payload); msg.Tick != 1 {
		t.Fatalf("expected initial tick 1, got %d", msg.Tick)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(testSnapshot(2))
	_, payload, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}
	if msg := decodeState(t, payload); msg.Tick != 2 {
		t.Fatalf("expected broadcast tick 2, got %d", msg.Tick)
	}
}

func websocketURL(t *testing.T, baseURL string) string {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	parsed.Path = "/"
	return parsed.String()
}
