package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"heartrisk/risk"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial hub: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHubBroadcastsPredictions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	// Registration is asynchronous; keep publishing until the event lands.
	stopPublishing := make(chan struct{})
	defer close(stopPublishing)
	go func() {
		event := PredictionEvent{
			Label:        risk.AtRisk,
			Probability:  0.83,
			Threshold:    0.5,
			ModelVersion: "test-1",
			Timestamp:    time.Now(),
		}
		for {
			select {
			case <-stopPublishing:
				return
			case <-time.After(50 * time.Millisecond):
				hub.Publish(event)
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var event PredictionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("invalid event json: %v", err)
	}
	if event.Label != risk.AtRisk || event.Probability != 0.83 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHandleWebSocketAfterStop(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	// A connection arriving after Stop must be closed promptly, not parked
	// on a dispatch loop that no longer runs.
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	start := time.Now()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed")
	}
	if time.Since(start) >= 3*time.Second {
		t.Fatal("connection not closed promptly after stop")
	}
}
