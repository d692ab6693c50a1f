package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wsPair dials an in-process websocket server and returns the client-side
// wrapper plus a channel of raw frames the server received.
func wsPair(t *testing.T) (*WSConn, <-chan []byte, func()) {
	t.Helper()

	received := make(chan []byte, 16)
	done := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			select {
			case received <- data:
			case <-done:
				return
			}
		}
	}))

	wsURL := "ws" + server.URL[4:]
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	conn := NewWSConn(ws, testLogger())
	cleanup := func() {
		_ = conn.Close()
		close(done)
		server.Close()
	}
	return conn, received, cleanup
}

func TestWSConnSendDeliversJSON(t *testing.T) {
	conn, received, cleanup := wsPair(t)
	defer cleanup()

	if err := conn.Send(NewStreamIDMessage("abc")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case data := <-received:
		var msg StreamIDMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("server received invalid JSON: %v", err)
		}
		if msg.Type != MessageTypeStreamID || msg.StreamID != "abc" {
			t.Errorf("unexpected frame %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("frame never arrived")
	}
}

func TestWSConnSendPreservesOrder(t *testing.T) {
	conn, received, cleanup := wsPair(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		if err := conn.Send(NewStreamIDMessage(string(rune('a' + i)))); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		select {
		case data := <-received:
			var msg StreamIDMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if want := string(rune('a' + i)); msg.StreamID != want {
				t.Errorf("frame %d: expected %q, got %q", i, want, msg.StreamID)
			}
		case <-time.After(time.Second):
			t.Fatalf("frame %d never arrived", i)
		}
	}
}

func TestWSConnCloseIsIdempotent(t *testing.T) {
	conn, _, cleanup := wsPair(t)
	defer cleanup()

	if err := conn.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if conn.IsOpen() {
		t.Error("expected IsOpen to be false after close")
	}
}

func TestWSConnSendAfterClose(t *testing.T) {
	conn, _, cleanup := wsPair(t)
	defer cleanup()

	_ = conn.Close()
	err := conn.Send(NewEndMessage("abc"))
	if !errors.Is(err, shared.ErrConnClosed) {
		t.Errorf("expected ErrConnClosed, got %v", err)
	}
}
