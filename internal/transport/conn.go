package transport

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Conn is one client socket. Send enqueues a JSON text frame; delivery order
// matches call order for a single sender. ReadMessage is owned by exactly one
// goroutine, the gateway dispatcher.
type Conn interface {
	Send(v any) error
	ReadMessage() (messageType int, data []byte, err error)
	IsOpen() bool
	Close() error
}

type outbound struct {
	messageType int
	data        []byte
}

// WSConn wraps a gorilla websocket connection with a buffered send queue and
// a single write pump, so the pipeline, the inactivity monitor and the
// dispatcher can all emit frames without racing on the socket.
type WSConn struct {
	ws   *websocket.Conn
	log  *slog.Logger
	send chan outbound

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewWSConn(ws *websocket.Conn, log *slog.Logger) *WSConn {
	if log == nil {
		log = slog.Default()
	}
	c := &WSConn{
		ws:   ws,
		log:  log,
		send: make(chan outbound, 128),
		done: make(chan struct{}),
	}

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	return c
}

func (c *WSConn) Send(v any) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return shared.ErrConnClosed
	}
	c.mu.RUnlock()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case c.send <- outbound{messageType: websocket.TextMessage, data: data}:
		return nil
	default:
		c.log.Warn("send buffer full, dropping message")
		return nil
	}
}

func (c *WSConn) ReadMessage() (int, []byte, error) {
	mt, data, err := c.ws.ReadMessage()
	if err == nil {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	}
	return mt, data, err
}

func (c *WSConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *WSConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	return c.ws.Close()
}

func (c *WSConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(msg.messageType, msg.data); err != nil {
				c.log.Debug("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
