package gateway

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/relay-backend/internal/transport"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler exposes the websocket endpoint and hands upgraded sockets to the
// dispatcher. One dispatcher Run per connection, on the handler goroutine.
type Handler struct {
	dispatcher *Dispatcher
	log        *slog.Logger
}

func NewHandler(dispatcher *Dispatcher, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		dispatcher: dispatcher,
		log:        log.With("component", "gateway"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleConnection)
}

func (h *Handler) HandleConnection(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return err
	}

	conn := transport.NewWSConn(ws, h.log)
	h.dispatcher.Run(conn)
	return nil
}
