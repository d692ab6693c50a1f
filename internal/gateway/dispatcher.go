package gateway

import (
	"encoding/json"
	"log/slog"

	"github.com/eleven-am/relay-backend/internal/stream"
	"github.com/eleven-am/relay-backend/internal/transport"
	"github.com/gorilla/websocket"
)

type roleKind int

const (
	roleNone roleKind = iota
	roleSource
	roleSubscriber
)

// Dispatcher owns the read side of one socket: it waits for the single
// initializing control frame, then routes every further frame according to
// the role that frame established. It is the only goroutine reading the
// connection.
type Dispatcher struct {
	manager *stream.Manager
	log     *slog.Logger
}

func NewDispatcher(manager *stream.Manager, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		manager: manager,
		log:     log.With("component", "dispatcher"),
	}
}

// Run drives one connection until it drops. It returns after disconnect
// handling is done; the caller owns nothing further.
func (d *Dispatcher) Run(conn transport.Conn) {
	role := roleNone
	var session *stream.Session

	defer func() {
		switch role {
		case roleSource:
			d.manager.HandleSourceDisconnect(session)
		case roleSubscriber:
			d.manager.HandleSubscriberDisconnect(session, conn)
		}
		_ = conn.Close()
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			// Before a role exists only a single JSON control frame is
			// acceptable; audio from an uninitialized socket is a protocol
			// violation.
			if role == roleNone {
				_ = conn.Send(transport.ErrorMessage{Error: transport.ErrInvalidMessageType})
				return
			}
			if role != roleSource {
				continue
			}
			// Let the buffer write land before the watchdog is re-armed.
			session.ScheduleInactivityReset()
			session.WriteAudio(data)

		case websocket.TextMessage:
			// Subscribers have nothing to say; whatever arrives is noise,
			// not a protocol violation.
			if role == roleSubscriber {
				d.log.Debug("ignoring message from subscriber", "stream_id", session.ID())
				continue
			}

			var msg transport.ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				d.log.Warn("malformed control frame", "error", err)
				_ = conn.Send(transport.ErrorMessage{Error: transport.ErrInvalidMessageType})
				return
			}

			if role == roleNone {
				s, r, ok := d.handleInitial(conn, msg)
				if !ok {
					return
				}
				session, role = s, r
				continue
			}

			if !d.handleControl(conn, &session, msg) {
				return
			}
		}
	}
}

// handleInitial resolves the first control frame into a role. A false return
// means the socket must be closed without disconnect handling.
func (d *Dispatcher) handleInitial(conn transport.Conn, msg transport.ClientMessage) (*stream.Session, roleKind, bool) {
	switch msg.Type {
	case transport.MessageTypeStart:
		// A streamID hint never resurrects state; every start is a new
		// stream with a freshly minted id.
		s := d.manager.Create(conn, msg.Language)
		if err := conn.Send(transport.NewStreamIDMessage(s.ID())); err != nil {
			d.manager.HandleSourceDisconnect(s)
			return nil, roleNone, false
		}
		d.manager.StartRun(s, "")
		s.ResetInactivityTimer()
		return s, roleSource, true

	case transport.MessageTypeSubscribe:
		s, err := d.manager.Subscribe(msg.StreamID, conn)
		if err != nil {
			_ = conn.Send(transport.ErrorMessage{Error: transport.ErrInvalidStreamID})
			return nil, roleNone, false
		}
		return s, roleSubscriber, true

	default:
		_ = conn.Send(transport.ErrorMessage{Error: transport.ErrInvalidMessageType})
		return nil, roleNone, false
	}
}

// handleControl routes a post-init frame from the audio source. A false
// return ends the read loop; the deferred disconnect handling still runs.
func (d *Dispatcher) handleControl(conn transport.Conn, session **stream.Session, msg transport.ClientMessage) bool {
	s := *session

	switch msg.Type {
	case transport.MessageTypeStop:
		d.manager.Stop(s)
		return false

	case transport.MessageTypePause:
		d.manager.Pause(s)
		return true

	case transport.MessageTypeStart:
		// Resume on the same stream, optionally with a new target language.
		d.manager.StartRun(s, msg.Language)
		s.ResetInactivityTimer()
		return true

	case transport.MessageTypeChangeLanguage:
		next := d.manager.ChangeLanguage(s, msg.Language)
		if err := conn.Send(transport.NewStreamIDMessage(next.ID())); err != nil {
			return false
		}
		*session = next
		next.ResetInactivityTimer()
		return true

	default:
		d.log.Warn("unknown control frame from source", "type", msg.Type, "stream_id", s.ID())
		_ = conn.Send(transport.ErrorMessage{Error: transport.ErrInvalidMessageType})
		return false
	}
}
