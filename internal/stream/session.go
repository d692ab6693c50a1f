package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/relay-backend/internal/audio"
	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/eleven-am/relay-backend/internal/transport"
)

const (
	// InactivityTimeout is how long a stream may go without real audio
	// before the monitor injects silence to keep the recognizer alive.
	InactivityTimeout = 14 * time.Second

	// inactivityResetDelay debounces the timer reset after a binary frame so
	// the buffer write lands before the timer is re-armed.
	inactivityResetDelay = 2 * time.Second

	audioBufferCapacity = 256
)

// Session is the unit of state for one broadcast: the audio-source socket,
// the subscriber set, the current pipeline run's buffer and cancel handle,
// and the inactivity watchdog.
type Session struct {
	id        string
	source    transport.Conn
	createdAt time.Time
	clk       clock.Clock
	log       *slog.Logger

	mu           sync.Mutex
	subscribers  map[transport.Conn]struct{}
	transcribing bool
	buffer       *audio.Buffer
	cancel       context.CancelFunc
	targetLang   shared.LanguageCode
	inactivity   *clock.Timer
	// resetDebounce is the pending delayed watchdog reset, if any, so
	// teardown can cancel it.
	resetDebounce *clock.Timer
}

func newSession(id string, source transport.Conn, target shared.LanguageCode, clk clock.Clock, log *slog.Logger) *Session {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		id:          id,
		source:      source,
		createdAt:   clk.Now(),
		clk:         clk,
		log:         log.With("stream_id", id),
		subscribers: make(map[transport.Conn]struct{}),
		targetLang:  target,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Source() transport.Conn {
	return s.source
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) TargetLanguage() shared.LanguageCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetLang
}

func (s *Session) setTargetLanguage(lang shared.LanguageCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetLang = lang
}

func (s *Session) Transcribing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcribing
}

func (s *Session) AddSubscriber(c transport.Conn) {
	if c == s.source {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[c] = struct{}{}
}

func (s *Session) RemoveSubscriber(c transport.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, c)
}

func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Broadcast sends one message to every open subscriber and to the audio
// source. Emission order is preserved per stream because the pipeline is the
// single writer.
func (s *Session) Broadcast(v any) {
	s.mu.Lock()
	conns := make([]transport.Conn, 0, len(s.subscribers))
	for c := range s.subscribers {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if c.IsOpen() {
			_ = c.Send(v)
		}
	}
	if s.source != nil && s.source.IsOpen() {
		_ = s.source.Send(v)
	}
}

// takeSubscribers empties the subscriber set and returns its former members.
func (s *Session) takeSubscribers() []transport.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]transport.Conn, 0, len(s.subscribers))
	for c := range s.subscribers {
		conns = append(conns, c)
	}
	s.subscribers = make(map[transport.Conn]struct{})
	return conns
}

// beginRun tears down any previous run and hands out a fresh context and
// audio buffer for the next one. The buffer is never reused across runs so a
// new recognizer session cannot see stale audio.
func (s *Session) beginRun() (context.Context, *audio.Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.buffer != nil {
		s.buffer.Close()
		s.buffer = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	buf := audio.NewBuffer(audioBufferCapacity)
	s.cancel = cancel
	s.buffer = buf
	s.transcribing = true
	return ctx, buf
}

// endRun is the guaranteed cleanup for one pipeline run, whatever the exit
// path. It only touches session state if the given buffer is still the
// current one; a newer run's state is left alone.
func (s *Session) endRun(buf *audio.Buffer) {
	buf.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == buf {
		s.buffer = nil
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
}

// pause stops result forwarding without ending the run; the pipeline notices
// at its next result and exits.
func (s *Session) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribing = false
}

// stop stops forwarding and aborts the in-flight recognizer invocation. The
// abort is idempotent; a second stop is a no-op.
func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribing = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) closeBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer != nil {
		s.buffer.Close()
		s.buffer = nil
	}
}

// WriteAudio appends one real audio chunk to the current run's buffer. Chunks
// arriving while paused or stopped are silently dropped.
func (s *Session) WriteAudio(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transcribing || s.buffer == nil {
		return
	}
	_ = s.buffer.Write(chunk)
}

// ScheduleInactivityReset re-arms the watchdog a moment after a real audio
// chunk, giving the buffer write time to land first.
func (s *Session) ScheduleInactivityReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetDebounce != nil {
		s.resetDebounce.Stop()
	}
	s.resetDebounce = s.clk.AfterFunc(inactivityResetDelay, s.ResetInactivityTimer)
}

// ResetInactivityTimer supersedes any pending watchdog callback with a fresh
// one InactivityTimeout from now.
func (s *Session) ResetInactivityTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inactivity != nil {
		s.inactivity.Stop()
	}
	s.inactivity = s.clk.AfterFunc(InactivityTimeout, s.handleInactivity)
}

func (s *Session) stopInactivityTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inactivity != nil {
		s.inactivity.Stop()
		s.inactivity = nil
	}
	if s.resetDebounce != nil {
		s.resetDebounce.Stop()
		s.resetDebounce = nil
	}
}

// handleInactivity fires when no real audio arrived for a full timeout
// window. While the session is transcribing it writes a minimal silence
// payload so the recognizer's network stream does not idle out, then re-arms
// itself. When paused or stopped it does nothing and stays disarmed until the
// next reset.
func (s *Session) handleInactivity() {
	s.mu.Lock()
	if !s.transcribing || s.buffer == nil {
		s.mu.Unlock()
		return
	}
	buf := s.buffer
	s.mu.Unlock()

	s.log.Debug("no audio within timeout, sending silence")
	_ = buf.Write(audio.Silence)
	s.ResetInactivityTimer()
}
