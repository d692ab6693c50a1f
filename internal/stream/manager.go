package stream

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/relay-backend/internal/analytics"
	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/eleven-am/relay-backend/internal/transcription"
	"github.com/eleven-am/relay-backend/internal/translation"
	"github.com/eleven-am/relay-backend/internal/transport"
	"github.com/google/uuid"
)

type ManagerConfig struct {
	Registry       *Registry
	Recognizer     transcription.Recognizer
	Translator     translation.Provider
	Analytics      analytics.Recorder
	Clock          clock.Clock
	SourceLanguage shared.LanguageCode
	VocabularyName string
	Log            *slog.Logger
}

// Manager owns stream lifecycle: creating sessions, starting and stopping
// pipeline runs, subscriptions, language changes and teardown on disconnect.
// The gateway dispatcher calls into it; it never reads sockets itself.
type Manager struct {
	registry   *Registry
	recognizer transcription.Recognizer
	translator translation.Provider
	analytics  analytics.Recorder
	clk        clock.Clock
	sourceLang shared.LanguageCode
	vocabulary string
	log        *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Analytics == nil {
		cfg.Analytics = analytics.Noop{}
	}
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = shared.LanguageEnglishUS
	}
	return &Manager{
		registry:   cfg.Registry,
		recognizer: cfg.Recognizer,
		translator: cfg.Translator,
		analytics:  cfg.Analytics,
		clk:        cfg.Clock,
		sourceLang: cfg.SourceLanguage,
		vocabulary: cfg.VocabularyName,
		log:        cfg.Log.With("component", "stream_manager"),
	}
}

// Create mints a new stream id and registers a session for the given audio
// source. A streamID hint from the client never reuses existing state; every
// start gets a fresh identity.
func (m *Manager) Create(source transport.Conn, target shared.LanguageCode) *Session {
	id := uuid.New().String()
	s := newSession(id, source, target, m.clk, m.log)
	m.registry.Create(id, s)

	m.analytics.Capture("stream_started", id, map[string]any{
		"targetLanguage": target.String(),
	})
	m.log.Info("stream created", "stream_id", id, "target_language", target)
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	return m.registry.Get(id)
}

// StartRun launches a fresh pipeline run for the session. Any previous run is
// aborted and its buffer discarded first; there is never more than one live
// run per stream.
func (m *Manager) StartRun(s *Session, lang shared.LanguageCode) {
	if lang.IsSet() {
		s.setTargetLanguage(lang)
	}
	ctx, buf := s.beginRun()
	go m.runPipeline(ctx, s, buf)
}

// Stop ends the broadcast: forwarding off, recognizer aborted, source socket
// closed. The registry entry survives until the socket disconnect lands.
func (m *Manager) Stop(s *Session) {
	s.stop()
	m.log.Info("transcription stopped", "stream_id", s.ID())
	m.analytics.Capture("stream_stopped", s.ID(), nil)
	_ = s.Source().Close()
}

// Pause suspends forwarding without ending the broadcast. The current run
// notices and cleans itself up; audio chunks are dropped until resume.
func (m *Manager) Pause(s *Session) {
	s.pause()
	m.log.Info("transcription paused", "stream_id", s.ID())
}

// Subscribe attaches a viewer socket to an existing stream.
func (m *Manager) Subscribe(id string, c transport.Conn) (*Session, error) {
	s, ok := m.registry.Get(id)
	if !ok {
		return nil, shared.ErrStreamNotFound
	}
	s.AddSubscriber(c)
	m.analytics.Capture("subscriber_joined", id, nil)
	m.log.Info("subscriber joined", "stream_id", id)
	return s, nil
}

// ChangeLanguage restarts the broadcast under a brand-new stream id with the
// new target language, reusing the same source socket. Existing subscribers
// are carried over to the new session and told the new id so shared links can
// be refreshed; the old registry entry is removed and its run aborted.
func (m *Manager) ChangeLanguage(s *Session, lang shared.LanguageCode) *Session {
	s.pause()

	next := m.Create(s.Source(), lang)
	for _, c := range s.takeSubscribers() {
		next.AddSubscriber(c)
		_ = c.Send(transport.NewStreamIDMessage(next.ID()))
	}

	m.registry.Delete(s.ID())
	s.stopInactivityTimer()
	s.stop()
	s.closeBuffer()

	m.StartRun(next, lang)
	m.log.Info("language changed", "old_stream_id", s.ID(), "stream_id", next.ID(), "target_language", lang)
	return next
}

// HandleSourceDisconnect tears the stream down after its broadcaster socket
// has gone away: subscribers get one end message each and are closed, the
// watchdog is cleared, the run aborted, and the registry entry removed. A
// late subscribe to the old id will miss.
func (m *Manager) HandleSourceDisconnect(s *Session) {
	m.registry.Delete(s.ID())

	for _, c := range s.takeSubscribers() {
		_ = c.Send(transport.NewEndMessage(s.ID()))
		_ = c.Close()
	}

	s.stopInactivityTimer()
	s.stop()
	s.closeBuffer()

	m.analytics.Capture("stream_ended", s.ID(), nil)
	m.log.Info("audio source disconnected", "stream_id", s.ID())
}

// HandleSubscriberDisconnect only shrinks the subscriber set; the stream
// itself survives.
func (m *Manager) HandleSubscriberDisconnect(s *Session, c transport.Conn) {
	s.RemoveSubscriber(c)
	m.log.Info("subscriber disconnected", "stream_id", s.ID())
}

// Close tears down every live stream, closing source and subscriber sockets.
// Used on server shutdown.
func (m *Manager) Close() {
	for _, info := range m.ListStreams() {
		s, ok := m.registry.Get(info.StreamID)
		if !ok {
			continue
		}
		m.HandleSourceDisconnect(s)
		_ = s.Source().Close()
	}
}

func (m *Manager) StreamCount() int {
	return m.registry.Count()
}

func (m *Manager) ListStreams() []Info {
	return m.registry.List()
}
