package stream

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/eleven-am/relay-backend/internal/transcription"
	"github.com/eleven-am/relay-backend/internal/translation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConn struct {
	mu     sync.Mutex
	sent   []any
	closed bool
}

func (c *fakeConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, v)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, io.EOF
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.sent))
	copy(out, c.sent)
	return out
}

type fakeResultStream struct {
	results chan transcription.Result
	err     error
}

func newFakeResultStream(results ...transcription.Result) *fakeResultStream {
	ch := make(chan transcription.Result, len(results)+1)
	for _, r := range results {
		ch <- r
	}
	close(ch)
	return &fakeResultStream{results: ch}
}

func (s *fakeResultStream) Results() <-chan transcription.Result { return s.results }
func (s *fakeResultStream) Err() error                           { return s.err }
func (s *fakeResultStream) Close() error                         { return nil }

type fakeRecognizer struct {
	mu      sync.Mutex
	stream  *fakeResultStream
	err     error
	configs []transcription.SessionConfig
}

func (r *fakeRecognizer) Start(ctx context.Context, cfg transcription.SessionConfig, audio <-chan []byte) (transcription.ResultStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
	if r.err != nil {
		return nil, r.err
	}
	if r.stream == nil {
		return newFakeResultStream(), nil
	}
	return r.stream, nil
}

type fakeTranslator struct {
	mu       sync.Mutex
	requests []translation.Request
	reply    func(req translation.Request) (string, error)
}

func (t *fakeTranslator) Translate(ctx context.Context, req translation.Request) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if t.reply != nil {
		return t.reply(req)
	}
	return "[" + req.TargetLang.String() + "] " + req.Text, nil
}

func newTestManager(rec *fakeRecognizer, tr *fakeTranslator, clk clock.Clock) *Manager {
	if rec == nil {
		rec = &fakeRecognizer{}
	}
	if tr == nil {
		tr = &fakeTranslator{}
	}
	return NewManager(ManagerConfig{
		Registry:       NewRegistry(),
		Recognizer:     rec,
		Translator:     tr,
		Clock:          clk,
		SourceLanguage: shared.LanguageEnglishUS,
		Log:            testLogger(),
	})
}
