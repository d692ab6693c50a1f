package stream

import (
	"sync"
	"time"

	"github.com/eleven-am/relay-backend/internal/shared"
)

// Registry is the process-wide map from stream id to live session. It is
// plain storage; lifecycle decisions belong to the Manager. Injected
// explicitly so tests can run independent instances.
type Registry struct {
	mu      sync.RWMutex
	streams map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*Session)}
}

func (r *Registry) Create(id string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[id] = s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[id]
	return s, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, id)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

type Info struct {
	StreamID       string              `json:"stream_id"`
	Subscribers    int                 `json:"subscribers"`
	Transcribing   bool                `json:"transcribing"`
	TargetLanguage shared.LanguageCode `json:"target_language,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.streams))
	for id, s := range r.streams {
		infos = append(infos, Info{
			StreamID:       id,
			Subscribers:    s.SubscriberCount(),
			Transcribing:   s.Transcribing(),
			TargetLanguage: s.TargetLanguage(),
			CreatedAt:      s.CreatedAt(),
		})
	}
	return infos
}
