package translation

import (
	"context"

	"github.com/eleven-am/relay-backend/internal/shared"
)

// Metadata is trace context attached to a translation call for telemetry.
type Metadata struct {
	StreamID  string
	SessionID string
	TraceID   string
}

type Request struct {
	Text       string
	SourceLang shared.LanguageCode
	TargetLang shared.LanguageCode
	// Context is the previously translated chunk, passed so the model keeps
	// already-shown subtitles stable.
	Context  string
	Metadata Metadata
}

// Provider translates one chunk of recognized text. Implementations are
// swappable; the pipeline only depends on this contract.
type Provider interface {
	Translate(ctx context.Context, req Request) (string, error)
}
