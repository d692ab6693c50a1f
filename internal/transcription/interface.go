package transcription

import "context"

// ResultStream is one live recognizer invocation. Results is closed when the
// invocation ends for any reason; Err reports why, if anything went wrong.
type ResultStream interface {
	Results() <-chan Result
	Err() error
	Close() error
}

// Recognizer opens streaming speech-to-text sessions. The audio channel is
// the chunk sequence to transcribe; closing it signals end of input.
// Cancelling the context aborts the in-flight invocation.
type Recognizer interface {
	Start(ctx context.Context, cfg SessionConfig, audio <-chan []byte) (ResultStream, error)
}
