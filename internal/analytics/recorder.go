// Package analytics is the usage-telemetry boundary. The core only talks to
// Recorder; deployments without an API key run with the noop implementation.
package analytics

type Recorder interface {
	Capture(event, distinctID string, properties map[string]any)
	CaptureError(event string, err error, distinctID string, properties map[string]any)
	Close() error
}

type Noop struct{}

func (Noop) Capture(string, string, map[string]any)             {}
func (Noop) CaptureError(string, error, string, map[string]any) {}
func (Noop) Close() error                                       { return nil }
