package analytics

import (
	"log/slog"

	"github.com/posthog/posthog-go"
)

const appName = "relay-backend"

type Config struct {
	APIKey      string
	Host        string
	Environment string
}

type PostHogRecorder struct {
	client      posthog.Client
	environment string
	log         *slog.Logger
}

// New returns a Recorder backed by PostHog, or the noop recorder when no API
// key is configured.
func New(cfg Config, log *slog.Logger) (Recorder, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIKey == "" {
		return Noop{}, nil
	}

	var err error
	var client posthog.Client
	if cfg.Host != "" {
		client, err = posthog.NewWithConfig(cfg.APIKey, posthog.Config{Endpoint: cfg.Host})
	} else {
		client, err = posthog.NewWithConfig(cfg.APIKey, posthog.Config{})
	}
	if err != nil {
		return nil, err
	}

	env := cfg.Environment
	if env == "" {
		env = "prod"
	}

	return &PostHogRecorder{
		client:      client,
		environment: env,
		log:         log.With("component", "analytics"),
	}, nil
}

func (r *PostHogRecorder) Capture(event, distinctID string, properties map[string]any) {
	if distinctID == "" {
		distinctID = "server"
	}

	props := posthog.NewProperties().
		Set("app", appName).
		Set("environment", r.environment)
	for k, v := range properties {
		props.Set(k, v)
	}

	if err := r.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		r.log.Debug("failed to enqueue analytics event", "event", event, "error", err)
	}
}

func (r *PostHogRecorder) CaptureError(event string, err error, distinctID string, properties map[string]any) {
	props := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		props[k] = v
	}
	if err != nil {
		props["errorMessage"] = err.Error()
	}
	r.Capture(event, distinctID, props)
}

func (r *PostHogRecorder) Close() error {
	return r.client.Close()
}
