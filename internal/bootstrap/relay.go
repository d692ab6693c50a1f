package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/relay-backend/internal/analytics"
	"github.com/eleven-am/relay-backend/internal/gateway"
	"github.com/eleven-am/relay-backend/internal/health"
	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/eleven-am/relay-backend/internal/stream"
	"github.com/eleven-am/relay-backend/internal/transcription"
	"github.com/eleven-am/relay-backend/internal/translation"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const version = "1.0.0"

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideSTTConfig(cfg *Config) transcription.Config {
	return transcription.Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
}

func ProvideTranslatorConfig(cfg *Config) translation.OpenAIConfig {
	return translation.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}
}

func ProvideAnalyticsConfig(cfg *Config) analytics.Config {
	return analytics.Config{
		APIKey:      cfg.PostHogAPIKey,
		Host:        cfg.PostHogHost,
		Environment: cfg.Environment,
	}
}

func ProvideRecognizer(cfg transcription.Config, logger *slog.Logger) (transcription.Recognizer, error) {
	return transcription.NewAWSRecognizer(context.Background(), cfg, logger)
}

func ProvideAnalytics(lc fx.Lifecycle, cfg analytics.Config, logger *slog.Logger) (analytics.Recorder, error) {
	recorder, err := analytics.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return recorder.Close()
		},
	})
	return recorder, nil
}

func ProvideTranslator(cfg translation.OpenAIConfig, recorder analytics.Recorder, logger *slog.Logger) translation.Provider {
	return translation.NewOpenAIProvider(cfg, recorder, logger)
}

func ProvideRegistry() *stream.Registry {
	return stream.NewRegistry()
}

func ProvideStreamManager(
	lc fx.Lifecycle,
	cfg *Config,
	registry *stream.Registry,
	recognizer transcription.Recognizer,
	translator translation.Provider,
	recorder analytics.Recorder,
	logger *slog.Logger,
) *stream.Manager {
	m := stream.NewManager(stream.ManagerConfig{
		Registry:       registry,
		Recognizer:     recognizer,
		Translator:     translator,
		Analytics:      recorder,
		Clock:          clock.New(),
		SourceLanguage: shared.LanguageCode(cfg.SourceLanguage),
		VocabularyName: cfg.VocabularyName,
		Log:            logger,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.Close()
			return nil
		},
	})
	return m
}

func ProvideDispatcher(manager *stream.Manager, logger *slog.Logger) *gateway.Dispatcher {
	return gateway.NewDispatcher(manager, logger)
}

func ProvideGatewayHandler(dispatcher *gateway.Dispatcher, logger *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(dispatcher, logger)
}

func RegisterRelayRoutes(e *echo.Echo, h *gateway.Handler, cfg *Config) {
	h.RegisterRoutes(e)
	e.Static("/assets", cfg.StaticDir)
	e.GET("/", func(c echo.Context) error {
		return c.File(cfg.IndexHTML)
	})
	e.GET("/stream", func(c echo.Context) error {
		return c.File(cfg.IndexHTML)
	})
	e.GET("/stream/:id", func(c echo.Context) error {
		return c.File(cfg.IndexHTML)
	})
}

var RelayModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideSTTConfig,
		ProvideTranslatorConfig,
		ProvideAnalyticsConfig,
		ProvideRecognizer,
		ProvideAnalytics,
		ProvideTranslator,
		ProvideRegistry,
		ProvideStreamManager,
		ProvideDispatcher,
		ProvideGatewayHandler,
	),
	fx.Invoke(RegisterRelayRoutes),
)

func ProvideHealthHandler(
	manager *stream.Manager,
	sttConfig transcription.Config,
	translatorCfg translation.OpenAIConfig,
	analyticsCfg analytics.Config,
) *health.Handler {
	return health.NewHandler(manager, sttConfig, translatorCfg, analyticsCfg, version)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
