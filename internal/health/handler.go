package health

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/eleven-am/relay-backend/internal/analytics"
	"github.com/eleven-am/relay-backend/internal/stream"
	"github.com/eleven-am/relay-backend/internal/transcription"
	"github.com/eleven-am/relay-backend/internal/translation"
	"github.com/labstack/echo/v4"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines         int    `json:"goroutines"`
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`
}

type StreamStats struct {
	ActiveStreams int `json:"active_streams"`
	Subscribers   int `json:"subscribers"`
	Transcribing  int `json:"transcribing"`
}

type RequestStats struct {
	TotalRequests     uint64 `json:"total_requests"`
	ActiveConnections int64  `json:"active_connections"`
}

type Stats struct {
	Streams  StreamStats  `json:"streams"`
	Requests RequestStats `json:"requests"`
	Runtime  RuntimeStats `json:"runtime"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Stats         Stats                      `json:"stats"`
	Components    map[string]ComponentStatus `json:"components"`
}

type StreamsResponse struct {
	Total   int           `json:"total"`
	Streams []stream.Info `json:"streams"`
}

type Handler struct {
	manager       *stream.Manager
	sttConfig     transcription.Config
	translatorCfg translation.OpenAIConfig
	analyticsCfg  analytics.Config
	version       string
	startTime     time.Time

	totalRequests     uint64
	activeConnections int64
}

func NewHandler(
	manager *stream.Manager,
	sttConfig transcription.Config,
	translatorCfg translation.OpenAIConfig,
	analyticsCfg analytics.Config,
	version string,
) *Handler {
	return &Handler{
		manager:       manager,
		sttConfig:     sttConfig,
		translatorCfg: translatorCfg,
		analyticsCfg:  analyticsCfg,
		version:       version,
		startTime:     time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
	e.GET("/health/streams", h.Streams)
}

func (h *Handler) IncrementRequests() {
	atomic.AddUint64(&h.totalRequests, 1)
}

func (h *Handler) IncrementConnections() {
	atomic.AddInt64(&h.activeConnections, 1)
}

func (h *Handler) DecrementConnections() {
	atomic.AddInt64(&h.activeConnections, -1)
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) Readiness(c echo.Context) error {
	components := map[string]ComponentStatus{
		"stt":         h.checkSTT(),
		"translation": h.checkTranslation(),
		"analytics":   h.checkAnalytics(),
	}

	overallStatus := h.computeOverallStatus(components)

	infos := h.manager.ListStreams()
	streamStats := StreamStats{ActiveStreams: len(infos)}
	for _, info := range infos {
		streamStats.Subscribers += info.Subscribers
		if info.Transcribing {
			streamStats.Transcribing++
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stats: Stats{
			Streams: streamStats,
			Requests: RequestStats{
				TotalRequests:     atomic.LoadUint64(&h.totalRequests),
				ActiveConnections: atomic.LoadInt64(&h.activeConnections),
			},
			Runtime: RuntimeStats{
				Goroutines:         runtime.NumGoroutine(),
				MemoryAllocMB:      memStats.Alloc / 1024 / 1024,
				MemoryTotalAllocMB: memStats.TotalAlloc / 1024 / 1024,
				MemorySysMB:        memStats.Sys / 1024 / 1024,
				NumGC:              memStats.NumGC,
			},
		},
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

func (h *Handler) Streams(c echo.Context) error {
	infos := h.manager.ListStreams()
	return c.JSON(http.StatusOK, StreamsResponse{
		Total:   len(infos),
		Streams: infos,
	})
}

func (h *Handler) checkSTT() ComponentStatus {
	if h.sttConfig.Region == "" {
		return ComponentStatus{
			Status: StatusUnhealthy,
			Error:  "recognizer region not configured",
		}
	}
	return ComponentStatus{Status: StatusHealthy}
}

func (h *Handler) checkTranslation() ComponentStatus {
	if h.translatorCfg.APIKey == "" {
		return ComponentStatus{
			Status: StatusUnhealthy,
			Error:  "translation api key not configured",
		}
	}
	return ComponentStatus{Status: StatusHealthy}
}

// checkAnalytics reports degraded rather than unhealthy; the service works
// fine without telemetry.
func (h *Handler) checkAnalytics() ComponentStatus {
	if h.analyticsCfg.APIKey == "" {
		return ComponentStatus{
			Status: StatusDegraded,
			Error:  "analytics not configured",
		}
	}
	return ComponentStatus{Status: StatusHealthy}
}

func (h *Handler) computeOverallStatus(components map[string]ComponentStatus) Status {
	overall := StatusHealthy
	for _, c := range components {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}
