package http

import (
	"context"
	"net/http"
	"time"

	"github.com/bmp-tn/project-admin/internal/projects/client"
	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthResponse struct {
	Status         string          `json:"status"`
	Timestamp      time.Time       `json:"timestamp"`
	Service        string          `json:"service"`
	Version        string          `json:"version"`
	ProjectService string          `json:"project_service"`
	Redis          string          `json:"redis"`
	DB             string          `json:"db"`
	Upstream       UpstreamMetrics `json:"upstream"`
}

// UpstreamMetrics summarises calls made to the Project Service.
type UpstreamMetrics struct {
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRatePct float64 `json:"error_rate_pct"`
}

// HealthDeps lists what the health check probes. A nil Pinger is reported as
// "disabled".
type HealthDeps struct {
	ServiceName    string
	Version        string
	ProjectService Pinger
	Redis          Pinger
	DB             Pinger
}

type HealthHandler struct {
	deps        HealthDeps
	pingTimeout time.Duration
}

func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps, pingTimeout: time.Second}
}

// HealthCheck always answers 200; a failing dependency only degrades the status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		Service:        h.deps.ServiceName,
		Version:        h.deps.Version,
		ProjectService: h.probe(c.Request.Context(), h.deps.ProjectService),
		Redis:          h.probe(c.Request.Context(), h.deps.Redis),
		DB:             h.probe(c.Request.Context(), h.deps.DB),
	}
	for _, s := range []string{resp.ProjectService, resp.Redis, resp.DB} {
		if s == "down" {
			resp.Status = "degraded"
		}
	}

	m := client.GetMetrics()
	resp.Upstream = UpstreamMetrics{
		Calls:        m.Calls,
		Errors:       m.Errors,
		AvgLatencyMs: m.AverageLatencyMs(),
		ErrorRatePct: m.ErrorRate(),
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
