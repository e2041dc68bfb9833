package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reddit-embed-go/internal/config"
	"reddit-embed-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// Every path not claimed by a service endpoint is treated as a Reddit post.
func RegisterRoutes(e *echo.Echo, preview *PreviewHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/embed/status", health.Status)

	e.Any("/*", preview.Handle)
}

// RegisterMetrics exposes the Prometheus registry when metrics are enabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}
