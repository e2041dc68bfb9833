package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	dto "github.com/prometheus/client_model/go"

	"reddit-embed-go/internal/metrics"
)

// findRequestMetric returns the reddit_embed_http_requests_total sample whose
// labels include all of want, or nil.
func findRequestMetric(t *testing.T, m *metrics.Metrics, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != "reddit_embed_http_requests_total" {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			return metric
		}
	}
	return nil
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMetricsMiddleware_IncrementsCounter(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.Any("/*", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "https://reddit.com"+c.Request().URL.Path)
	})

	rec := serve(e, http.MethodGet, "/r/test/comments/abc/")
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}

	metric := findRequestMetric(t, m, map[string]string{"path_prefix": "/r", "status_code": "307"})
	if metric == nil {
		t.Fatal("expected reddit_embed_http_requests_total with path_prefix=/r, status_code=307")
	}
	if v := metric.GetCounter().GetValue(); v != 1 {
		t.Errorf("counter value = %v, want 1", v)
	}
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	serve(e, http.MethodGet, "/healthz")

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, f := range families {
		if f.GetName() == "reddit_embed_http_request_duration_seconds" {
			for _, metric := range f.GetMetric() {
				if metric.GetHistogram().GetSampleCount() > 0 {
					return
				}
			}
		}
	}
	t.Error("expected reddit_embed_http_request_duration_seconds with at least one sample")
}

func TestMetricsMiddleware_HTTPErrorStatus(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/r/test", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	serve(e, http.MethodGet, "/r/test")

	if findRequestMetric(t, m, map[string]string{"path_prefix": "/r", "status_code": "404"}) == nil {
		t.Error("expected reddit_embed_http_requests_total with path_prefix=/r, status_code=404")
	}
}

func TestMetricsMiddleware_UnknownMethodNormalized(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.Any("/r/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	serve(e, "XYZZY", "/r/test")

	if findRequestMetric(t, m, map[string]string{"path_prefix": "/r", "method": "other"}) == nil {
		t.Error("expected reddit_embed_http_requests_total with path_prefix=/r and method=other")
	}
}

func TestMetricsMiddleware_RouterNotFound(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	// No routes registered; request should yield 404.

	rec := serve(e, http.MethodGet, "/nonexistent")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	want := map[string]string{"path_prefix": "other", "method": "GET", "status_code": "404"}
	if findRequestMetric(t, m, want) == nil {
		t.Error("expected reddit_embed_http_requests_total with path_prefix=other, method=GET, status_code=404")
	}
}
