package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"reddit-embed-go/internal/client"
	"reddit-embed-go/internal/metrics"
	"reddit-embed-go/internal/service"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"data":{"children":[{"data":{"title":"t","selftext":"s"}}]}}]`))
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rc := client.NewRedditClient(cfg, logger, nil)
	svc, err := service.NewPreviewServiceForTest(rc, cfg, logger, nil)
	if err != nil {
		t.Fatalf("NewPreviewServiceForTest: %v", err)
	}

	preview := NewPreviewHandler(svc, logger)
	health := NewHealthHandler(cfg, "test")

	e := echo.New()
	RegisterRoutes(e, preview, health)

	tests := []struct {
		name       string
		method     string
		path       string
		userAgent  string
		wantStatus int
	}{
		{"GET /healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"GET /embed/status", http.MethodGet, "/embed/status", "", http.StatusOK},
		{"browser post", http.MethodGet, "/r/test/comments/abc/title/", "Mozilla/5.0", http.StatusTemporaryRedirect},
		{"browser root", http.MethodGet, "/", "", http.StatusTemporaryRedirect},
		{"browser HEAD", http.MethodHead, "/r/test/comments/abc/", "", http.StatusTemporaryRedirect},
		{"discord post", http.MethodGet, "/r/test/comments/abc/title/", discordUA, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRegisterMetrics(t *testing.T) {
	m := metrics.New()
	m.PreviewsTotal.WithLabelValues(metrics.OutcomeRendered).Inc()

	t.Run("enabled", func(t *testing.T) {
		cfg := testConfig("https://reddit.com")
		cfg.Metrics.Enabled = true
		cfg.Metrics.Path = "/metrics"

		e := echo.New()
		RegisterMetrics(e, cfg, m)

		req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "reddit_embed_previews_total") {
			t.Error("expected reddit_embed_previews_total in exposition output")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig("https://reddit.com")
		cfg.Metrics.Path = "/metrics"

		e := echo.New()
		RegisterMetrics(e, cfg, m)

		req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
