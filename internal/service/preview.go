// Package service implements the preview pipeline: rewrite, resolve, classify,
// fetch, extract and render.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"reddit-embed-go/internal/client"
	"reddit-embed-go/internal/config"
	"reddit-embed-go/internal/metrics"
	"reddit-embed-go/internal/model"
	"reddit-embed-go/internal/opengraph"
)

// allowedUpstreamHosts restricts which hosts previews are fetched from.
var allowedUpstreamHosts = map[string]bool{
	"reddit.com":     true,
	"www.reddit.com": true,
	"old.reddit.com": true,
}

// querySanitizer percent-encodes the characters that could end the og:url
// attribute. The query is otherwise passed through byte for byte.
var querySanitizer = strings.NewReplacer(
	`"`, "%22",
	"'", "%27",
	"<", "%3C",
	">", "%3E",
)

// UpstreamStatusError is returned when Reddit answers the content fetch with a
// non-2xx status.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// PreviewService turns inbound requests into redirects or Open Graph documents.
// It holds no per-request state and is safe for concurrent use.
type PreviewService struct {
	client  *client.RedditClient
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	baseURL *url.URL
}

// NewPreviewService creates a PreviewService.
// The metrics parameter is optional; pass nil to disable outcome counters.
func NewPreviewService(c *client.RedditClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*PreviewService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newPreviewService(c, cfg, logger, m, u), nil
}

// NewPreviewServiceForTest creates a PreviewService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewPreviewServiceForTest(c *client.RedditClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*PreviewService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	return newPreviewService(c, cfg, logger, m, u), nil
}

func newPreviewService(c *client.RedditClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, u *url.URL) *PreviewService {
	return &PreviewService{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "preview_service"),
		metrics: m,
		baseURL: u,
	}
}

// Preview runs the pipeline for one inbound request. Non-embedding clients get
// a redirect result before any content is fetched.
func (s *PreviewService) Preview(pr *model.PreviewRequest) (*model.PreviewResult, error) {
	target := s.Rewrite(pr.URL)
	s.resolveShortlink(pr.Ctx, target)
	canonical := target.String()

	if !s.IsEmbedClient(pr.Header) {
		s.count(metrics.OutcomeRedirect)
		return &model.PreviewResult{Kind: model.ResultRedirect, Location: canonical}, nil
	}

	post, err := s.fetchPost(pr.Ctx, s.ContentURL(target))
	if err != nil {
		s.count(metrics.OutcomeFailed)
		return nil, err
	}

	s.count(metrics.OutcomeRendered)
	return &model.PreviewResult{
		Kind: model.ResultDocument,
		Body: opengraph.Render(post, canonical, s.cfg.Embed.SiteName),
	}, nil
}

// Rewrite points in at the upstream: scheme and host are replaced, path and
// query are kept. in is not modified.
func (s *PreviewService) Rewrite(in *url.URL) *url.URL {
	out := *in
	out.Scheme = s.baseURL.Scheme
	out.Host = s.baseURL.Host
	out.RawQuery = querySanitizer.Replace(in.RawQuery)
	out.User = nil
	out.Fragment = ""
	out.RawFragment = ""
	return &out
}

// IsEmbedClient reports whether the User-Agent contains the configured
// embedding client token, ignoring case.
func (s *PreviewService) IsEmbedClient(header http.Header) bool {
	ua := header.Get("User-Agent")
	if ua == "" {
		return false
	}
	return strings.Contains(strings.ToLower(ua), strings.ToLower(s.cfg.Embed.ClientToken))
}

// ContentURL returns target with the JSON suffix appended to its path unless
// it is already there.
func (s *PreviewService) ContentURL(target *url.URL) string {
	u := *target
	if !strings.HasSuffix(u.Path, s.cfg.Embed.JSONSuffix) {
		u.Path += s.cfg.Embed.JSONSuffix
		u.RawPath = ""
	}
	return u.String()
}

// resolveShortlink follows the redirect of a shortlink path and replaces the
// path of target with the resolved one. Failures leave target untouched.
func (s *PreviewService) resolveShortlink(ctx context.Context, target *url.URL) {
	if !strings.Contains(target.Path, s.cfg.Embed.ShortlinkMarker) {
		return
	}

	resp, err := s.client.Get(ctx, target.String())
	if err != nil {
		s.logger.Warn("shortlink resolution failed; continuing with original path",
			"err", err,
			"path", target.Path,
		)
		s.countShortlink(metrics.ShortlinkFailed)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.FinalURL == nil || resp.FinalURL.Path == target.Path {
		s.countShortlink(metrics.ShortlinkUnchanged)
		return
	}

	s.logger.Debug("shortlink resolved",
		"from", target.Path,
		"to", resp.FinalURL.Path,
	)
	target.Path = resp.FinalURL.Path
	target.RawPath = resp.FinalURL.RawPath
	s.countShortlink(metrics.ShortlinkResolved)
}

// fetchPost downloads and decodes the post behind contentURL.
func (s *PreviewService) fetchPost(ctx context.Context, contentURL string) (*model.Post, error) {
	resp, err := s.client.Get(ctx, contentURL)
	if err != nil {
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch post: %w", &UpstreamStatusError{StatusCode: resp.StatusCode})
	}

	post, err := model.DecodePost(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return post, nil
}

func (s *PreviewService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.PreviewsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *PreviewService) countShortlink(outcome string) {
	if s.metrics != nil {
		s.metrics.ShortlinksTotal.WithLabelValues(outcome).Inc()
	}
}
