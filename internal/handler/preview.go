package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"reddit-embed-go/internal/model"
	"reddit-embed-go/internal/service"
)

// htmlContentType is the exact Content-Type embedding clients receive.
const htmlContentType = "text/html;charset=UTF-8"

// PreviewHandler answers post URLs with either a redirect to Reddit or an
// Open Graph document.
type PreviewHandler struct {
	service *service.PreviewService
	logger  *slog.Logger
}

// NewPreviewHandler creates a PreviewHandler.
func NewPreviewHandler(svc *service.PreviewService, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{
		service: svc,
		logger:  logger.With("component", "preview_handler"),
	}
}

// Handle runs the preview pipeline for the request.
func (h *PreviewHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.PreviewRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
	}

	res, err := h.service.Preview(pr)
	if err != nil {
		return h.mapError(c, err)
	}

	switch res.Kind {
	case model.ResultRedirect:
		return c.Redirect(http.StatusTemporaryRedirect, res.Location)
	default:
		return c.Blob(http.StatusOK, htmlContentType, []byte(res.Body))
	}
}

func (h *PreviewHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("preview error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, model.ErrMalformedPost) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream returned an unexpected payload",
		})
	}

	var statusErr *service.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream request failed",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "upstream request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "upstream request failed",
	})
}
