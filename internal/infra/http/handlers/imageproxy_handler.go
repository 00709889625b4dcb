package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/xavierca1/studio-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/studio-funnel/internal/infra/imageproxy"
)

type ImageSource interface {
	Get(ctx context.Context, rawURL string) (*imageproxy.Entry, error)
}

type ImageProxyHandler struct {
	Images ImageSource
}

func NewImageProxyHandler(images ImageSource) *ImageProxyHandler {
	return &ImageProxyHandler{Images: images}
}

// GET /image-proxy?url=
func (h *ImageProxyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_URL", "url is required")
		return
	}

	e, err := h.Images.Get(r.Context(), raw)
	switch {
	case errors.Is(err, imageproxy.ErrInvalidURL):
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_URL", "Invalid url")
		return
	case errors.Is(err, imageproxy.ErrHostForbidden):
		writeErrorResponse(w, http.StatusForbidden, "HOST_NOT_ALLOWED", "Host not allowed")
		return
	case err != nil:
		slog.Warn("image proxy failed", slog.String("url", raw), slog.String("error", err.Error()))
		middleware.RecordIntegrationError("media")
		writeErrorResponse(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Image unavailable")
		return
	}

	ct := e.ContentType
	if ct == "" {
		ct = http.DetectContentType(e.Data)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Data)))
	w.Header().Set("Cache-Control", "public, max-age=1800")
	w.WriteHeader(http.StatusOK)
	w.Write(e.Data)
}
