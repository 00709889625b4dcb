package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/studio-funnel/internal/infra/portfolio"
)

type PortfolioSyncer interface {
	Sync(ctx context.Context) (*portfolio.SyncResult, error)
	Migrate(ctx context.Context) (*portfolio.MigrateResult, error)
}

type PortfolioReader interface {
	List(ctx context.Context) ([]entity.Project, error)
	Get(ctx context.Context, slug string) (*entity.Project, error)
}

type PortfolioHandler struct {
	Sync   PortfolioSyncer
	Reader PortfolioReader
}

func NewPortfolioHandler(sync PortfolioSyncer, reader PortfolioReader) *PortfolioHandler {
	return &PortfolioHandler{Sync: sync, Reader: reader}
}

// GET /portfolio
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Reader.List(r.Context())
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GET /portfolio/{slug}
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Reader.Get(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, portfolio.ErrNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Project not found")
		return
	}
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /portfolio/refresh
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.Sync.Sync(r.Context())
	middleware.RecordSyncRun(err == nil)
	if err != nil {
		slog.Error("portfolio refresh failed", slog.String("error", err.Error()))
		middleware.RecordIntegrationError("notion")
		writeErrorResponse(w, http.StatusBadGateway, "SYNC_FAILED", "Portfolio sync failed. The cache was left unchanged.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /portfolio/migrate-images
func (h *PortfolioHandler) MigrateImages(w http.ResponseWriter, r *http.Request) {
	res, err := h.Sync.Migrate(r.Context())
	if err != nil {
		slog.Error("portfolio image migration failed", slog.String("error", err.Error()))
		writeErrorResponse(w, http.StatusBadGateway, "MIGRATION_FAILED", "Image migration failed.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
