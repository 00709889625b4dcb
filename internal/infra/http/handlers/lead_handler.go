package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xavierca1/studio-funnel/internal/usecase"
)

type BriefUseCase interface {
	Submit(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error)
	RequestEmail(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error)
	RequestDiscussion(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error)
	Document(ctx context.Context, in usecase.BriefInput) (*usecase.BriefDocument, error)
}

type LeadHandler struct {
	Briefs BriefUseCase
}

func NewLeadHandler(briefs BriefUseCase) *LeadHandler {
	return &LeadHandler{Briefs: briefs}
}

type briefAction func(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error)

func (h *LeadHandler) handle(w http.ResponseWriter, r *http.Request, run briefAction) {
	var in usecase.BriefInput
	if !decode(w, r, &in) {
		return
	}

	out, err := run(r.Context(), in)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	recordOutcomes("brief", string(out.Temperature), out.Outcomes)
	writeJSON(w, http.StatusOK, out)
}

// POST /brief-submission
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.Briefs.Submit)
}

// POST /brief-email
func (h *LeadHandler) Email(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.Briefs.RequestEmail)
}

// POST /discussion-request
func (h *LeadHandler) Discussion(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.Briefs.RequestDiscussion)
}

// POST /brief-pdf
func (h *LeadHandler) Document(w http.ResponseWriter, r *http.Request) {
	var in usecase.BriefInput
	if !decode(w, r, &in) {
		return
	}

	doc, err := h.Briefs.Document(r.Context(), in)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	if doc.BriefID != "" {
		w.Header().Set("X-Brief-Id", doc.BriefID)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Content)
}
