package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/studio-funnel/internal/usecase"
)

type ContactUseCase interface {
	Execute(ctx context.Context, in usecase.ContactInput) (*usecase.ContactOutput, error)
}

type ContactHandler struct {
	UC ContactUseCase
}

func NewContactHandler(uc ContactUseCase) *ContactHandler {
	return &ContactHandler{UC: uc}
}

// POST /contact
func (h *ContactHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var in usecase.ContactInput
	if !decode(w, r, &in) {
		return
	}

	out, err := h.UC.Execute(r.Context(), in)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	recordOutcomes("contact", "", out.Outcomes)
	writeJSON(w, http.StatusOK, out)
}
