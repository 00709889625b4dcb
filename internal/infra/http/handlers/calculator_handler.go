package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/studio-funnel/internal/usecase"
)

type CalculatorUseCase interface {
	Execute(ctx context.Context, in usecase.CalculatorInput) (*usecase.CalculatorOutput, error)
}

type CalculatorHandler struct {
	UC CalculatorUseCase
}

func NewCalculatorHandler(uc CalculatorUseCase) *CalculatorHandler {
	return &CalculatorHandler{UC: uc}
}

// POST /save-calculator-lead
func (h *CalculatorHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var in usecase.CalculatorInput
	if !decode(w, r, &in) {
		return
	}

	out, err := h.UC.Execute(r.Context(), in)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	recordOutcomes("calculator", string(out.Temperature), out.Outcomes)
	writeJSON(w, http.StatusOK, out)
}
