package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xavierca1/studio-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/studio-funnel/internal/usecase"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// decode reads a JSON body capped at maxBodyBytes.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return false
	}
	return true
}

// writeUseCaseError maps use case errors to responses. Only domain errors
// carry their message to the client.
func writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeValidation:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: de.Message, Details: de.Details})
		case usecase.CodeBot:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: de.Message})
		case usecase.CodeDelivery:
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: de.Message, Code: de.Code})
		case usecase.CodeNotFound:
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: de.Message})
		default:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: de.Message, Code: de.Code})
		}
		return
	}

	code := "INTERNAL_ERROR"
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		code = te.Code
	}
	slog.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("code", code),
		slog.String("error", err.Error()))
	writeErrorResponse(w, http.StatusInternalServerError, code, "Something went wrong. Please try again later.")
}

func recordOutcomes(kind, temperature string, outcomes usecase.Outcomes) {
	middleware.RecordLead(kind, temperature)
	for _, o := range outcomes {
		middleware.RecordNotification(o.Name, o.OK)
		if o.OK {
			continue
		}
		switch o.Name {
		case "store":
			middleware.RecordIntegrationError("notion")
		case "client_email", "operator_email":
			middleware.RecordIntegrationError("smtp")
		case "document":
			middleware.RecordIntegrationError("pdf")
		}
	}
}
