package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"workplan/internal/domain"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details any               `json:"details,omitempty"`
}

type budgetDetails struct {
	Scope     string  `json:"scope"`
	ParentID  int64   `json:"parent_id,omitempty"`
	Requested float64 `json:"requested"`
	Used      float64 `json:"used"`
	Capacity  float64 `json:"capacity"`
	Remaining float64 `json:"remaining"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Fields: fields}})
}

// writeDomainError maps engine errors onto status codes. Anything unknown is
// logged and reported as an internal error.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var budgetErr *domain.WeightBudgetError
	switch {
	case errors.As(err, &budgetErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code:    "WEIGHT_BUDGET_EXCEEDED",
			Message: budgetErr.Error(),
			Details: budgetDetails{
				Scope:     string(budgetErr.Scope.Level),
				ParentID:  budgetErr.Scope.ParentID,
				Requested: budgetErr.Requested,
				Used:      budgetErr.Used,
				Capacity:  budgetErr.Capacity,
				Remaining: budgetErr.Remaining(),
			},
		}})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidWeight):
		writeError(w, http.StatusBadRequest, "INVALID_WEIGHT", err.Error(), map[string]string{"weight": "invalid"})
	case errors.Is(err, domain.ErrInvalidRollNo):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]string{"roll_no": "invalid"})
	case errors.Is(err, domain.ErrDuplicateRollNo):
		writeError(w, http.StatusConflict, "DUPLICATE_ROLL_NO", err.Error(), map[string]string{"roll_no": "taken"})
	case errors.Is(err, domain.ErrForbiddenOverride):
		writeError(w, http.StatusForbidden, "FORBIDDEN_OVERRIDE", err.Error(), nil)
	case errors.Is(err, domain.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "BUSY", domain.ErrBusy.Error(), nil)
	case errors.Is(err, domain.ErrReportAlreadyReviewed):
		writeError(w, http.StatusConflict, "ALREADY_REVIEWED", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidReviewStatus):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]string{"status": "Approved|Rejected"})
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]string{"status": "invalid"})
	case errors.Is(err, domain.ErrReportingClosed):
		writeError(w, http.StatusForbidden, "REPORTING_CLOSED", err.Error(), nil)
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
