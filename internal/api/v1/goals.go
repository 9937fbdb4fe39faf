package v1

import (
	"net/http"
	"strings"
	"time"

	"workplan/internal/service"
)

type goalRequest struct {
	Title     *string  `json:"title"`
	GroupID   *int64   `json:"group_id"`
	Weight    *float64 `json:"weight"`
	RollNo    *int     `json:"roll_no"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
}

func (req goalRequest) dates() (*time.Time, *time.Time, map[string]string) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, nil, map[string]string{"start_date": dateLayout}
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, nil, map[string]string{"end_date": dateLayout}
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, map[string]string{"end_date": "before start_date"}
	}
	return start, end, nil
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *Handler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title required", map[string]string{"title": "required"})
		return
	}
	if req.Weight == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "weight required", map[string]string{"weight": "required"})
		return
	}
	start, end, fields := req.dates()
	if fields != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid dates", fields)
		return
	}
	goal, err := h.service.CreateGoal(r.Context(), service.GoalInput{
		Title:     strings.TrimSpace(*req.Title),
		GroupID:   req.GroupID,
		Weight:    *req.Weight,
		RollNo:    req.RollNo,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapGoal(goal))
}

func (h *Handler) handleGoal(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathID(w, r, "goalID", "goal_id")
	if !ok {
		return
	}
	goal, err := h.service.GetGoal(r.Context(), goalID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapGoal(goal))
}

func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathID(w, r, "goalID", "goal_id")
	if !ok {
		return
	}
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title required", map[string]string{"title": "required"})
		return
	}
	start, end, fields := req.dates()
	if fields != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid dates", fields)
		return
	}
	goal, err := h.service.UpdateGoal(r.Context(), goalID, service.GoalUpdate{
		Title:     trimmed(req.Title),
		GroupID:   req.GroupID,
		Weight:    req.Weight,
		RollNo:    req.RollNo,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapGoal(goal))
}

func (h *Handler) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathID(w, r, "goalID", "goal_id")
	if !ok {
		return
	}
	if err := h.service.DeleteGoal(r.Context(), goalID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	return &t
}
