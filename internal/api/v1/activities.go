package v1

import (
	"net/http"
	"strings"

	"workplan/internal/domain"
	"workplan/internal/service"
)

type activityRequest struct {
	TaskID        *int64         `json:"task_id"`
	Title         *string        `json:"title"`
	Weight        *float64       `json:"weight"`
	IsDone        *bool          `json:"is_done"`
	Status        *string        `json:"status"`
	TargetMetric  map[string]any `json:"target_metric"`
	CurrentMetric map[string]any `json:"current_metric"`
	RollNo        *int           `json:"roll_no"`
}

func (req activityRequest) status() *domain.ActivityStatus {
	if req.Status == nil {
		return nil
	}
	status := domain.ActivityStatus(*req.Status)
	return &status
}

func (h *Handler) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskID", "task_id")
	if !ok {
		return
	}
	var req activityRequest
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
	input := service.ActivityInput{
		TaskID:        taskID,
		Title:         strings.TrimSpace(*req.Title),
		Weight:        *req.Weight,
		TargetMetric:  req.TargetMetric,
		CurrentMetric: req.CurrentMetric,
		RollNo:        req.RollNo,
	}
	if status := req.status(); status != nil {
		input.Status = *status
	}
	if req.IsDone != nil {
		input.IsDone = *req.IsDone
	}
	activity, err := h.service.CreateActivity(r.Context(), input)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapActivity(activity))
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := pathID(w, r, "activityID", "activity_id")
	if !ok {
		return
	}
	activity, err := h.service.GetActivity(r.Context(), activityID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapActivity(activity))
}

func (h *Handler) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := pathID(w, r, "activityID", "activity_id")
	if !ok {
		return
	}
	var req activityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title required", map[string]string{"title": "required"})
		return
	}
	activity, err := h.service.UpdateActivity(r.Context(), activityID, service.ActivityUpdate{
		TaskID:        req.TaskID,
		Title:         trimmed(req.Title),
		Weight:        req.Weight,
		IsDone:        req.IsDone,
		Status:        req.status(),
		TargetMetric:  req.TargetMetric,
		CurrentMetric: req.CurrentMetric,
		RollNo:        req.RollNo,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapActivity(activity))
}

func (h *Handler) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := pathID(w, r, "activityID", "activity_id")
	if !ok {
		return
	}
	if err := h.service.DeleteActivity(r.Context(), activityID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	activityID, ok := pathID(w, r, "activityID", "activity_id")
	if !ok {
		return
	}
	if err := h.service.Recompute(r.Context(), activityID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
