package v1

import (
	"net/http"
	"strings"

	"workplan/internal/domain"
	"workplan/internal/service"
)

type taskRequest struct {
	GoalID     *int64   `json:"goal_id"`
	Title      *string  `json:"title"`
	Weight     *float64 `json:"weight"`
	AssigneeID *int64   `json:"assignee_id"`
	RollNo     *int     `json:"roll_no"`
	Status     *string  `json:"status"`
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	goalID, ok := pathID(w, r, "goalID", "goal_id")
	if !ok {
		return
	}
	var req taskRequest
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
	task, err := h.service.CreateTask(r.Context(), service.TaskInput{
		GoalID:     goalID,
		Title:      strings.TrimSpace(*req.Title),
		Weight:     *req.Weight,
		AssigneeID: req.AssigneeID,
		RollNo:     req.RollNo,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapTask(task))
}

func (h *Handler) handleTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskID", "task_id")
	if !ok {
		return
	}
	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTask(task))
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskID", "task_id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title required", map[string]string{"title": "required"})
		return
	}
	update := service.TaskUpdate{
		GoalID:     req.GoalID,
		Title:      trimmed(req.Title),
		Weight:     req.Weight,
		AssigneeID: req.AssigneeID,
		RollNo:     req.RollNo,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		update.Status = &status
	}
	task, err := h.service.UpdateTask(r.Context(), actor, taskID, update)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTask(task))
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskID", "task_id")
	if !ok {
		return
	}
	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
