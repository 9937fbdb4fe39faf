package v1

import (
	"log/slog"

	"workplan/internal/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

const maxMultipartMemory = 32 << 20

func NewHandler(service *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/goals", h.handleCreateGoal)
	r.Get("/goals/{goalID}", h.handleGoal)
	r.Post("/goals/{goalID}", h.handleUpdateGoal)
	r.Delete("/goals/{goalID}", h.handleDeleteGoal)
	r.Post("/goals/{goalID}/tasks", h.handleCreateTask)

	r.Get("/tasks/{taskID}", h.handleTask)
	r.Post("/tasks/{taskID}", h.handleUpdateTask)
	r.Delete("/tasks/{taskID}", h.handleDeleteTask)
	r.Post("/tasks/{taskID}/activities", h.handleCreateActivity)

	r.Get("/activities/{activityID}", h.handleActivity)
	r.Post("/activities/{activityID}", h.handleUpdateActivity)
	r.Delete("/activities/{activityID}", h.handleDeleteActivity)
	r.Post("/activities/{activityID}/recompute", h.handleRecompute)
	r.Post("/activities/{activityID}/reports", h.handleSubmitReport)

	r.Get("/reports/{reportID}", h.handleReport)
	r.Post("/reports/{reportID}/review", h.handleReviewReport)

	return r
}
