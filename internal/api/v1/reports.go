package v1

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"workplan/internal/domain"
	"workplan/internal/service"
)

const attachmentsField = "attachments"

type reviewRequest struct {
	Status       string `json:"status"`
	AdminComment string `json:"admin_comment"`
}

// handleSubmitReport accepts a multipart form with narrative, new_status,
// an optional metrics_data JSON object and any number of attachment files.
func (h *Handler) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	activityID, ok := pathID(w, r, "activityID", "activity_id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	active, err := h.service.ReportingActive(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if !active {
		writeDomainError(w, h.logger, domain.ErrReportingClosed)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid form", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	newStatus := strings.TrimSpace(r.FormValue("new_status"))
	if newStatus == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "new_status required", map[string]string{"new_status": "required"})
		return
	}
	var metrics map[string]any
	if raw := strings.TrimSpace(r.FormValue("metrics_data")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid metrics_data", map[string]string{"metrics_data": "json object"})
			return
		}
	}

	uploads, closeAll, err := openUploads(r.MultipartForm.File[attachmentsField])
	defer closeAll()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable attachment", map[string]string{attachmentsField: "invalid"})
		return
	}

	report, err := h.service.SubmitReport(r.Context(), actor, service.ReportInput{
		ActivityID:  activityID,
		Narrative:   strings.TrimSpace(r.FormValue("narrative")),
		MetricsData: metrics,
		NewStatus:   domain.ActivityStatus(newStatus),
	}, uploads)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapReport(report))
}

func openUploads(headers []*multipart.FileHeader) ([]service.Upload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, file := range files {
			_ = file.Close()
		}
	}
	uploads := make([]service.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, closeAll, err
		}
		files = append(files, file)
		uploads = append(uploads, service.Upload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
	}
	return uploads, closeAll, nil
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := pathID(w, r, "reportID", "report_id")
	if !ok {
		return
	}
	report, err := h.service.GetReport(r.Context(), reportID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReport(report))
}

func (h *Handler) handleReviewReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := pathID(w, r, "reportID", "report_id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.CanManage {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "reviewing reports requires "+PermissionManage, nil)
		return
	}
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.service.ReviewReport(r.Context(), actor, reportID, service.ReviewInput{
		Status:       domain.ReportStatus(req.Status),
		AdminComment: strings.TrimSpace(req.AdminComment),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReport(report))
}
