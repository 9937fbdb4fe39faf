package v1

import (
	"time"

	"workplan/internal/domain"
)

const dateLayout = "2006-01-02"

type goalResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	GroupID   *int64    `json:"group_id"`
	Weight    float64   `json:"weight"`
	Progress  int       `json:"progress"`
	Status    string    `json:"status"`
	RollNo    *int      `json:"roll_no"`
	StartDate *string   `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

type taskResponse struct {
	ID               int64     `json:"id"`
	GoalID           int64     `json:"goal_id"`
	Title            string    `json:"title"`
	Weight           float64   `json:"weight"`
	Progress         int       `json:"progress"`
	Status           string    `json:"status"`
	StatusOverridden bool      `json:"status_overridden"`
	AssigneeID       *int64    `json:"assignee_id"`
	RollNo           *int      `json:"roll_no"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type activityResponse struct {
	ID            int64          `json:"id"`
	TaskID        int64          `json:"task_id"`
	Title         string         `json:"title"`
	Weight        float64        `json:"weight"`
	IsDone        bool           `json:"is_done"`
	Status        string         `json:"status"`
	TargetMetric  map[string]any `json:"target_metric"`
	CurrentMetric map[string]any `json:"current_metric"`
	RollNo        *int           `json:"roll_no"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type reportResponse struct {
	ID                   int64                `json:"id"`
	ActivityID           int64                `json:"activity_id"`
	UserID               int64                `json:"user_id"`
	Narrative            string               `json:"narrative"`
	MetricsData          map[string]any       `json:"metrics_data"`
	Status               string               `json:"status"`
	NewStatus            string               `json:"new_status"`
	AdminComment         string               `json:"admin_comment"`
	ResubmissionDeadline *time.Time           `json:"resubmission_deadline"`
	ReviewedBy           *int64               `json:"reviewed_by"`
	ReviewedAt           *time.Time           `json:"reviewed_at"`
	CreatedAt            time.Time            `json:"created_at"`
	Attachments          []attachmentResponse `json:"attachments"`
}

type attachmentResponse struct {
	ID          int64  `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func mapGoal(goal domain.Goal) goalResponse {
	return goalResponse{
		ID:        goal.ID,
		Title:     goal.Title,
		GroupID:   goal.GroupID,
		Weight:    goal.Weight,
		Progress:  goal.Progress,
		Status:    string(goal.Status),
		RollNo:    goal.RollNo,
		StartDate: formatDate(goal.StartDate),
		EndDate:   formatDate(goal.EndDate),
		UpdatedAt: goal.UpdatedAt,
	}
}

func mapTask(task domain.Task) taskResponse {
	return taskResponse{
		ID:               task.ID,
		GoalID:           task.GoalID,
		Title:            task.Title,
		Weight:           task.Weight,
		Progress:         task.Progress,
		Status:           string(task.Status),
		StatusOverridden: task.StatusOverridden,
		AssigneeID:       task.AssigneeID,
		RollNo:           task.RollNo,
		UpdatedAt:        task.UpdatedAt,
	}
}

func mapActivity(activity domain.Activity) activityResponse {
	return activityResponse{
		ID:            activity.ID,
		TaskID:        activity.TaskID,
		Title:         activity.Title,
		Weight:        activity.Weight,
		IsDone:        activity.IsDone,
		Status:        string(activity.Status),
		TargetMetric:  nonNilMap(activity.TargetMetric),
		CurrentMetric: nonNilMap(activity.CurrentMetric),
		RollNo:        activity.RollNo,
		UpdatedAt:     activity.UpdatedAt,
	}
}

func mapReport(report domain.Report) reportResponse {
	attachments := make([]attachmentResponse, 0, len(report.Attachments))
	for _, attachment := range report.Attachments {
		attachments = append(attachments, attachmentResponse{
			ID:          attachment.ID,
			FileName:    attachment.FileName,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
		})
	}
	return reportResponse{
		ID:                   report.ID,
		ActivityID:           report.ActivityID,
		UserID:               report.UserID,
		Narrative:            report.Narrative,
		MetricsData:          nonNilMap(report.MetricsData),
		Status:               string(report.Status),
		NewStatus:            string(report.NewStatus),
		AdminComment:         report.AdminComment,
		ResubmissionDeadline: report.ResubmissionDeadline,
		ReviewedBy:           report.ReviewedBy,
		ReviewedAt:           report.ReviewedAt,
		CreatedAt:            report.CreatedAt,
		Attachments:          attachments,
	}
}

func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(dateLayout)
	return &formatted
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
