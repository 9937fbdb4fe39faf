package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"workplan/internal/domain"
	"workplan/internal/progress"
)

const ActionApproveReport = "approve_report"

type ReportInput struct {
	ActivityID  int64
	Narrative   string
	MetricsData map[string]any
	NewStatus   domain.ActivityStatus
}

type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type ReviewInput struct {
	Status       domain.ReportStatus
	AdminComment string
}

// SubmitReport stores a Pending report and its attachments in one
// transaction. Attachment files written before a failure are removed again.
func (s *Service) SubmitReport(ctx context.Context, actor domain.Actor, input ReportInput, uploads []Upload) (domain.Report, error) {
	if !progress.ValidTaskStatus(input.NewStatus) {
		return domain.Report{}, domain.ErrInvalidStatus
	}
	if len(uploads) > 0 && s.files == nil {
		return domain.Report{}, errors.New("attachment storage not configured")
	}
	var report domain.Report
	saved := make([]string, 0, len(uploads))
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetActivity(ctx, input.ActivityID); err != nil {
			return err
		}
		id, err := tx.InsertReport(ctx, domain.Report{
			ActivityID:  input.ActivityID,
			UserID:      actor.UserID,
			Narrative:   input.Narrative,
			MetricsData: input.MetricsData,
			Status:      domain.ReportStatusPending,
			NewStatus:   input.NewStatus,
		})
		if err != nil {
			return err
		}
		for _, upload := range uploads {
			ref, size, err := s.files.Save(ctx, upload.FileName, upload.Body)
			if err != nil {
				return err
			}
			saved = append(saved, ref)
			if _, err := tx.InsertAttachment(ctx, domain.Attachment{
				ReportID:    id,
				FileName:    upload.FileName,
				ContentType: upload.ContentType,
				Size:        size,
				StorageRef:  ref,
			}); err != nil {
				return err
			}
		}
		report, err = tx.GetReport(ctx, id)
		return err
	})
	if err != nil {
		s.discardFiles(ctx, saved)
		return domain.Report{}, err
	}
	return report, nil
}

// ReviewReport moves a Pending report to Approved or Rejected. Approval
// applies the requested status to the activity and rolls progress up in the
// same transaction; rejection only schedules a resubmission deadline.
func (s *Service) ReviewReport(ctx context.Context, actor domain.Actor, reportID int64, review ReviewInput) (domain.Report, error) {
	if review.Status != domain.ReportStatusApproved && review.Status != domain.ReportStatusRejected {
		return domain.Report{}, domain.ErrInvalidReviewStatus
	}
	now := s.now()
	var days int
	if review.Status == domain.ReportStatusRejected {
		var err error
		if days, err = s.resubmissionDeadlineDays(ctx); err != nil {
			return domain.Report{}, err
		}
	}

	var report domain.Report
	err := s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		if current.Status != domain.ReportStatusPending {
			return domain.ErrReportAlreadyReviewed
		}
		next := current
		next.Status = review.Status
		next.AdminComment = review.AdminComment
		next.ReviewedBy = &actor.UserID
		next.ReviewedAt = &now
		if review.Status == domain.ReportStatusRejected {
			deadline := now.AddDate(0, 0, days)
			next.ResubmissionDeadline = &deadline
		}
		if err := tx.UpdateReportReview(ctx, next); err != nil {
			return err
		}
		if review.Status == domain.ReportStatusApproved {
			if err := s.applyApproval(ctx, tx, actor, next); err != nil {
				return err
			}
		}
		report, err = tx.GetReport(ctx, reportID)
		return err
	})
	return report, err
}

func (s *Service) applyApproval(ctx context.Context, tx Tx, actor domain.Actor, report domain.Report) error {
	current, err := tx.GetActivity(ctx, report.ActivityID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("approved report references a deleted activity",
			slog.Int64("report_id", report.ID),
			slog.Int64("activity_id", report.ActivityID),
		)
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.lockTasks(ctx, tx, current.TaskID); err != nil {
		return err
	}
	activity, err := tx.LockActivity(ctx, report.ActivityID)
	if err != nil {
		return err
	}
	if activity.TaskID != current.TaskID {
		return domain.ErrBusy
	}
	previous := activity.Status
	activity.IsDone = report.NewStatus == domain.TaskStatusDone
	activity.Status = progress.ActivityStatus(activity.IsDone, report.NewStatus)
	if err := tx.UpdateActivity(ctx, activity); err != nil {
		return err
	}
	if err := s.recomputeActivity(ctx, tx, activity.ID); err != nil {
		return err
	}
	s.audit(ctx, tx, domain.AuditEntry{
		UserID:   actor.UserID,
		Action:   ActionApproveReport,
		Entity:   "activity",
		EntityID: activity.ID,
		Details: map[string]any{
			"reportId":       report.ID,
			"previousStatus": string(previous),
			"newStatus":      string(activity.Status),
		},
	})
	return nil
}

// ReportingActive reports whether new report submissions are accepted.
// Enforcing it is up to the caller.
func (s *Service) ReportingActive(ctx context.Context) (bool, error) {
	if s.settings == nil {
		return true, nil
	}
	value, ok, err := s.settings.Setting(ctx, SettingReportingActive)
	if err != nil || !ok {
		return true, err
	}
	active, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		s.logger.Warn("invalid reporting_active setting", slog.String("value", value))
		return true, nil
	}
	return active, nil
}

func (s *Service) resubmissionDeadlineDays(ctx context.Context) (int, error) {
	if s.settings == nil {
		return s.resubmissionDays, nil
	}
	value, ok, err := s.settings.Setting(ctx, SettingResubmissionDeadlineDays)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.resubmissionDays, nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || days < 0 {
		s.logger.Warn("invalid resubmission_deadline_days setting", slog.String("value", value))
		return s.resubmissionDays, nil
	}
	return days, nil
}

func (s *Service) discardFiles(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.files.Delete(ctx, ref); err != nil {
			s.logger.Error("failed to remove orphaned attachment",
				slog.String("ref", ref),
				slog.String("error", err.Error()),
			)
		}
	}
}
