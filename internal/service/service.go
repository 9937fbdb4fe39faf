package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"workplan/internal/domain"
)

const (
	SettingResubmissionDeadlineDays = "resubmission_deadline_days"
	SettingReportingActive          = "reporting_active"

	defaultResubmissionDays = 7
)

type Reader interface {
	GetGoal(ctx context.Context, id int64) (domain.Goal, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	GetActivity(ctx context.Context, id int64) (domain.Activity, error)
	GetReport(ctx context.Context, id int64) (domain.Report, error)
}

// Tx is the unit of work every mutation runs in. Lock* methods take
// pessimistic row locks held until the transaction ends; SumWeights locks the
// sibling rows it reads.
type Tx interface {
	Reader

	LockBudget(ctx context.Context) error
	LockGoal(ctx context.Context, id int64) (domain.Goal, error)
	LockTask(ctx context.Context, id int64) (domain.Task, error)
	LockActivity(ctx context.Context, id int64) (domain.Activity, error)
	LockReport(ctx context.Context, id int64) (domain.Report, error)

	SumWeights(ctx context.Context, scope domain.Scope, excludeID int64) (float64, error)
	RollNoTaken(ctx context.Context, scope domain.Scope, rollNo int, excludeID int64) (bool, error)
	NextRollNo(ctx context.Context, scope domain.Scope) (int, error)

	InsertGoal(ctx context.Context, goal domain.Goal) (int64, error)
	UpdateGoal(ctx context.Context, goal domain.Goal) error
	DeleteGoal(ctx context.Context, id int64) error
	InsertTask(ctx context.Context, task domain.Task) (int64, error)
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
	InsertActivity(ctx context.Context, activity domain.Activity) (int64, error)
	UpdateActivity(ctx context.Context, activity domain.Activity) error
	DeleteActivity(ctx context.Context, id int64) error

	ListTasksByGoal(ctx context.Context, goalID int64) ([]domain.Task, error)
	ListActivitiesByTask(ctx context.Context, taskID int64) ([]domain.Activity, error)
	ListActivitiesByGoal(ctx context.Context, goalID int64) ([]domain.Activity, error)
	SetTaskProgress(ctx context.Context, id int64, progress int, status domain.TaskStatus, overridden bool) error
	SetGoalProgress(ctx context.Context, id int64, progress int, status domain.GoalStatus) error

	InsertReport(ctx context.Context, report domain.Report) (int64, error)
	UpdateReportReview(ctx context.Context, report domain.Report) error
	InsertAttachment(ctx context.Context, attachment domain.Attachment) (int64, error)
	InsertAudit(ctx context.Context, entry domain.AuditEntry) error
}

type Store interface {
	Reader
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Settings is the read-only system settings lookup.
type Settings interface {
	Setting(ctx context.Context, key string) (string, bool, error)
}

// AttachmentStorage keeps attachment bytes and hands back a stable reference.
type AttachmentStorage interface {
	Save(ctx context.Context, fileName string, body io.Reader) (ref string, size int64, err error)
	Delete(ctx context.Context, ref string) error
}

type Dependencies struct {
	Settings                Settings
	Files                   AttachmentStorage
	Logger                  *slog.Logger
	DefaultResubmissionDays int
}

type Service struct {
	store            Store
	settings         Settings
	files            AttachmentStorage
	logger           *slog.Logger
	resubmissionDays int
	now              func() time.Time
}

func New(store Store, deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	days := deps.DefaultResubmissionDays
	if days <= 0 {
		days = defaultResubmissionDays
	}
	return &Service{
		store:            store,
		settings:         deps.Settings,
		files:            deps.Files,
		logger:           logger,
		resubmissionDays: days,
		now:              time.Now,
	}
}

func (s *Service) GetGoal(ctx context.Context, id int64) (domain.Goal, error) {
	return s.store.GetGoal(ctx, id)
}

func (s *Service) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	return s.store.GetTask(ctx, id)
}

func (s *Service) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	return s.store.GetActivity(ctx, id)
}

func (s *Service) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	return s.store.GetReport(ctx, id)
}

// audit writes a best-effort audit record; failures are logged only.
func (s *Service) audit(ctx context.Context, tx Tx, entry domain.AuditEntry) {
	if err := tx.InsertAudit(ctx, entry); err != nil {
		s.logger.Warn("audit write failed",
			slog.String("action", entry.Action),
			slog.String("entity", entry.Entity),
			slog.Int64("entity_id", entry.EntityID),
			slog.String("error", err.Error()),
		)
	}
}
