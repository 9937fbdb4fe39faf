package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"workplan/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		tcpostgres.WithDatabase("workplan"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(10*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("conn string: %v", err)
	}
	if err := Migrate(dbURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return New(pool)
}

func TestStoreHierarchy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	one := 1

	var goalID, taskID, activityID int64
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		goalID, err = tx.InsertGoal(ctx, domain.Goal{Title: "Reliability", Weight: 40, Status: domain.GoalStatusNotStarted, RollNo: &one})
		if err != nil {
			return err
		}
		taskID, err = tx.InsertTask(ctx, domain.Task{GoalID: goalID, Title: "Runbooks", Weight: 30, Status: domain.TaskStatusToDo, RollNo: &one})
		if err != nil {
			return err
		}
		activityID, err = tx.InsertActivity(ctx, domain.Activity{
			TaskID:       taskID,
			Title:        "Write runbook",
			Weight:       10,
			IsDone:       true,
			Status:       domain.TaskStatusDone,
			TargetMetric: map[string]any{"pages": float64(5)},
		})
		if err != nil {
			return err
		}
		_, err = tx.InsertActivity(ctx, domain.Activity{TaskID: taskID, Title: "Review", Weight: 15, Status: domain.TaskStatusToDo})
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	activity, err := s.GetActivity(ctx, activityID)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if !activity.IsDone || activity.TargetMetric["pages"] != float64(5) || len(activity.CurrentMetric) != 0 {
		t.Fatalf("unexpected activity %+v", activity)
	}

	err = s.InTx(ctx, func(tx *Tx) error {
		used, err := tx.SumWeights(ctx, domain.TaskScope(taskID), activityID)
		if err != nil {
			return err
		}
		if used != 15 {
			t.Errorf("expected 15 got %v", used)
		}
		used, err = tx.SumWeights(ctx, domain.SystemScope(), 0)
		if err != nil {
			return err
		}
		if used != 40 {
			t.Errorf("expected 40 got %v", used)
		}
		next, err := tx.NextRollNo(ctx, domain.GoalScope(goalID))
		if err != nil {
			return err
		}
		if next != 2 {
			t.Errorf("expected next roll number 2 got %d", next)
		}
		taken, err := tx.RollNoTaken(ctx, domain.GoalScope(goalID), 1, 0)
		if err != nil {
			return err
		}
		if !taken {
			t.Errorf("expected roll number 1 to be taken")
		}
		all, err := tx.ListActivitiesByGoal(ctx, goalID)
		if err != nil {
			return err
		}
		if len(all) != 2 {
			t.Errorf("expected 2 activities got %d", len(all))
		}
		return tx.SetTaskProgress(ctx, taskID, 40, domain.TaskStatusInProgress, false)
	})
	if err != nil {
		t.Fatalf("budget queries: %v", err)
	}

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Progress != 40 || task.Status != domain.TaskStatusInProgress {
		t.Fatalf("unexpected task %+v", task)
	}

	if err := s.InTx(ctx, func(tx *Tx) error { return tx.DeleteGoal(ctx, goalID) }); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if _, err := s.GetActivity(ctx, activityID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cascade delete got %v", err)
	}
}

func TestStoreRollbackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var goalID int64
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		goalID, err = tx.InsertGoal(ctx, domain.Goal{Title: "Draft", Weight: 10, Status: domain.GoalStatusNotStarted})
		if err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if _, err := s.GetGoal(ctx, goalID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected rollback got %v", err)
	}
}

func TestStoreUniqueRollNo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	three := 3

	insert := func() error {
		return s.InTx(ctx, func(tx *Tx) error {
			_, err := tx.InsertGoal(ctx, domain.Goal{Title: "G", Weight: 5, Status: domain.GoalStatusNotStarted, RollNo: &three})
			return err
		})
	}
	if err := insert(); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := insert(); !errors.Is(err, domain.ErrDuplicateRollNo) {
		t.Fatalf("expected ErrDuplicateRollNo got %v", err)
	}
}

func TestStoreLockTimeoutIsBusy(t *testing.T) {
	s := newTestStore(t)
	s.LockTimeout = 200 * time.Millisecond
	ctx := context.Background()

	var goalID int64
	if err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		goalID, err = tx.InsertGoal(ctx, domain.Goal{Title: "Contended", Weight: 10, Status: domain.GoalStatusNotStarted})
		return err
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.InTx(ctx, func(tx *Tx) error {
			if _, err := tx.LockGoal(ctx, goalID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.LockGoal(ctx, goalID)
		return err
	})
	close(release)
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}
}

func TestStoreReportsAuditSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var reportID int64
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		reportID, err = tx.InsertReport(ctx, domain.Report{
			ActivityID:  99,
			UserID:      5,
			Narrative:   "done",
			MetricsData: map[string]any{"visits": float64(3)},
			Status:      domain.ReportStatusPending,
			NewStatus:   domain.TaskStatusDone,
		})
		if err != nil {
			return err
		}
		if _, err := tx.InsertAttachment(ctx, domain.Attachment{ReportID: reportID, FileName: "a.txt", ContentType: "text/plain", Size: 4, StorageRef: "ref"}); err != nil {
			return err
		}
		// a failing audit insert must leave the transaction usable
		if err := tx.InsertAudit(ctx, domain.AuditEntry{Action: "x", Entity: "report", EntityID: reportID, Details: map[string]any{"bad": "\u0000"}}); err == nil {
			t.Errorf("expected audit insert to fail on a NUL byte")
		}
		return tx.InsertAudit(ctx, domain.AuditEntry{UserID: 5, Action: "approve_report", Entity: "report", EntityID: reportID})
	})
	if err != nil {
		t.Fatalf("insert report: %v", err)
	}

	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if report.Status != domain.ReportStatusPending || len(report.Attachments) != 1 || report.MetricsData["visits"] != float64(3) {
		t.Fatalf("unexpected report %+v", report)
	}
	entries, err := s.ListAudit(ctx, "report", reportID)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "approve_report" {
		t.Fatalf("unexpected audit %+v", entries)
	}

	days, ok, err := s.Setting(ctx, "resubmission_deadline_days")
	if err != nil || !ok || days != "7" {
		t.Fatalf("expected seeded setting got %q %v %v", days, ok, err)
	}
	if err := s.PutSetting(ctx, "reporting_active", "false"); err != nil {
		t.Fatalf("put setting: %v", err)
	}
	active, _, _ := s.Setting(ctx, "reporting_active")
	if active != "false" {
		t.Fatalf("expected false got %q", active)
	}
	if _, ok, err := s.Setting(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing setting")
	}
}
