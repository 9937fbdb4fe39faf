package progress

import (
	"errors"
	"math"
	"testing"

	"workplan/internal/domain"
)

func TestWeighted(t *testing.T) {
	cases := []struct {
		name       string
		activities []domain.Activity
		expect     int
	}{
		{name: "no activities", activities: nil, expect: 0},
		{name: "zero weights", activities: []domain.Activity{{Weight: 0, IsDone: true}}, expect: 0},
		{name: "one of three", activities: []domain.Activity{{Weight: 10}, {Weight: 20, IsDone: true}, {Weight: 30}}, expect: 33},
		{name: "all done", activities: []domain.Activity{{Weight: 40, IsDone: true}, {Weight: 60, IsDone: true}}, expect: 100},
		{name: "rounds half up", activities: []domain.Activity{{Weight: 1, IsDone: true}, {Weight: 1}}, expect: 50},
		{name: "two thirds", activities: []domain.Activity{{Weight: 2, IsDone: true}, {Weight: 1}}, expect: 67},
	}
	for _, tc := range cases {
		if got := Weighted(tc.activities); got != tc.expect {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.expect, got)
		}
	}
}

func TestAverage(t *testing.T) {
	tasks := []domain.Task{{Progress: 0}, {Progress: 50}, {Progress: 100}}
	if got := Average(tasks); got != 50 {
		t.Fatalf("expected 50 got %d", got)
	}
	if got := Average(nil); got != 0 {
		t.Fatalf("expected 0 got %d", got)
	}
	if got := Average([]domain.Task{{Progress: 33}, {Progress: 34}}); got != 34 {
		t.Fatalf("expected 34 got %d", got)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		progress int
		task     domain.TaskStatus
		goal     domain.GoalStatus
	}{
		{progress: 0, task: domain.TaskStatusToDo, goal: domain.GoalStatusNotStarted},
		{progress: 1, task: domain.TaskStatusInProgress, goal: domain.GoalStatusInProgress},
		{progress: 99, task: domain.TaskStatusInProgress, goal: domain.GoalStatusInProgress},
		{progress: 100, task: domain.TaskStatusDone, goal: domain.GoalStatusCompleted},
	}
	for _, tc := range cases {
		if got := TaskStatusFor(tc.progress); got != tc.task {
			t.Fatalf("task %d: expected %s got %s", tc.progress, tc.task, got)
		}
		if got := GoalStatusFor(tc.progress); got != tc.goal {
			t.Fatalf("goal %d: expected %s got %s", tc.progress, tc.goal, got)
		}
	}
}

func TestActivityStatus(t *testing.T) {
	if got := ActivityStatus(true, domain.TaskStatusToDo); got != domain.TaskStatusDone {
		t.Fatalf("done activity must be Done, got %s", got)
	}
	if got := ActivityStatus(false, domain.TaskStatusDone); got != domain.TaskStatusToDo {
		t.Fatalf("open activity cannot be Done, got %s", got)
	}
	if got := ActivityStatus(false, domain.TaskStatusInProgress); got != domain.TaskStatusInProgress {
		t.Fatalf("expected In Progress, got %s", got)
	}
}

func TestNeedsOverride(t *testing.T) {
	if !NeedsOverride(domain.TaskStatusDone, 80) {
		t.Fatalf("expected override for Done at 80")
	}
	if NeedsOverride(domain.TaskStatusDone, 100) {
		t.Fatalf("no override needed at 100")
	}
	if NeedsOverride(domain.TaskStatusInProgress, 10) {
		t.Fatalf("no override for In Progress")
	}
}

func TestCheckBudget(t *testing.T) {
	scope := domain.SystemScope()
	err := CheckBudget(scope, 10, 95, 100)
	var budgetErr *domain.WeightBudgetError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected budget error, got %v", err)
	}
	if budgetErr.Requested != 10 || budgetErr.Used != 95 || budgetErr.Capacity != 100 {
		t.Fatalf("unexpected payload %+v", budgetErr)
	}
	if !errors.Is(err, domain.ErrWeightBudgetExceeded) {
		t.Fatalf("expected ErrWeightBudgetExceeded")
	}
	if budgetErr.Remaining() != 5 {
		t.Fatalf("expected remaining 5 got %v", budgetErr.Remaining())
	}

	if err := CheckBudget(scope, 5, 95, 100); err != nil {
		t.Fatalf("exact fit rejected: %v", err)
	}
	if err := CheckBudget(scope, 0.3, 0.1+0.6, 1); err != nil {
		t.Fatalf("float rounding rejected: %v", err)
	}
	for _, w := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := CheckBudget(scope, w, 0, 100); !errors.Is(err, domain.ErrInvalidWeight) {
			t.Fatalf("weight %v: expected ErrInvalidWeight got %v", w, err)
		}
	}
}

func TestCheckCapacity(t *testing.T) {
	if err := CheckCapacity(domain.GoalScope(1), 50, 60); !errors.Is(err, domain.ErrWeightBudgetExceeded) {
		t.Fatalf("expected shrink rejection, got %v", err)
	}
	if err := CheckCapacity(domain.GoalScope(1), 60, 60); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
