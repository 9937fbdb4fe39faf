package service

import (
	"context"
	"sort"

	"workplan/internal/domain"
	"workplan/internal/progress"
)

// reserveWeight validates that weight fits into scope next to its siblings.
// The caller must already hold the scope's parent lock so that concurrent
// inserts into the same scope serialize behind it.
func (s *Service) reserveWeight(ctx context.Context, tx Tx, scope domain.Scope, capacity, weight float64, excludeID int64) error {
	if !progress.ValidWeight(weight) {
		return domain.ErrInvalidWeight
	}
	used, err := tx.SumWeights(ctx, scope, excludeID)
	if err != nil {
		return err
	}
	return progress.CheckBudget(scope, weight, used, capacity)
}

// holdChildren rejects a new parent weight smaller than its committed children.
func (s *Service) holdChildren(ctx context.Context, tx Tx, scope domain.Scope, weight float64) error {
	committed, err := tx.SumWeights(ctx, scope, 0)
	if err != nil {
		return err
	}
	return progress.CheckCapacity(scope, weight, committed)
}

// resolveRollNo validates a requested roll number or assigns the next free one.
func (s *Service) resolveRollNo(ctx context.Context, tx Tx, scope domain.Scope, requested *int, excludeID int64) (*int, error) {
	if requested == nil {
		next, err := tx.NextRollNo(ctx, scope)
		if err != nil {
			return nil, err
		}
		return &next, nil
	}
	if *requested <= 0 {
		return nil, domain.ErrInvalidRollNo
	}
	taken, err := tx.RollNoTaken(ctx, scope, *requested, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domain.DuplicateRollNoError{Scope: scope, RollNo: *requested}
	}
	value := *requested
	return &value, nil
}

// keepRollNo carries a node's roll number into a new scope, renumbering it
// when the number is already used there.
func (s *Service) keepRollNo(ctx context.Context, tx Tx, scope domain.Scope, current *int, id int64) (*int, error) {
	if current != nil {
		taken, err := tx.RollNoTaken(ctx, scope, *current, id)
		if err != nil {
			return nil, err
		}
		if !taken {
			return current, nil
		}
	}
	return s.resolveRollNo(ctx, tx, scope, nil, id)
}

type lockedPath struct {
	goals map[int64]domain.Goal
	tasks map[int64]domain.Task
}

// lockTasks locks the given tasks together with their goals. Goals are locked
// before tasks and each level in ascending id order so that every mutation
// acquires locks in the same global order.
func (s *Service) lockTasks(ctx context.Context, tx Tx, taskIDs ...int64) (lockedPath, error) {
	taskIDs = uniqueSorted(taskIDs)
	goalIDs := make([]int64, 0, len(taskIDs))
	for _, id := range taskIDs {
		task, err := tx.GetTask(ctx, id)
		if err != nil {
			return lockedPath{}, err
		}
		goalIDs = append(goalIDs, task.GoalID)
	}
	path, err := s.lockGoals(ctx, tx, goalIDs...)
	if err != nil {
		return lockedPath{}, err
	}
	for _, id := range taskIDs {
		task, err := tx.LockTask(ctx, id)
		if err != nil {
			return lockedPath{}, err
		}
		if _, ok := path.goals[task.GoalID]; !ok {
			// moved to another goal between the read and the lock
			return lockedPath{}, domain.ErrBusy
		}
		path.tasks[id] = task
	}
	return path, nil
}

func (s *Service) lockGoals(ctx context.Context, tx Tx, goalIDs ...int64) (lockedPath, error) {
	path := lockedPath{goals: make(map[int64]domain.Goal), tasks: make(map[int64]domain.Task)}
	for _, id := range uniqueSorted(goalIDs) {
		goal, err := tx.LockGoal(ctx, id)
		if err != nil {
			return lockedPath{}, err
		}
		path.goals[id] = goal
	}
	return path, nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
