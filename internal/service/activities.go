package service

import (
	"context"

	"workplan/internal/domain"
	"workplan/internal/progress"
)

type ActivityInput struct {
	TaskID        int64
	Title         string
	Weight        float64
	IsDone        bool
	Status        domain.ActivityStatus
	TargetMetric  map[string]any
	CurrentMetric map[string]any
	RollNo        *int
}

type ActivityUpdate struct {
	TaskID        *int64
	Title         *string
	Weight        *float64
	IsDone        *bool
	Status        *domain.ActivityStatus
	TargetMetric  map[string]any
	CurrentMetric map[string]any
	RollNo        *int
}

func (s *Service) CreateActivity(ctx context.Context, input ActivityInput) (domain.Activity, error) {
	if !progress.ValidWeight(input.Weight) {
		return domain.Activity{}, domain.ErrInvalidWeight
	}
	if input.Status != "" && !progress.ValidTaskStatus(input.Status) {
		return domain.Activity{}, domain.ErrInvalidStatus
	}
	// a Done status on create marks the activity done
	isDone := input.IsDone || input.Status == domain.TaskStatusDone
	var activity domain.Activity
	err := s.store.InTx(ctx, func(tx Tx) error {
		path, err := s.lockTasks(ctx, tx, input.TaskID)
		if err != nil {
			return err
		}
		task := path.tasks[input.TaskID]
		scope := domain.TaskScope(task.ID)
		if err := s.reserveWeight(ctx, tx, scope, task.Weight, input.Weight, 0); err != nil {
			return err
		}
		rollNo, err := s.resolveRollNo(ctx, tx, scope, input.RollNo, 0)
		if err != nil {
			return err
		}
		id, err := tx.InsertActivity(ctx, domain.Activity{
			TaskID:        task.ID,
			Title:         input.Title,
			Weight:        input.Weight,
			IsDone:        isDone,
			Status:        progress.ActivityStatus(isDone, input.Status),
			TargetMetric:  input.TargetMetric,
			CurrentMetric: input.CurrentMetric,
			RollNo:        rollNo,
		})
		if err != nil {
			return err
		}
		if err := s.rollupTask(ctx, tx, task.ID); err != nil {
			return err
		}
		activity, err = tx.GetActivity(ctx, id)
		return err
	})
	return activity, err
}

func (s *Service) UpdateActivity(ctx context.Context, id int64, update ActivityUpdate) (domain.Activity, error) {
	if update.Weight != nil && !progress.ValidWeight(*update.Weight) {
		return domain.Activity{}, domain.ErrInvalidWeight
	}
	if update.Status != nil && !progress.ValidTaskStatus(*update.Status) {
		return domain.Activity{}, domain.ErrInvalidStatus
	}
	var activity domain.Activity
	err := s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		targetTaskID := current.TaskID
		if update.TaskID != nil {
			targetTaskID = *update.TaskID
		}
		path, err := s.lockTasks(ctx, tx, current.TaskID, targetTaskID)
		if err != nil {
			return err
		}
		locked, err := tx.LockActivity(ctx, id)
		if err != nil {
			return err
		}
		if locked.TaskID != current.TaskID {
			return domain.ErrBusy
		}
		next := locked
		moved := targetTaskID != locked.TaskID
		target := path.tasks[targetTaskID]
		scope := domain.TaskScope(targetTaskID)

		if update.Weight != nil {
			next.Weight = *update.Weight
		}
		if moved || next.Weight != locked.Weight {
			if err := s.reserveWeight(ctx, tx, scope, target.Weight, next.Weight, id); err != nil {
				return err
			}
		}
		next.TaskID = targetTaskID

		switch {
		case update.RollNo != nil && (moved || !sameRollNo(locked.RollNo, update.RollNo)):
			if next.RollNo, err = s.resolveRollNo(ctx, tx, scope, update.RollNo, id); err != nil {
				return err
			}
		case moved:
			if next.RollNo, err = s.keepRollNo(ctx, tx, scope, locked.RollNo, id); err != nil {
				return err
			}
		}
		if update.Title != nil {
			next.Title = *update.Title
		}
		if update.TargetMetric != nil {
			next.TargetMetric = update.TargetMetric
		}
		if update.CurrentMetric != nil {
			next.CurrentMetric = update.CurrentMetric
		}
		requested := locked.Status
		if update.Status != nil {
			requested = *update.Status
			if update.IsDone == nil {
				next.IsDone = requested == domain.TaskStatusDone
			}
		}
		if update.IsDone != nil {
			next.IsDone = *update.IsDone
		}
		next.Status = progress.ActivityStatus(next.IsDone, requested)

		if err := tx.UpdateActivity(ctx, next); err != nil {
			return err
		}
		if err := s.rollupTask(ctx, tx, targetTaskID); err != nil {
			return err
		}
		if moved {
			if err := s.rollupTask(ctx, tx, locked.TaskID); err != nil {
				return err
			}
		}
		activity, err = tx.GetActivity(ctx, id)
		return err
	})
	return activity, err
}

// DeleteActivity frees the activity's weight and rolls its former task up.
func (s *Service) DeleteActivity(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.lockTasks(ctx, tx, current.TaskID); err != nil {
			return err
		}
		locked, err := tx.LockActivity(ctx, id)
		if err != nil {
			return err
		}
		if locked.TaskID != current.TaskID {
			return domain.ErrBusy
		}
		if err := tx.DeleteActivity(ctx, id); err != nil {
			return err
		}
		return s.rollupAfterDelete(ctx, tx, locked.TaskID)
	})
}
