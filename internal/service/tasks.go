package service

import (
	"context"

	"workplan/internal/domain"
	"workplan/internal/progress"
)

const ActionOverrideTaskDone = "override_task_done"

type TaskInput struct {
	GoalID     int64
	Title      string
	Weight     float64
	AssigneeID *int64
	RollNo     *int
}

type TaskUpdate struct {
	GoalID     *int64
	Title      *string
	Weight     *float64
	AssigneeID *int64
	RollNo     *int
	Status     *domain.TaskStatus
}

func (s *Service) CreateTask(ctx context.Context, input TaskInput) (domain.Task, error) {
	if !progress.ValidWeight(input.Weight) {
		return domain.Task{}, domain.ErrInvalidWeight
	}
	var task domain.Task
	err := s.store.InTx(ctx, func(tx Tx) error {
		goal, err := tx.LockGoal(ctx, input.GoalID)
		if err != nil {
			return err
		}
		scope := domain.GoalScope(goal.ID)
		if err := s.reserveWeight(ctx, tx, scope, goal.Weight, input.Weight, 0); err != nil {
			return err
		}
		rollNo, err := s.resolveRollNo(ctx, tx, scope, input.RollNo, 0)
		if err != nil {
			return err
		}
		id, err := tx.InsertTask(ctx, domain.Task{
			GoalID:     goal.ID,
			Title:      input.Title,
			Weight:     input.Weight,
			Status:     domain.TaskStatusToDo,
			AssigneeID: input.AssigneeID,
			RollNo:     rollNo,
		})
		if err != nil {
			return err
		}
		if err := s.rollupGoal(ctx, tx, goal.ID); err != nil {
			return err
		}
		task, err = tx.GetTask(ctx, id)
		return err
	})
	return task, err
}

// UpdateTask changes a task's fields, weight, goal or status. Requesting Done
// while the live progress is below 100 is an override that needs the
// management permission; it keeps the progress and is audited.
func (s *Service) UpdateTask(ctx context.Context, actor domain.Actor, id int64, update TaskUpdate) (domain.Task, error) {
	if update.Weight != nil && !progress.ValidWeight(*update.Weight) {
		return domain.Task{}, domain.ErrInvalidWeight
	}
	if update.Status != nil && !progress.ValidTaskStatus(*update.Status) {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	var task domain.Task
	err := s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		targetGoalID := current.GoalID
		if update.GoalID != nil {
			targetGoalID = *update.GoalID
		}
		path, err := s.lockGoals(ctx, tx, current.GoalID, targetGoalID)
		if err != nil {
			return err
		}
		locked, err := tx.LockTask(ctx, id)
		if err != nil {
			return err
		}
		if locked.GoalID != current.GoalID {
			return domain.ErrBusy
		}
		next := locked
		moved := targetGoalID != locked.GoalID
		scope := domain.GoalScope(targetGoalID)

		if update.Weight != nil {
			next.Weight = *update.Weight
		}
		if moved || next.Weight != locked.Weight {
			if err := s.reserveWeight(ctx, tx, scope, path.goals[targetGoalID].Weight, next.Weight, id); err != nil {
				return err
			}
		}
		if next.Weight < locked.Weight {
			if err := s.holdChildren(ctx, tx, domain.TaskScope(id), next.Weight); err != nil {
				return err
			}
		}
		next.GoalID = targetGoalID

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
		if update.AssigneeID != nil {
			next.AssigneeID = update.AssigneeID
		}

		var overrideProgress *int
		if update.Status != nil {
			live, err := liveTaskProgress(ctx, tx, id)
			if err != nil {
				return err
			}
			if progress.NeedsOverride(*update.Status, live) {
				if !actor.CanManage {
					return domain.ErrForbiddenOverride
				}
				next.Status = domain.TaskStatusDone
				next.StatusOverridden = true
				overrideProgress = &live
			} else {
				next.Status = progress.TaskStatusFor(live)
				next.StatusOverridden = false
			}
		}

		if err := tx.UpdateTask(ctx, next); err != nil {
			return err
		}
		if overrideProgress != nil {
			s.audit(ctx, tx, domain.AuditEntry{
				UserID:   actor.UserID,
				Action:   ActionOverrideTaskDone,
				Entity:   "task",
				EntityID: id,
				Details:  map[string]any{"computedProgress": *overrideProgress},
			})
		}
		if err := s.rollupTask(ctx, tx, id); err != nil {
			return err
		}
		if moved {
			if err := s.rollupGoal(ctx, tx, locked.GoalID); err != nil {
				return err
			}
		}
		task, err = tx.GetTask(ctx, id)
		return err
	})
	return task, err
}

// DeleteTask removes the task and its activities and rolls its goal up again.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		path, err := s.lockTasks(ctx, tx, id)
		if err != nil {
			return err
		}
		goalID := path.tasks[id].GoalID
		if err := tx.DeleteTask(ctx, id); err != nil {
			return err
		}
		return s.rollupGoal(ctx, tx, goalID)
	})
}
