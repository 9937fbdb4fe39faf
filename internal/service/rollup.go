package service

import (
	"context"
	"errors"

	"workplan/internal/domain"
	"workplan/internal/progress"
)

// Recompute rolls the progress of the activity's task and goal up from the
// activity set. It is idempotent and a vanished subtree is not an error.
func (s *Service) Recompute(ctx context.Context, activityID int64) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		return s.recomputeActivity(ctx, tx, activityID)
	})
}

func (s *Service) recomputeActivity(ctx context.Context, tx Tx, activityID int64) error {
	activity, err := tx.GetActivity(ctx, activityID)
	if err != nil {
		return ignoreVanished(err)
	}
	return s.rollupTask(ctx, tx, activity.TaskID)
}

// rollupTask recomputes one task from its activities and then its goal.
// A task without activities drops to 0.
func (s *Service) rollupTask(ctx context.Context, tx Tx, taskID int64) error {
	task, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return ignoreVanished(err)
	}
	activities, err := tx.ListActivitiesByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.writeTaskProgress(ctx, tx, task, progress.Weighted(activities)); err != nil {
		return err
	}
	return s.rollupGoal(ctx, tx, task.GoalID)
}

// rollupAfterDelete runs after an activity is deleted. When the task is left
// without activities it drops to 0 and its goal takes the unweighted average
// of its tasks; otherwise it is a regular rollup.
func (s *Service) rollupAfterDelete(ctx context.Context, tx Tx, taskID int64) error {
	task, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return ignoreVanished(err)
	}
	activities, err := tx.ListActivitiesByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if len(activities) > 0 {
		return s.rollupTask(ctx, tx, taskID)
	}
	if err := s.writeTaskProgress(ctx, tx, task, 0); err != nil {
		return err
	}
	return s.rollupGoalAverage(ctx, tx, task.GoalID)
}

// rollupGoal computes goal progress as one flat weighted roll-up over every
// activity of every task of the goal.
func (s *Service) rollupGoal(ctx context.Context, tx Tx, goalID int64) error {
	goal, err := tx.GetGoal(ctx, goalID)
	if err != nil {
		return ignoreVanished(err)
	}
	activities, err := tx.ListActivitiesByGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if progress.TotalWeight(activities) <= 0 {
		return s.rollupGoalAverage(ctx, tx, goalID)
	}
	return s.writeGoalProgress(ctx, tx, goal, progress.Weighted(activities))
}

func (s *Service) rollupGoalAverage(ctx context.Context, tx Tx, goalID int64) error {
	goal, err := tx.GetGoal(ctx, goalID)
	if err != nil {
		return ignoreVanished(err)
	}
	tasks, err := tx.ListTasksByGoal(ctx, goalID)
	if err != nil {
		return err
	}
	return s.writeGoalProgress(ctx, tx, goal, progress.Average(tasks))
}

func (s *Service) writeTaskProgress(ctx context.Context, tx Tx, task domain.Task, value int) error {
	status := progress.TaskStatusFor(value)
	overridden := task.StatusOverridden
	if overridden {
		if value >= 100 {
			overridden = false
		} else {
			status = domain.TaskStatusDone
		}
	}
	if task.Progress == value && task.Status == status && task.StatusOverridden == overridden {
		return nil
	}
	return tx.SetTaskProgress(ctx, task.ID, value, status, overridden)
}

func (s *Service) writeGoalProgress(ctx context.Context, tx Tx, goal domain.Goal, value int) error {
	status := progress.GoalStatusFor(value)
	if goal.Progress == value && goal.Status == status {
		return nil
	}
	return tx.SetGoalProgress(ctx, goal.ID, value, status)
}

// liveTaskProgress is the task progress computed from its current activities,
// independent of what is stored on the task row.
func liveTaskProgress(ctx context.Context, tx Tx, taskID int64) (int, error) {
	activities, err := tx.ListActivitiesByTask(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return progress.Weighted(activities), nil
}

func ignoreVanished(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
