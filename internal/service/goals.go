package service

import (
	"context"
	"time"

	"workplan/internal/domain"
	"workplan/internal/progress"
)

type GoalInput struct {
	Title     string
	GroupID   *int64
	Weight    float64
	RollNo    *int
	StartDate *time.Time
	EndDate   *time.Time
}

type GoalUpdate struct {
	Title     *string
	GroupID   *int64
	Weight    *float64
	RollNo    *int
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateGoal adds a goal to the shared 100-point system budget.
func (s *Service) CreateGoal(ctx context.Context, input GoalInput) (domain.Goal, error) {
	if !validGoalWeight(input.Weight) {
		return domain.Goal{}, domain.ErrInvalidWeight
	}
	var goal domain.Goal
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockBudget(ctx); err != nil {
			return err
		}
		scope := domain.SystemScope()
		if err := s.reserveWeight(ctx, tx, scope, progress.SystemCapacity, input.Weight, 0); err != nil {
			return err
		}
		rollNo, err := s.resolveRollNo(ctx, tx, scope, input.RollNo, 0)
		if err != nil {
			return err
		}
		id, err := tx.InsertGoal(ctx, domain.Goal{
			Title:     input.Title,
			GroupID:   input.GroupID,
			Weight:    input.Weight,
			Progress:  0,
			Status:    domain.GoalStatusNotStarted,
			RollNo:    rollNo,
			StartDate: input.StartDate,
			EndDate:   input.EndDate,
		})
		if err != nil {
			return err
		}
		goal, err = tx.GetGoal(ctx, id)
		return err
	})
	return goal, err
}

func (s *Service) UpdateGoal(ctx context.Context, id int64, update GoalUpdate) (domain.Goal, error) {
	if update.Weight != nil && !validGoalWeight(*update.Weight) {
		return domain.Goal{}, domain.ErrInvalidWeight
	}
	var goal domain.Goal
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockBudget(ctx); err != nil {
			return err
		}
		current, err := tx.LockGoal(ctx, id)
		if err != nil {
			return err
		}
		next := current
		scope := domain.SystemScope()
		if update.Weight != nil && *update.Weight != current.Weight {
			if err := s.reserveWeight(ctx, tx, scope, progress.SystemCapacity, *update.Weight, id); err != nil {
				return err
			}
			if err := s.holdChildren(ctx, tx, domain.GoalScope(id), *update.Weight); err != nil {
				return err
			}
			next.Weight = *update.Weight
		}
		if update.RollNo != nil && !sameRollNo(current.RollNo, update.RollNo) {
			rollNo, err := s.resolveRollNo(ctx, tx, scope, update.RollNo, id)
			if err != nil {
				return err
			}
			next.RollNo = rollNo
		}
		if update.Title != nil {
			next.Title = *update.Title
		}
		if update.GroupID != nil {
			next.GroupID = update.GroupID
		}
		if update.StartDate != nil {
			next.StartDate = update.StartDate
		}
		if update.EndDate != nil {
			next.EndDate = update.EndDate
		}
		if err := tx.UpdateGoal(ctx, next); err != nil {
			return err
		}
		goal, err = tx.GetGoal(ctx, id)
		return err
	})
	return goal, err
}

// DeleteGoal removes the goal with its tasks and activities, returning its
// weight to the system budget.
func (s *Service) DeleteGoal(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockBudget(ctx); err != nil {
			return err
		}
		if _, err := tx.LockGoal(ctx, id); err != nil {
			return err
		}
		return tx.DeleteGoal(ctx, id)
	})
}

func validGoalWeight(weight float64) bool {
	return progress.ValidWeight(weight) && weight <= progress.SystemCapacity
}

func sameRollNo(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
