package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrWeightBudgetExceeded  = errors.New("weight budget exceeded")
	ErrInvalidWeight         = errors.New("invalid weight")
	ErrDuplicateRollNo       = errors.New("duplicate roll number")
	ErrInvalidRollNo         = errors.New("roll number must be positive")
	ErrForbiddenOverride     = errors.New("status override not permitted")
	ErrBusy                  = errors.New("resource busy, retry later")
	ErrReportAlreadyReviewed = errors.New("report already reviewed")
	ErrInvalidReviewStatus   = errors.New("invalid review status")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrReportingClosed       = errors.New("reporting is closed")
)

// WeightBudgetError reports how much weight was requested against the room
// left in a scope.
type WeightBudgetError struct {
	Scope     Scope
	Requested float64
	Used      float64
	Capacity  float64
}

func (e *WeightBudgetError) Error() string {
	return fmt.Sprintf("%s weight %.2f exceeds remaining budget %.2f (used %.2f of %.2f)",
		e.Scope.Level, e.Requested, e.Remaining(), e.Used, e.Capacity)
}

func (e *WeightBudgetError) Is(target error) bool {
	return target == ErrWeightBudgetExceeded
}

func (e *WeightBudgetError) Remaining() float64 {
	remaining := e.Capacity - e.Used
	if remaining < 0 {
		return 0
	}
	return remaining
}

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type DuplicateRollNoError struct {
	Scope  Scope
	RollNo int
}

func (e *DuplicateRollNoError) Error() string {
	return fmt.Sprintf("roll number %d already used in %s scope", e.RollNo, e.Scope.Level)
}

func (e *DuplicateRollNoError) Is(target error) bool {
	return target == ErrDuplicateRollNo
}
