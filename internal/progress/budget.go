package progress

import (
	"math"

	"workplan/internal/domain"
)

const (
	// Epsilon absorbs float rounding when comparing summed weights.
	Epsilon        = 1e-9
	SystemCapacity = 100.0
)

func ValidWeight(weight float64) bool {
	return weight > 0 && !math.IsInf(weight, 0) && !math.IsNaN(weight)
}

// CheckBudget accepts requested iff it is a valid weight and
// used + requested <= capacity + Epsilon.
func CheckBudget(scope domain.Scope, requested, used, capacity float64) error {
	if !ValidWeight(requested) {
		return domain.ErrInvalidWeight
	}
	if used+requested > capacity+Epsilon {
		return &domain.WeightBudgetError{Scope: scope, Requested: requested, Used: used, Capacity: capacity}
	}
	return nil
}

// CheckCapacity rejects shrinking a parent below what its children already hold.
func CheckCapacity(scope domain.Scope, capacity, committed float64) error {
	if committed > capacity+Epsilon {
		return &domain.WeightBudgetError{Scope: scope, Requested: committed, Used: 0, Capacity: capacity}
	}
	return nil
}
