package progress

import (
	"math"

	"workplan/internal/domain"
)

// Weighted returns round(100 × doneWeight / totalWeight) over the given
// activities, or 0 when they carry no weight.
func Weighted(activities []domain.Activity) int {
	var total, done float64
	for _, activity := range activities {
		total += activity.Weight
		if activity.IsDone {
			done += activity.Weight
		}
	}
	if total <= 0 {
		return 0
	}
	return clampPercent(100 * done / total)
}

// Average is the plain, unweighted mean of the tasks' stored progress.
func Average(tasks []domain.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	var sum int
	for _, task := range tasks {
		sum += task.Progress
	}
	return clampPercent(float64(sum) / float64(len(tasks)))
}

func TotalWeight(activities []domain.Activity) float64 {
	var total float64
	for _, activity := range activities {
		total += activity.Weight
	}
	return total
}

func clampPercent(value float64) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return int(math.Round(value))
}
