package progress

import "workplan/internal/domain"

func TaskStatusFor(progress int) domain.TaskStatus {
	switch {
	case progress <= 0:
		return domain.TaskStatusToDo
	case progress >= 100:
		return domain.TaskStatusDone
	default:
		return domain.TaskStatusInProgress
	}
}

func GoalStatusFor(progress int) domain.GoalStatus {
	switch {
	case progress <= 0:
		return domain.GoalStatusNotStarted
	case progress >= 100:
		return domain.GoalStatusCompleted
	default:
		return domain.GoalStatusInProgress
	}
}

// ActivityStatus derives the label stored next to isDone. Done is reserved
// for completed activities; an open activity keeps the requested open label.
func ActivityStatus(isDone bool, requested domain.ActivityStatus) domain.ActivityStatus {
	if isDone {
		return domain.TaskStatusDone
	}
	if requested == domain.TaskStatusInProgress {
		return domain.TaskStatusInProgress
	}
	return domain.TaskStatusToDo
}

func ValidTaskStatus(status domain.TaskStatus) bool {
	switch status {
	case domain.TaskStatusToDo, domain.TaskStatusInProgress, domain.TaskStatusDone:
		return true
	default:
		return false
	}
}

// NeedsOverride reports whether forcing Done on a task with the given live
// progress bypasses the derived status.
func NeedsOverride(requested domain.TaskStatus, liveProgress int) bool {
	return requested == domain.TaskStatusDone && liveProgress < 100
}
