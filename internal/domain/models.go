package domain

import "time"

type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "Not Started"
	GoalStatusInProgress GoalStatus = "In Progress"
	GoalStatusCompleted  GoalStatus = "Completed"
)

type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

// Activities share the task vocabulary.
type ActivityStatus = TaskStatus

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "Pending"
	ReportStatusApproved ReportStatus = "Approved"
	ReportStatusRejected ReportStatus = "Rejected"
)

type Level string

const (
	LevelGoal     Level = "goal"
	LevelTask     Level = "task"
	LevelActivity Level = "activity"
)

// Scope identifies the parent whose capacity a set of siblings divides.
// Goals live in the system scope (ParentID 0), tasks in a goal, activities
// in a task.
type Scope struct {
	Level    Level
	ParentID int64
}

func SystemScope() Scope {
	return Scope{Level: LevelGoal}
}

func GoalScope(goalID int64) Scope {
	return Scope{Level: LevelTask, ParentID: goalID}
}

func TaskScope(taskID int64) Scope {
	return Scope{Level: LevelActivity, ParentID: taskID}
}

type Goal struct {
	ID        int64
	Title     string
	GroupID   *int64
	Weight    float64
	Progress  int
	Status    GoalStatus
	RollNo    *int
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Task struct {
	ID               int64
	GoalID           int64
	Title            string
	Weight           float64
	Progress         int
	Status           TaskStatus
	StatusOverridden bool
	AssigneeID       *int64
	RollNo           *int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Activity struct {
	ID            int64
	TaskID        int64
	Title         string
	Weight        float64
	IsDone        bool
	Status        ActivityStatus
	TargetMetric  map[string]any
	CurrentMetric map[string]any
	RollNo        *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Report struct {
	ID                   int64
	ActivityID           int64
	UserID               int64
	Narrative            string
	MetricsData          map[string]any
	Status               ReportStatus
	NewStatus            ActivityStatus
	AdminComment         string
	ResubmissionDeadline *time.Time
	ReviewedBy           *int64
	ReviewedAt           *time.Time
	CreatedAt            time.Time
	Attachments          []Attachment
}

type Attachment struct {
	ID          int64
	ReportID    int64
	FileName    string
	ContentType string
	Size        int64
	StorageRef  string
	CreatedAt   time.Time
}

type AuditEntry struct {
	UserID   int64
	Action   string
	Entity   string
	EntityID int64
	Details  map[string]any
}

// Actor is the caller as seen by the engine after authorization.
type Actor struct {
	UserID    int64
	CanManage bool
}
