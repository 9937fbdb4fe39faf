package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"workplan/internal/domain"
)

type memState struct {
	nextID      int64
	goals       map[int64]domain.Goal
	tasks       map[int64]domain.Task
	activities  map[int64]domain.Activity
	reports     map[int64]domain.Report
	attachments map[int64]domain.Attachment
	audit       []domain.AuditEntry
}

func (s memState) clone() memState {
	c := memState{
		nextID:      s.nextID,
		goals:       make(map[int64]domain.Goal, len(s.goals)),
		tasks:       make(map[int64]domain.Task, len(s.tasks)),
		activities:  make(map[int64]domain.Activity, len(s.activities)),
		reports:     make(map[int64]domain.Report, len(s.reports)),
		attachments: make(map[int64]domain.Attachment, len(s.attachments)),
		audit:       append([]domain.AuditEntry(nil), s.audit...),
	}
	for k, v := range s.goals {
		c.goals[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.activities {
		c.activities[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.attachments {
		c.attachments[k] = v
	}
	return c
}

// fakeStore runs every transaction under one mutex and restores a snapshot
// when the transaction function fails.
type fakeStore struct {
	mu    sync.Mutex
	state memState

	failAudit      bool
	failAttachment bool
	txCount        int
	progressWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: memState{}.clone()}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCount++
	snapshot := f.state.clone()
	if err := fn(&fakeTx{f: f}); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeStore) GetGoal(ctx context.Context, id int64) (domain.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{f: f}).GetGoal(ctx, id)
}

func (f *fakeStore) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{f: f}).GetTask(ctx, id)
}

func (f *fakeStore) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{f: f}).GetActivity(ctx, id)
}

func (f *fakeStore) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{f: f}).GetReport(ctx, id)
}

func (f *fakeStore) auditEntries() []domain.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AuditEntry(nil), f.state.audit...)
}

func (f *fakeStore) id() int64 {
	f.state.nextID++
	return f.state.nextID
}

type fakeTx struct {
	f *fakeStore
}

func (t *fakeTx) GetGoal(_ context.Context, id int64) (domain.Goal, error) {
	goal, ok := t.f.state.goals[id]
	if !ok {
		return domain.Goal{}, domain.NotFound("goal", id)
	}
	return goal, nil
}

func (t *fakeTx) GetTask(_ context.Context, id int64) (domain.Task, error) {
	task, ok := t.f.state.tasks[id]
	if !ok {
		return domain.Task{}, domain.NotFound("task", id)
	}
	return task, nil
}

func (t *fakeTx) GetActivity(_ context.Context, id int64) (domain.Activity, error) {
	activity, ok := t.f.state.activities[id]
	if !ok {
		return domain.Activity{}, domain.NotFound("activity", id)
	}
	return activity, nil
}

func (t *fakeTx) GetReport(_ context.Context, id int64) (domain.Report, error) {
	report, ok := t.f.state.reports[id]
	if !ok {
		return domain.Report{}, domain.NotFound("report", id)
	}
	report.Attachments = nil
	for _, attachment := range t.f.state.attachments {
		if attachment.ReportID == id {
			report.Attachments = append(report.Attachments, attachment)
		}
	}
	sort.Slice(report.Attachments, func(i, j int) bool { return report.Attachments[i].ID < report.Attachments[j].ID })
	return report, nil
}

func (t *fakeTx) LockBudget(context.Context) error { return nil }

func (t *fakeTx) LockGoal(ctx context.Context, id int64) (domain.Goal, error) {
	return t.GetGoal(ctx, id)
}

func (t *fakeTx) LockTask(ctx context.Context, id int64) (domain.Task, error) {
	return t.GetTask(ctx, id)
}

func (t *fakeTx) LockActivity(ctx context.Context, id int64) (domain.Activity, error) {
	return t.GetActivity(ctx, id)
}

func (t *fakeTx) LockReport(ctx context.Context, id int64) (domain.Report, error) {
	return t.GetReport(ctx, id)
}

type member struct {
	id     int64
	weight float64
	rollNo *int
}

func (t *fakeTx) members(scope domain.Scope) []member {
	var out []member
	switch scope.Level {
	case domain.LevelGoal:
		for _, g := range t.f.state.goals {
			out = append(out, member{g.ID, g.Weight, g.RollNo})
		}
	case domain.LevelTask:
		for _, task := range t.f.state.tasks {
			if task.GoalID == scope.ParentID {
				out = append(out, member{task.ID, task.Weight, task.RollNo})
			}
		}
	case domain.LevelActivity:
		for _, a := range t.f.state.activities {
			if a.TaskID == scope.ParentID {
				out = append(out, member{a.ID, a.Weight, a.RollNo})
			}
		}
	}
	return out
}

func (t *fakeTx) SumWeights(_ context.Context, scope domain.Scope, excludeID int64) (float64, error) {
	var total float64
	for _, m := range t.members(scope) {
		if m.id != excludeID {
			total += m.weight
		}
	}
	return total, nil
}

func (t *fakeTx) RollNoTaken(_ context.Context, scope domain.Scope, rollNo int, excludeID int64) (bool, error) {
	for _, m := range t.members(scope) {
		if m.id != excludeID && m.rollNo != nil && *m.rollNo == rollNo {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) NextRollNo(_ context.Context, scope domain.Scope) (int, error) {
	highest := 0
	for _, m := range t.members(scope) {
		if m.rollNo != nil && *m.rollNo > highest {
			highest = *m.rollNo
		}
	}
	return highest + 1, nil
}

func (t *fakeTx) InsertGoal(_ context.Context, goal domain.Goal) (int64, error) {
	goal.ID = t.f.id()
	t.f.state.goals[goal.ID] = goal
	return goal.ID, nil
}

func (t *fakeTx) UpdateGoal(_ context.Context, goal domain.Goal) error {
	current, ok := t.f.state.goals[goal.ID]
	if !ok {
		return domain.NotFound("goal", goal.ID)
	}
	goal.Progress, goal.Status = current.Progress, current.Status
	t.f.state.goals[goal.ID] = goal
	return nil
}

func (t *fakeTx) DeleteGoal(ctx context.Context, id int64) error {
	for _, task := range t.f.state.tasks {
		if task.GoalID == id {
			_ = t.DeleteTask(ctx, task.ID)
		}
	}
	delete(t.f.state.goals, id)
	return nil
}

func (t *fakeTx) InsertTask(_ context.Context, task domain.Task) (int64, error) {
	if _, ok := t.f.state.goals[task.GoalID]; !ok {
		return 0, fmt.Errorf("insert task: goal %d missing", task.GoalID)
	}
	task.ID = t.f.id()
	t.f.state.tasks[task.ID] = task
	return task.ID, nil
}

func (t *fakeTx) UpdateTask(_ context.Context, task domain.Task) error {
	current, ok := t.f.state.tasks[task.ID]
	if !ok {
		return domain.NotFound("task", task.ID)
	}
	task.Progress = current.Progress
	t.f.state.tasks[task.ID] = task
	return nil
}

func (t *fakeTx) DeleteTask(_ context.Context, id int64) error {
	for _, a := range t.f.state.activities {
		if a.TaskID == id {
			delete(t.f.state.activities, a.ID)
		}
	}
	delete(t.f.state.tasks, id)
	return nil
}

func (t *fakeTx) InsertActivity(_ context.Context, activity domain.Activity) (int64, error) {
	if _, ok := t.f.state.tasks[activity.TaskID]; !ok {
		return 0, fmt.Errorf("insert activity: task %d missing", activity.TaskID)
	}
	activity.ID = t.f.id()
	t.f.state.activities[activity.ID] = activity
	return activity.ID, nil
}

func (t *fakeTx) UpdateActivity(_ context.Context, activity domain.Activity) error {
	if _, ok := t.f.state.activities[activity.ID]; !ok {
		return domain.NotFound("activity", activity.ID)
	}
	t.f.state.activities[activity.ID] = activity
	return nil
}

func (t *fakeTx) DeleteActivity(_ context.Context, id int64) error {
	delete(t.f.state.activities, id)
	return nil
}

func (t *fakeTx) ListTasksByGoal(_ context.Context, goalID int64) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	for _, task := range t.f.state.tasks {
		if task.GoalID == goalID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (t *fakeTx) ListActivitiesByTask(_ context.Context, taskID int64) ([]domain.Activity, error) {
	activities := make([]domain.Activity, 0)
	for _, a := range t.f.state.activities {
		if a.TaskID == taskID {
			activities = append(activities, a)
		}
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })
	return activities, nil
}

func (t *fakeTx) ListActivitiesByGoal(_ context.Context, goalID int64) ([]domain.Activity, error) {
	activities := make([]domain.Activity, 0)
	for _, a := range t.f.state.activities {
		if t.f.state.tasks[a.TaskID].GoalID == goalID {
			activities = append(activities, a)
		}
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })
	return activities, nil
}

func (t *fakeTx) SetTaskProgress(_ context.Context, id int64, progress int, status domain.TaskStatus, overridden bool) error {
	task, ok := t.f.state.tasks[id]
	if !ok {
		return nil
	}
	t.f.progressWrites++
	task.Progress, task.Status, task.StatusOverridden = progress, status, overridden
	t.f.state.tasks[id] = task
	return nil
}

func (t *fakeTx) SetGoalProgress(_ context.Context, id int64, progress int, status domain.GoalStatus) error {
	goal, ok := t.f.state.goals[id]
	if !ok {
		return nil
	}
	t.f.progressWrites++
	goal.Progress, goal.Status = progress, status
	t.f.state.goals[id] = goal
	return nil
}

func (t *fakeTx) InsertReport(_ context.Context, report domain.Report) (int64, error) {
	report.ID = t.f.id()
	t.f.state.reports[report.ID] = report
	return report.ID, nil
}

func (t *fakeTx) UpdateReportReview(_ context.Context, report domain.Report) error {
	if _, ok := t.f.state.reports[report.ID]; !ok {
		return domain.NotFound("report", report.ID)
	}
	report.Attachments = nil
	t.f.state.reports[report.ID] = report
	return nil
}

func (t *fakeTx) InsertAttachment(_ context.Context, attachment domain.Attachment) (int64, error) {
	if t.f.failAttachment {
		return 0, errors.New("attachment insert failed")
	}
	attachment.ID = t.f.id()
	t.f.state.attachments[attachment.ID] = attachment
	return attachment.ID, nil
}

func (t *fakeTx) InsertAudit(_ context.Context, entry domain.AuditEntry) error {
	if t.f.failAudit {
		return errors.New("audit table unavailable")
	}
	t.f.state.audit = append(t.f.state.audit, entry)
	return nil
}

type fakeSettings map[string]string

func (s fakeSettings) Setting(_ context.Context, key string) (string, bool, error) {
	value, ok := s[key]
	return value, ok, nil
}

type fakeFiles struct {
	mu      sync.Mutex
	next    int
	files   map[string][]byte
	deleted []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[string][]byte)}
}

func (f *fakeFiles) Save(_ context.Context, fileName string, body io.Reader) (string, int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return "", 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	ref := fmt.Sprintf("ref-%d-%s", f.next, fileName)
	f.files[ref] = buf.Bytes()
	return ref, n, nil
}

func (f *fakeFiles) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, ref)
	f.deleted = append(f.deleted, ref)
	return nil
}
