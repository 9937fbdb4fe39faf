package store

import (
	"context"

	"workplan/internal/domain"
)

const taskColumns = `id, goal_id, title, weight, progress, status, status_overridden, assignee_id, roll_no, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }) (domain.Task, error) {
	var task domain.Task
	err := row.Scan(&task.ID, &task.GoalID, &task.Title, &task.Weight, &task.Progress, &task.Status, &task.StatusOverridden, &task.AssigneeID, &task.RollNo, &task.CreatedAt, &task.UpdatedAt)
	return task, err
}

func getTask(ctx context.Context, q querier, id int64, lock bool) (domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	task, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Task{}, notFound(err, "task", id)
	}
	return task, nil
}

func listTasksByGoal(ctx context.Context, q querier, goalID int64) ([]domain.Task, error) {
	rows, err := q.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE goal_id=$1 ORDER BY roll_no NULLS LAST, id`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	return getTask(ctx, s.DB, id, false)
}

func (s *Store) ListTasksByGoal(ctx context.Context, goalID int64) ([]domain.Task, error) {
	return listTasksByGoal(ctx, s.DB, goalID)
}

func (t *Tx) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	return getTask(ctx, t.tx, id, false)
}

func (t *Tx) LockTask(ctx context.Context, id int64) (domain.Task, error) {
	return getTask(ctx, t.tx, id, true)
}

func (t *Tx) ListTasksByGoal(ctx context.Context, goalID int64) ([]domain.Task, error) {
	return listTasksByGoal(ctx, t.tx, goalID)
}

func (t *Tx) InsertTask(ctx context.Context, task domain.Task) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tasks (goal_id, title, weight, progress, status, status_overridden, assignee_id, roll_no)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		task.GoalID, task.Title, task.Weight, task.Progress, task.Status, task.StatusOverridden, task.AssigneeID, task.RollNo,
	).Scan(&id)
	return id, err
}

func (t *Tx) UpdateTask(ctx context.Context, task domain.Task) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE tasks
		SET goal_id=$1, title=$2, weight=$3, status=$4, status_overridden=$5, assignee_id=$6, roll_no=$7, updated_at=NOW()
		WHERE id=$8`,
		task.GoalID, task.Title, task.Weight, task.Status, task.StatusOverridden, task.AssigneeID, task.RollNo, task.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("task", task.ID)
	}
	return nil
}

func (t *Tx) SetTaskProgress(ctx context.Context, id int64, progress int, status domain.TaskStatus, overridden bool) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE tasks SET progress=$1, status=$2, status_overridden=$3, updated_at=NOW()
		WHERE id=$4`, progress, status, overridden, id)
	return err
}

func (t *Tx) DeleteTask(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	return err
}
