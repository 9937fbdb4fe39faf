package store

import (
	"context"

	"workplan/internal/domain"
)

const goalColumns = `id, title, group_id, weight, progress, status, roll_no, start_date, end_date, created_at, updated_at`

func scanGoal(row interface{ Scan(dest ...any) error }) (domain.Goal, error) {
	var goal domain.Goal
	err := row.Scan(&goal.ID, &goal.Title, &goal.GroupID, &goal.Weight, &goal.Progress, &goal.Status, &goal.RollNo, &goal.StartDate, &goal.EndDate, &goal.CreatedAt, &goal.UpdatedAt)
	return goal, err
}

func getGoal(ctx context.Context, q querier, id int64, lock bool) (domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	goal, err := scanGoal(q.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Goal{}, notFound(err, "goal", id)
	}
	return goal, nil
}

func (s *Store) GetGoal(ctx context.Context, id int64) (domain.Goal, error) {
	return getGoal(ctx, s.DB, id, false)
}

func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY roll_no NULLS LAST, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	goals := make([]domain.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (t *Tx) GetGoal(ctx context.Context, id int64) (domain.Goal, error) {
	return getGoal(ctx, t.tx, id, false)
}

func (t *Tx) LockGoal(ctx context.Context, id int64) (domain.Goal, error) {
	return getGoal(ctx, t.tx, id, true)
}

func (t *Tx) InsertGoal(ctx context.Context, goal domain.Goal) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO goals (title, group_id, weight, progress, status, roll_no, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		goal.Title, goal.GroupID, goal.Weight, goal.Progress, goal.Status, goal.RollNo, goal.StartDate, goal.EndDate,
	).Scan(&id)
	return id, err
}

func (t *Tx) UpdateGoal(ctx context.Context, goal domain.Goal) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE goals
		SET title=$1, group_id=$2, weight=$3, roll_no=$4, start_date=$5, end_date=$6, updated_at=NOW()
		WHERE id=$7`,
		goal.Title, goal.GroupID, goal.Weight, goal.RollNo, goal.StartDate, goal.EndDate, goal.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("goal", goal.ID)
	}
	return nil
}

func (t *Tx) SetGoalProgress(ctx context.Context, id int64, progress int, status domain.GoalStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE goals SET progress=$1, status=$2, updated_at=NOW() WHERE id=$3`, progress, status, id)
	return err
}

func (t *Tx) DeleteGoal(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM goals WHERE id=$1`, id)
	return err
}
