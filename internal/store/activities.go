package store

import (
	"context"

	"workplan/internal/domain"
)

const activityColumns = `a.id, a.task_id, a.title, a.weight, a.is_done, a.status, a.target_metric, a.current_metric, a.roll_no, a.created_at, a.updated_at`

func scanActivity(row interface{ Scan(dest ...any) error }) (domain.Activity, error) {
	var activity domain.Activity
	err := row.Scan(&activity.ID, &activity.TaskID, &activity.Title, &activity.Weight, &activity.IsDone, &activity.Status, &activity.TargetMetric, &activity.CurrentMetric, &activity.RollNo, &activity.CreatedAt, &activity.UpdatedAt)
	return activity, err
}

func getActivity(ctx context.Context, q querier, id int64, lock bool) (domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities a WHERE a.id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	activity, err := scanActivity(q.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Activity{}, notFound(err, "activity", id)
	}
	return activity, nil
}

func listActivities(ctx context.Context, q querier, query string, arg int64) ([]domain.Activity, error) {
	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	activities := make([]domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (s *Store) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	return getActivity(ctx, s.DB, id, false)
}

func (s *Store) ListActivitiesByTask(ctx context.Context, taskID int64) ([]domain.Activity, error) {
	return listActivities(ctx, s.DB, `SELECT `+activityColumns+` FROM activities a WHERE a.task_id=$1 ORDER BY a.roll_no NULLS LAST, a.id`, taskID)
}

func (t *Tx) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	return getActivity(ctx, t.tx, id, false)
}

func (t *Tx) LockActivity(ctx context.Context, id int64) (domain.Activity, error) {
	return getActivity(ctx, t.tx, id, true)
}

func (t *Tx) ListActivitiesByTask(ctx context.Context, taskID int64) ([]domain.Activity, error) {
	return listActivities(ctx, t.tx, `SELECT `+activityColumns+` FROM activities a WHERE a.task_id=$1 ORDER BY a.roll_no NULLS LAST, a.id`, taskID)
}

func (t *Tx) ListActivitiesByGoal(ctx context.Context, goalID int64) ([]domain.Activity, error) {
	return listActivities(ctx, t.tx, `
		SELECT `+activityColumns+`
		FROM activities a
		JOIN tasks t ON t.id = a.task_id
		WHERE t.goal_id=$1
		ORDER BY a.id`, goalID)
}

func (t *Tx) InsertActivity(ctx context.Context, activity domain.Activity) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO activities (task_id, title, weight, is_done, status, target_metric, current_metric, roll_no)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		activity.TaskID, activity.Title, activity.Weight, activity.IsDone, activity.Status,
		jsonMap(activity.TargetMetric), jsonMap(activity.CurrentMetric), activity.RollNo,
	).Scan(&id)
	return id, err
}

func (t *Tx) UpdateActivity(ctx context.Context, activity domain.Activity) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE activities
		SET task_id=$1, title=$2, weight=$3, is_done=$4, status=$5, target_metric=$6, current_metric=$7, roll_no=$8, updated_at=NOW()
		WHERE id=$9`,
		activity.TaskID, activity.Title, activity.Weight, activity.IsDone, activity.Status,
		jsonMap(activity.TargetMetric), jsonMap(activity.CurrentMetric), activity.RollNo, activity.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("activity", activity.ID)
	}
	return nil
}

func (t *Tx) DeleteActivity(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	return err
}
