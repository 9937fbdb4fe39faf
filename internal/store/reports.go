package store

import (
	"context"

	"workplan/internal/domain"
)

const reportColumns = `id, activity_id, user_id, narrative, metrics_data, status, new_status, admin_comment, resubmission_deadline, reviewed_by, reviewed_at, created_at`

func getReport(ctx context.Context, q querier, id int64, lock bool) (domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	var report domain.Report
	err := q.QueryRow(ctx, query, id).Scan(
		&report.ID, &report.ActivityID, &report.UserID, &report.Narrative, &report.MetricsData,
		&report.Status, &report.NewStatus, &report.AdminComment, &report.ResubmissionDeadline,
		&report.ReviewedBy, &report.ReviewedAt, &report.CreatedAt,
	)
	if err != nil {
		return domain.Report{}, notFound(err, "report", id)
	}
	if lock {
		return report, nil
	}
	attachments, err := listAttachments(ctx, q, id)
	if err != nil {
		return domain.Report{}, err
	}
	report.Attachments = attachments
	return report, nil
}

func listAttachments(ctx context.Context, q querier, reportID int64) ([]domain.Attachment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, report_id, file_name, content_type, size_bytes, storage_ref, created_at
		FROM report_attachments WHERE report_id=$1 ORDER BY id`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attachments := make([]domain.Attachment, 0)
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.ReportID, &a.FileName, &a.ContentType, &a.Size, &a.StorageRef, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (s *Store) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	return getReport(ctx, s.DB, id, false)
}

func (t *Tx) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	return getReport(ctx, t.tx, id, false)
}

func (t *Tx) LockReport(ctx context.Context, id int64) (domain.Report, error) {
	return getReport(ctx, t.tx, id, true)
}

func (t *Tx) InsertReport(ctx context.Context, report domain.Report) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO reports (activity_id, user_id, narrative, metrics_data, status, new_status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		report.ActivityID, report.UserID, report.Narrative, jsonMap(report.MetricsData), report.Status, report.NewStatus,
	).Scan(&id)
	return id, err
}

func (t *Tx) UpdateReportReview(ctx context.Context, report domain.Report) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE reports
		SET status=$1, admin_comment=$2, resubmission_deadline=$3, reviewed_by=$4, reviewed_at=$5
		WHERE id=$6`,
		report.Status, report.AdminComment, report.ResubmissionDeadline, report.ReviewedBy, report.ReviewedAt, report.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("report", report.ID)
	}
	return nil
}

func (t *Tx) InsertAttachment(ctx context.Context, attachment domain.Attachment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO report_attachments (report_id, file_name, content_type, size_bytes, storage_ref)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		attachment.ReportID, attachment.FileName, attachment.ContentType, attachment.Size, attachment.StorageRef,
	).Scan(&id)
	return id, err
}
