package store

import (
	"context"

	"workplan/internal/domain"
)

// InsertAudit writes the entry inside a savepoint so that a failed insert
// leaves the surrounding transaction usable.
func (t *Tx) InsertAudit(ctx context.Context, entry domain.AuditEntry) error {
	savepoint, err := t.tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := savepoint.Exec(ctx, `
		INSERT INTO audit_log (user_id, action, entity, entity_id, details)
		VALUES ($1,$2,$3,$4,$5)`,
		entry.UserID, entry.Action, entry.Entity, entry.EntityID, jsonMap(entry.Details),
	); err != nil {
		_ = savepoint.Rollback(ctx)
		return err
	}
	return savepoint.Commit(ctx)
}

func (s *Store) ListAudit(ctx context.Context, entity string, entityID int64) ([]domain.AuditEntry, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT user_id, action, entity, entity_id, details
		FROM audit_log WHERE entity=$1 AND entity_id=$2 ORDER BY id`, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.UserID, &entry.Action, &entry.Entity, &entry.EntityID, &entry.Details); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
