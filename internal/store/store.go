package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workplan/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
	pgUniqueViolation  = "23505"
	budgetAdvisoryLock = 0x776f726b
	defaultLockTimeout = 5 * time.Second
)

type Store struct {
	DB          *pgxpool.Pool
	LockTimeout time.Duration
}

func New(db *pgxpool.Pool) *Store {
	return &Store{DB: db, LockTimeout: defaultLockTimeout}
}

// Tx wraps one database transaction. All Lock* reads use FOR UPDATE.
type Tx struct {
	tx pgx.Tx
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InTx runs fn in a transaction bounded by the store's lock timeout. Lock
// waits that time out or deadlock surface as domain.ErrBusy.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if s.LockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", s.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return err
		}
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		return translateError(err)
	}
	return translateError(tx.Commit(ctx))
}

// LockBudget serializes writers of the system-wide goal budget.
func (t *Tx) LockBudget(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(budgetAdvisoryLock))
	return err
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrBusy, pgErr.Message)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRollNo, pgErr.ConstraintName)
		}
	}
	return err
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return err
}

// scopeSQL maps a budget scope to the table holding its members.
type scopeSQL struct {
	table  string
	parent string
}

func scopeOf(scope domain.Scope) (scopeSQL, error) {
	switch scope.Level {
	case domain.LevelGoal:
		return scopeSQL{table: "goals"}, nil
	case domain.LevelTask:
		return scopeSQL{table: "tasks", parent: "goal_id"}, nil
	case domain.LevelActivity:
		return scopeSQL{table: "activities", parent: "task_id"}, nil
	default:
		return scopeSQL{}, fmt.Errorf("unknown scope level %q", scope.Level)
	}
}

func (q scopeSQL) filter(scope domain.Scope, args []any) (string, []any) {
	if q.parent == "" {
		return "TRUE", args
	}
	args = append(args, scope.ParentID)
	return fmt.Sprintf("%s=$%d", q.parent, len(args)), args
}

// SumWeights locks the siblings of a scope and returns their summed weight,
// leaving out excludeID.
func (t *Tx) SumWeights(ctx context.Context, scope domain.Scope, excludeID int64) (float64, error) {
	q, err := scopeOf(scope)
	if err != nil {
		return 0, err
	}
	where, args := q.filter(scope, []any{excludeID})
	rows, err := t.tx.Query(ctx, fmt.Sprintf(`
		SELECT weight FROM %s
		WHERE id <> $1 AND %s
		ORDER BY id
		FOR UPDATE`, q.table, where), args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var total float64
	for rows.Next() {
		var weight float64
		if err := rows.Scan(&weight); err != nil {
			return 0, err
		}
		total += weight
	}
	return total, rows.Err()
}

func (t *Tx) RollNoTaken(ctx context.Context, scope domain.Scope, rollNo int, excludeID int64) (bool, error) {
	q, err := scopeOf(scope)
	if err != nil {
		return false, err
	}
	where, args := q.filter(scope, []any{excludeID, rollNo})
	var taken bool
	err = t.tx.QueryRow(ctx, fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE id <> $1 AND roll_no=$2 AND %s)`, q.table, where), args...).Scan(&taken)
	return taken, err
}

func (t *Tx) NextRollNo(ctx context.Context, scope domain.Scope) (int, error) {
	q, err := scopeOf(scope)
	if err != nil {
		return 0, err
	}
	where, args := q.filter(scope, nil)
	var next int
	err = t.tx.QueryRow(ctx, fmt.Sprintf(`SELECT COALESCE(MAX(roll_no), 0) + 1 FROM %s WHERE %s`, q.table, where), args...).Scan(&next)
	return next, err
}

func jsonMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
