package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor abstracts *sql.DB and *sql.Tx so a repository method can run
// either standalone or inside a caller-owned transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// Lock namespaces for pg_advisory_xact_lock so different flows never
// collide on the same key space.
const (
	lockClassGroupGeneration   = 1
	lockClassBracketGeneration = 2
	lockClassStageAdvancement  = 3
)

// acquireXactLock takes a transaction-scoped advisory lock. It blocks until
// the lock is granted and releases automatically at commit or rollback.
func acquireXactLock(ctx context.Context, exec SQLExecutor, class, key int) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, class, key); err != nil {
		return fmt.Errorf("failed to acquire advisory lock (%d, %d): %w", class, key, err)
	}
	return nil
}

// LockGroupGeneration serializes match generation for one group.
func LockGroupGeneration(ctx context.Context, exec SQLExecutor, groupID int) error {
	return acquireXactLock(ctx, exec, lockClassGroupGeneration, groupID)
}

// LockBracketGeneration serializes match generation for one bracket.
func LockBracketGeneration(ctx context.Context, exec SQLExecutor, bracketID int) error {
	return acquireXactLock(ctx, exec, lockClassBracketGeneration, bracketID)
}

// LockStageAdvancement serializes couple advancement out of one stage.
func LockStageAdvancement(ctx context.Context, exec SQLExecutor, stageID int) error {
	return acquireXactLock(ctx, exec, lockClassStageAdvancement, stageID)
}
