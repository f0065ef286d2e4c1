package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// MaxRetries bounds attempts for a transaction that keeps hitting a busy database.
const MaxRetries = 3

// IsBusy reports whether err is an SQLite busy/locked condition worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
	if base > time.Second {
		base = time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

func runTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	for i := range MaxRetries {
		err := runOnce(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !IsBusy(err) || i == MaxRetries-1 {
			return err
		}
		t := time.NewTimer(Backoff(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("store: cancelled during retry: %w", ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("store: max retries exceeded")
}

func runOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
