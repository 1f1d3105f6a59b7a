// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by [*pgxpool.Pool] and [pgx.Tx].
//
// Repositories accept a DBTX so the same code runs standalone or inside a
// transaction opened by a caller that needs several writes to commit together.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner opens transactions. Both the pool and a transaction (savepoint) satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// lockTimeoutStatement renders SET LOCAL lock_timeout for wait. lock_timeout
// takes no bind parameters, and 0 disables it, so waits are clamped to 1ms.
func lockTimeoutStatement(wait time.Duration) string {
	milliseconds := wait.Milliseconds()
	if milliseconds < 1 {
		milliseconds = 1
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", milliseconds)
}

// DB is a pool: it queries directly and opens transactions.
type DB interface {
	DBTX
	Beginner
}

// # Advisory Locks

/*
WithAdvisoryLock runs fn inside a transaction that holds a transaction-scoped
advisory lock on key.

Description: The lock is taken with pg_advisory_xact_lock, so it is shared by
every process using the same database and is released by PostgreSQL on commit
or rollback; no explicit unlock path exists that could be skipped. The wait is
bounded by SET LOCAL lock_timeout; exceeding it raises SQLSTATE 55P03, which
[dberr.IsLockTimeout] recognises.

Parameters:
  - ctx: context.Context
  - db: Beginner (pool)
  - key: int64 lock key
  - wait: time.Duration maximum lock wait
  - fn: work executed while the lock is held

Returns:
  - error: lock acquisition, fn, or commit errors
*/
func WithAdvisoryLock(ctx context.Context, db Beginner, key int64, wait time.Duration, fn func(tx pgx.Tx) error) error {
	transaction, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin locked transaction: %w", err)
	}

	// Rollback is a no-op after a successful commit.
	defer func() { _ = transaction.Rollback(ctx) }()

	if _, err := transaction.Exec(ctx, lockTimeoutStatement(wait)); err != nil {
		return fmt.Errorf("postgres: set lock_timeout: %w", err)
	}

	if _, err := transaction.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("postgres: acquire advisory lock %d: %w", key, err)
	}

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit locked transaction: %w", err)
	}

	return nil
}
