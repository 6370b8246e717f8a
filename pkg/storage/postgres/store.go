// Package postgres implements the storage interfaces on PostgreSQL using pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chris/skymiles/pkg/storage"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"

	defaultMaxAttempts = 3
	defaultMaxBackoff  = 500 * time.Millisecond
)

// Store implements the Storage interface on a pgx connection pool.
type Store struct {
	pool        *pgxpool.Pool
	maxAttempts int
	backoff     *retry.ExponentialJitterBackoff
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// New creates a Store on an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		maxAttempts: defaultMaxAttempts,
		backoff:     retry.NewExponentialJitterBackoff(defaultMaxBackoff),
	}
}

// Connect opens a pool for the given connection string and verifies it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables and indexes when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, retrying serialization failures and deadlocks.
func (s *Store) inTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
		if err == nil || !isRetryable(err) {
			break
		}
		delay, bErr := s.backoff.BackoffDelay(attempt, err)
		if bErr != nil {
			break
		}
		slog.WarnContext(ctx, "retrying transaction", "op", op, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return storage.Transient(op, ctx.Err())
		case <-time.After(delay):
		}
	}
	return classify(op, err)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// classify passes domain errors through and marks everything else transient.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrCapacityExhausted),
		errors.Is(err, storage.ErrInsufficientMiles),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrAlreadySettled),
		errors.Is(err, storage.ErrValidation),
		errors.Is(err, storage.ErrTransient):
		return err
	default:
		return storage.Transient(op, err)
	}
}
