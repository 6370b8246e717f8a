package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

const accountColumns = `id, first_name, last_name, miles, version, created_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.Id, &a.FirstName, &a.LastName, &a.Miles, &a.Version, &a.CreatedAt)
	return a, err
}

// GetAccount retrieves an account by its ID.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return nil, storage.Transient("get account", err)
	}
	return &a, nil
}

// CreateAccount creates a new account with a zero balance.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	a, err := scanAccount(s.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, first_name, last_name, miles, version, created_at)
		VALUES ($1, $2, $3, 0, 1, $4)
		RETURNING `+accountColumns,
		account.Id, account.FirstName, account.LastName, createdAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("account %s: %w", account.Id, storage.ErrConflict)
		}
		return nil, storage.Transient("insert account", err)
	}
	return &a, nil
}

// CreditMiles adds miles to an account, creating it when missing.
func (s *Store) CreditMiles(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	var a models.Account
	err := s.inTx(ctx, "credit miles", func(tx pgx.Tx) error {
		var err error
		a, err = creditMiles(ctx, tx, accountID, amount, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func creditMiles(ctx context.Context, tx pgx.Tx, accountID string, amount int64, now time.Time) (models.Account, error) {
	return scanAccount(tx.QueryRow(ctx, `
		INSERT INTO accounts (id, miles, version, created_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (id) DO UPDATE
		SET miles = accounts.miles + EXCLUDED.miles, version = accounts.version + 1
		RETURNING `+accountColumns,
		accountID, amount, now))
}

// ensureAccount creates an empty account if none exists yet.
func ensureAccount(ctx context.Context, tx pgx.Tx, accountID string, now time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO accounts (id, miles, version, created_at)
		VALUES ($1, 0, 1, $2)
		ON CONFLICT (id) DO NOTHING
	`, accountID, now)
	return err
}

// DebitMiles removes miles from an account. The balance is checked in the same statement.
func (s *Store) DebitMiles(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	var a models.Account
	err := s.inTx(ctx, "debit miles", func(tx pgx.Tx) error {
		var err error
		a, err = debitMiles(ctx, tx, accountID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func debitMiles(ctx context.Context, tx pgx.Tx, accountID string, amount int64) (models.Account, error) {
	a, err := scanAccount(tx.QueryRow(ctx, `
		UPDATE accounts SET miles = miles - $2, version = version + 1
		WHERE id = $1 AND miles >= $2
		RETURNING `+accountColumns,
		accountID, amount))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, err
	}

	var miles int64
	if err := tx.QueryRow(ctx, `SELECT miles FROM accounts WHERE id = $1`, accountID).Scan(&miles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return models.Account{}, err
	}
	return models.Account{}, fmt.Errorf("account %s has %d, needs %d: %w", accountID, miles, amount, storage.ErrInsufficientMiles)
}
