package storage

import (
	"context"

	"github.com/chris/skymiles/pkg/models"
)

// AccountStore defines the loyalty ledger: per-account miles balances.
type AccountStore interface {
	// GetAccount retrieves an account by its ID.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// CreateAccount creates a new account. It fails with ErrConflict if the account exists.
	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)

	// CreditMiles atomically adds miles to an account, creating it when missing.
	CreditMiles(ctx context.Context, accountID string, amount int64) (*models.Account, error)

	// DebitMiles atomically removes miles from an account.
	// It fails with ErrInsufficientMiles and leaves the balance untouched if it would go negative.
	DebitMiles(ctx context.Context, accountID string, amount int64) (*models.Account, error)
}
