package storage

import (
	"context"
	"time"

	"github.com/chris/skymiles/pkg/models"
)

// PurchaseReader defines the interface for reading the purchase ledger.
type PurchaseReader interface {
	// GetPurchase retrieves a purchase by its ID.
	GetPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error)

	// ListPurchasesByAccount retrieves all purchases made by an account.
	ListPurchasesByAccount(ctx context.Context, accountID string) ([]models.Purchase, error)

	// GetPendingPurchases retrieves PENDING purchases created before the cutoff.
	GetPendingPurchases(ctx context.Context, createdBefore time.Time) ([]models.Purchase, error)
}

// PurchaseManager defines the interface for committing purchases.
type PurchaseManager interface {
	// CreatePurchase commits a purchase all-or-nothing: the miles debit (if any),
	// the capacity decrement, the PENDING ledger entry and the lazy account creation.
	// It returns the updated flight and the stored purchase.
	CreatePurchase(ctx context.Context, newPurchase *models.NewPurchase) (*models.Flight, *models.Purchase, error)
}

// PurchaseStore combines the reader and manager interfaces.
type PurchaseStore interface {
	PurchaseReader
	PurchaseManager
}
