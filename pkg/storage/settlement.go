package storage

import (
	"context"

	"github.com/chris/skymiles/pkg/models"
)

// SettlementStore defines the privileged interface for settling a purchase.
// The status flip and the credit are one atomic write, so a purchase is credited at most once.
// It should only be exposed to the settlement job.
type SettlementStore interface {
	// SettlePurchase moves a purchase from PENDING to SETTLED and credits the account.
	// It returns ErrAlreadySettled when the purchase is no longer PENDING, and the
	// updated account on success. A nil account with a nil error means the
	// settlement committed but the new balance could not be read.
	SettlePurchase(ctx context.Context, settlement models.Settlement) (*models.Account, error)
}
