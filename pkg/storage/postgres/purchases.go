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

const purchaseColumns = `id, flight_id, account_id, passenger_name, payment_method,
	miles_deducted, miles_earned, status, created_at, settled_at`

func scanPurchase(row pgx.Row) (models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(
		&p.Id, &p.FlightId, &p.AccountId, &p.PassengerName, &p.PaymentMethod,
		&p.MilesDeducted, &p.MilesEarned, &p.Status, &p.CreatedAt, &p.SettledAt,
	)
	return p, err
}

func collectPurchases(rows pgx.Rows) ([]models.Purchase, error) {
	purchases, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Purchase, error) {
		return scanPurchase(row)
	})
	if err != nil {
		return nil, err
	}
	if purchases == nil {
		purchases = make([]models.Purchase, 0)
	}
	return purchases, nil
}

// CreatePurchase commits the capacity decrement, the account debit or lazy
// creation, and the purchase row in one transaction.
func (s *Store) CreatePurchase(ctx context.Context, np *models.NewPurchase) (*models.Flight, *models.Purchase, error) {
	p := np.Purchase
	if p.Status != models.PENDING {
		return nil, nil, storage.Validationf("new purchase must be %s, got %s", models.PENDING, p.Status)
	}

	var flight models.Flight
	err := s.inTx(ctx, "create purchase", func(tx pgx.Tx) error {
		// 1. Take the seat.
		var err error
		flight, err = decrementCapacity(ctx, tx, p.FlightId)
		if err != nil {
			return err
		}

		// 2. Debit the miles, or make sure the account exists.
		if np.MilesCost > 0 {
			if _, err := debitMiles(ctx, tx, p.AccountId, np.MilesCost); err != nil {
				return err
			}
		} else if err := ensureAccount(ctx, tx, p.AccountId, p.CreatedAt); err != nil {
			return err
		}

		// 3. Append the ledger entry.
		_, err = tx.Exec(ctx, `
			INSERT INTO purchases (`+purchaseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, p.Id, p.FlightId, p.AccountId, p.PassengerName, p.PaymentMethod,
			p.MilesDeducted, p.MilesEarned, p.Status, p.CreatedAt, p.SettledAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("purchase %s: %w", p.Id, storage.ErrConflict)
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &flight, &p, nil
}

// GetPurchase retrieves a purchase by its ID.
func (s *Store) GetPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	p, err := scanPurchase(s.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, purchaseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %s: %w", purchaseID, storage.ErrNotFound)
		}
		return nil, storage.Transient("get purchase", err)
	}
	return &p, nil
}

// ListPurchasesByAccount retrieves all purchases of an account, newest first.
func (s *Store) ListPurchasesByAccount(ctx context.Context, accountID string) ([]models.Purchase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE account_id = $1
		ORDER BY id DESC
	`, accountID)
	if err != nil {
		return nil, storage.Transient("query purchases", err)
	}
	purchases, err := collectPurchases(rows)
	if err != nil {
		return nil, storage.Transient("scan purchases", err)
	}
	return purchases, nil
}

// GetPendingPurchases retrieves PENDING purchases created before the cutoff, oldest first.
func (s *Store) GetPendingPurchases(ctx context.Context, createdBefore time.Time) ([]models.Purchase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
	`, models.PENDING, createdBefore)
	if err != nil {
		return nil, storage.Transient("query pending purchases", err)
	}
	purchases, err := collectPurchases(rows)
	if err != nil {
		return nil, storage.Transient("scan pending purchases", err)
	}
	return purchases, nil
}

// SettlePurchase flips the purchase to SETTLED and credits the account in one transaction.
func (s *Store) SettlePurchase(ctx context.Context, st models.Settlement) (*models.Account, error) {
	var account models.Account
	err := s.inTx(ctx, "settle purchase", func(tx pgx.Tx) error {
		// 1. Flip the status, only if still pending.
		tag, err := tx.Exec(ctx, `
			UPDATE purchases SET status = $2, miles_earned = $3, settled_at = $4
			WHERE id = $1 AND status = $5
		`, st.PurchaseId, models.SETTLED, st.MilesEarned, st.SettledAt, models.PENDING)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchases WHERE id = $1)`, st.PurchaseId).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("purchase %s: %w", st.PurchaseId, storage.ErrNotFound)
			}
			return fmt.Errorf("purchase %s: %w", st.PurchaseId, storage.ErrAlreadySettled)
		}

		// 2. Credit the account.
		account, err = creditMiles(ctx, tx, st.AccountId, st.MilesEarned, st.SettledAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}
