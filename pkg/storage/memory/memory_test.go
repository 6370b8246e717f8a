package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newFlight(t *testing.T, s *Store, capacity int64) *models.Flight {
	t.Helper()
	f, err := s.CreateFlight(context.Background(), &models.Flight{
		Code:        "SK100",
		Origin:      "LIS",
		Destination: "JFK",
		Date:        "2026-03-01",
		Price:       decimal.NewFromInt(450),
		Capacity:    capacity,
	})
	require.NoError(t, err)
	return f
}

func newPurchase(flightID, accountID string, cost int64, createdAt time.Time) *models.NewPurchase {
	id, _ := uuid.NewV7()
	method := models.CURRENCY
	if cost > 0 {
		method = models.MILES
	}
	return &models.NewPurchase{
		Purchase: models.Purchase{
			Id:            id.String(),
			FlightId:      flightID,
			AccountId:     accountID,
			PaymentMethod: method,
			MilesDeducted: cost,
			Status:        models.PENDING,
			CreatedAt:     createdAt,
		},
		MilesCost: cost,
	}
}

func TestFlights(t *testing.T) {
	ctx := context.Background()

	t.Run("List Filters And Sorts", func(t *testing.T) {
		s := New()
		for _, f := range []models.Flight{
			{Code: "B2", Origin: "LIS", Destination: "JFK", Date: "2026-03-02", Price: decimal.NewFromInt(1), Capacity: 1},
			{Code: "A1", Origin: "LIS", Destination: "JFK", Date: "2026-03-01", Price: decimal.NewFromInt(1), Capacity: 1},
			{Code: "C3", Origin: "OPO", Destination: "JFK", Date: "2026-03-01", Price: decimal.NewFromInt(1), Capacity: 1},
		} {
			_, err := s.CreateFlight(ctx, &f)
			require.NoError(t, err)
		}

		flights, err := s.ListFlights(ctx, models.FlightFilter{Origin: "LIS", Destination: "JFK"})

		require.NoError(t, err)
		require.Len(t, flights, 2)
		assert.Equal(t, "A1", flights[0].Code)
		assert.Equal(t, "B2", flights[1].Code)
	})

	t.Run("Delete", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 1)

		require.NoError(t, s.DeleteFlight(ctx, f.Id))
		assert.ErrorIs(t, s.DeleteFlight(ctx, f.Id), storage.ErrNotFound)
		_, err := s.GetFlight(ctx, f.Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Decrement Stops At Zero", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 1)

		updated, err := s.DecrementCapacity(ctx, f.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), updated.Capacity)

		_, err = s.DecrementCapacity(ctx, f.Id)
		assert.ErrorIs(t, err, storage.ErrCapacityExhausted)
		_, err = s.DecrementCapacity(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestConcurrentDecrementNeverOversells(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct{ capacity, buyers int }{{1, 2}, {5, 50}, {0, 3}} {
		t.Run(fmt.Sprintf("capacity %d buyers %d", tc.capacity, tc.buyers), func(t *testing.T) {
			s := New()
			f := newFlight(t, s, int64(tc.capacity))

			var wg sync.WaitGroup
			var mu sync.Mutex
			succeeded := 0
			for i := 0; i < tc.buyers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, err := s.CreatePurchase(ctx, newPurchase(f.Id, uuid.NewString(), 0, epoch))
					if err == nil {
						mu.Lock()
						succeeded++
						mu.Unlock()
						return
					}
					assert.ErrorIs(t, err, storage.ErrCapacityExhausted)
				}()
			}
			wg.Wait()

			assert.Equal(t, tc.capacity, succeeded)
			got, err := s.GetFlight(ctx, f.Id)
			require.NoError(t, err)
			assert.Equal(t, int64(0), got.Capacity)
		})
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreditMiles(ctx, "ada@example.com", 100)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.DebitMiles(ctx, "ada@example.com", 30)
		}()
	}
	wg.Wait()

	a, err := s.GetAccount(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(10), a.Miles)

	_, err = s.DebitMiles(ctx, "ada@example.com", 11)
	assert.ErrorIs(t, err, storage.ErrInsufficientMiles)
	_, err = s.DebitMiles(ctx, "nobody@example.com", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreatePurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("Miles Payment Debits And Appends Pending", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 2)
		_, err := s.CreditMiles(ctx, "ada@example.com", 100)
		require.NoError(t, err)

		updated, p, err := s.CreatePurchase(ctx, newPurchase(f.Id, "ada@example.com", 45, epoch))

		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.Capacity)
		assert.Equal(t, models.PENDING, p.Status)
		a, _ := s.GetAccount(ctx, "ada@example.com")
		assert.Equal(t, int64(55), a.Miles)
	})

	t.Run("Currency Payment Creates Account", func(t *testing.T) {
		s := New().WithClock(func() time.Time { return epoch })
		f := newFlight(t, s, 2)

		_, _, err := s.CreatePurchase(ctx, newPurchase(f.Id, "new@example.com", 0, epoch))

		require.NoError(t, err)
		a, err := s.GetAccount(ctx, "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(0), a.Miles)
		assert.Equal(t, epoch, a.CreatedAt)
	})

	t.Run("Sold Out Leaves Balance Untouched", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 0)
		_, err := s.CreditMiles(ctx, "ada@example.com", 100)
		require.NoError(t, err)

		_, _, err = s.CreatePurchase(ctx, newPurchase(f.Id, "ada@example.com", 45, epoch))

		assert.ErrorIs(t, err, storage.ErrCapacityExhausted)
		a, _ := s.GetAccount(ctx, "ada@example.com")
		assert.Equal(t, int64(100), a.Miles)
		purchases, _ := s.ListPurchasesByAccount(ctx, "ada@example.com")
		assert.Empty(t, purchases)
	})

	t.Run("Insufficient Miles Leaves Capacity Untouched", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 2)
		_, err := s.CreditMiles(ctx, "ada@example.com", 10)
		require.NoError(t, err)

		_, _, err = s.CreatePurchase(ctx, newPurchase(f.Id, "ada@example.com", 45, epoch))

		assert.ErrorIs(t, err, storage.ErrInsufficientMiles)
		got, _ := s.GetFlight(ctx, f.Id)
		assert.Equal(t, int64(2), got.Capacity)
	})

	t.Run("Miles Payment Without Account", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 2)

		_, _, err := s.CreatePurchase(ctx, newPurchase(f.Id, "ghost@example.com", 45, epoch))

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestPurchaseQueries(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := newFlight(t, s, 10)

	old := newPurchase(f.Id, "ada@example.com", 0, epoch)
	recent := newPurchase(f.Id, "ada@example.com", 0, epoch.Add(5*time.Minute))
	other := newPurchase(f.Id, "bob@example.com", 0, epoch.Add(time.Minute))
	for _, np := range []*models.NewPurchase{old, other, recent} {
		_, _, err := s.CreatePurchase(ctx, np)
		require.NoError(t, err)
	}

	purchases, err := s.ListPurchasesByAccount(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, recent.Purchase.Id, purchases[0].Id, "newest first")

	pending, err := s.GetPendingPurchases(ctx, epoch.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, old.Purchase.Id, pending[0].Id, "oldest first")
	assert.Equal(t, other.Purchase.Id, pending[1].Id)
}

func TestSettlePurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("Settles Once Under Concurrency", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 1)
		np := newPurchase(f.Id, "ada@example.com", 0, epoch)
		_, _, err := s.CreatePurchase(ctx, np)
		require.NoError(t, err)

		st := models.Settlement{PurchaseId: np.Purchase.Id, AccountId: "ada@example.com", MilesEarned: 45, SettledAt: epoch.Add(4 * time.Minute)}
		var wg sync.WaitGroup
		var mu sync.Mutex
		settled, already := 0, 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.SettlePurchase(ctx, st)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					settled++
				} else if assert.ErrorIs(t, err, storage.ErrAlreadySettled) {
					already++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, settled)
		assert.Equal(t, 7, already)
		a, _ := s.GetAccount(ctx, "ada@example.com")
		assert.Equal(t, int64(45), a.Miles)

		p, _ := s.GetPurchase(ctx, np.Purchase.Id)
		assert.Equal(t, models.SETTLED, p.Status)
		assert.Equal(t, int64(45), p.MilesEarned)
		require.NotNil(t, p.SettledAt)
		assert.Equal(t, st.SettledAt, *p.SettledAt)
	})

	t.Run("Unknown Purchase", func(t *testing.T) {
		s := New()
		_, err := s.SettlePurchase(ctx, models.Settlement{PurchaseId: "missing"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Creates Missing Account", func(t *testing.T) {
		s := New()
		f := newFlight(t, s, 1)
		np := newPurchase(f.Id, "ada@example.com", 0, epoch)
		_, _, err := s.CreatePurchase(ctx, np)
		require.NoError(t, err)

		a, err := s.SettlePurchase(ctx, models.Settlement{PurchaseId: np.Purchase.Id, AccountId: "other@example.com", MilesEarned: 5, SettledAt: epoch})

		require.NoError(t, err)
		assert.Equal(t, int64(5), a.Miles)
	})
}
