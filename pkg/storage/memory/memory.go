// Package memory provides an in-memory Storage implementation for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// Store keeps flights, accounts and purchases in maps behind one RWMutex.
// Every mutating operation runs inside a single critical section, which gives
// the same all-or-nothing guarantees as the transactional backends.
type Store struct {
	mu        sync.RWMutex
	flights   map[string]models.Flight
	accounts  map[string]models.Account
	purchases map[string]models.Purchase

	now func() time.Time
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		flights:   make(map[string]models.Flight),
		accounts:  make(map[string]models.Account),
		purchases: make(map[string]models.Purchase),
		now:       time.Now,
	}
}

// WithClock overrides the clock used for account creation timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// CreateFlight stores a new flight, assigning an ID when none is set.
func (s *Store) CreateFlight(_ context.Context, flight *models.Flight) (*models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := *flight
	if f.Id == "" {
		f.Id = uuid.NewString()
	}
	if _, exists := s.flights[f.Id]; exists {
		return nil, fmt.Errorf("flight %s: %w", f.Id, storage.ErrConflict)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	s.flights[f.Id] = f
	return &f, nil
}

// GetFlight retrieves a flight by its ID.
func (s *Store) GetFlight(_ context.Context, flightID string) (*models.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[flightID]
	if !ok {
		return nil, fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
	}
	return &f, nil
}

// ListFlights returns flights matching the filter ordered by date then code.
func (s *Store) ListFlights(_ context.Context, filter models.FlightFilter) ([]models.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flights := make([]models.Flight, 0)
	for _, f := range s.flights {
		if filter.Matches(&f) {
			flights = append(flights, f)
		}
	}
	sort.Slice(flights, func(i, j int) bool {
		if flights[i].Date != flights[j].Date {
			return flights[i].Date < flights[j].Date
		}
		return flights[i].Code < flights[j].Code
	})
	return flights, nil
}

// DeleteFlight removes a flight.
func (s *Store) DeleteFlight(_ context.Context, flightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[flightID]; !ok {
		return fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
	}
	delete(s.flights, flightID)
	return nil
}

// DecrementCapacity takes one seat from a flight.
func (s *Store) DecrementCapacity(_ context.Context, flightID string) (*models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.decrementLocked(flightID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) decrementLocked(flightID string) (models.Flight, error) {
	f, ok := s.flights[flightID]
	if !ok {
		return models.Flight{}, fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
	}
	if f.Capacity <= 0 {
		return models.Flight{}, fmt.Errorf("flight %s: %w", flightID, storage.ErrCapacityExhausted)
	}
	f.Capacity--
	s.flights[flightID] = f
	return f, nil
}

// GetAccount retrieves an account by its ID.
func (s *Store) GetAccount(_ context.Context, accountID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return &a, nil
}

// CreateAccount creates a new account.
func (s *Store) CreateAccount(_ context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.Id]; exists {
		return nil, fmt.Errorf("account %s: %w", account.Id, storage.ErrConflict)
	}
	a := *account
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.Version = 1
	s.accounts[a.Id] = a
	return &a, nil
}

// CreditMiles adds miles to an account, creating it when missing.
func (s *Store) CreditMiles(_ context.Context, accountID string, amount int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.creditLocked(accountID, amount)
	return &a, nil
}

func (s *Store) creditLocked(accountID string, amount int64) models.Account {
	a := s.ensureAccountLocked(accountID)
	a.Miles += amount
	a.Version++
	s.accounts[accountID] = a
	return a
}

func (s *Store) ensureAccountLocked(accountID string) models.Account {
	a, ok := s.accounts[accountID]
	if !ok {
		a = models.Account{Id: accountID, Version: 1, CreatedAt: s.now()}
		s.accounts[accountID] = a
	}
	return a
}

// DebitMiles removes miles from an account.
func (s *Store) DebitMiles(_ context.Context, accountID string, amount int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.debitLocked(accountID, amount)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) debitLocked(accountID string, amount int64) (models.Account, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return models.Account{}, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if a.Miles < amount {
		return models.Account{}, fmt.Errorf("account %s has %d, needs %d: %w", accountID, a.Miles, amount, storage.ErrInsufficientMiles)
	}
	a.Miles -= amount
	a.Version++
	s.accounts[accountID] = a
	return a, nil
}

// CreatePurchase commits the debit, the decrement and the ledger entry together.
func (s *Store) CreatePurchase(_ context.Context, np *models.NewPurchase) (*models.Flight, *models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := np.Purchase
	if p.Status != models.PENDING {
		return nil, nil, storage.Validationf("new purchase must be %s, got %s", models.PENDING, p.Status)
	}
	if _, exists := s.purchases[p.Id]; exists {
		return nil, nil, fmt.Errorf("purchase %s: %w", p.Id, storage.ErrConflict)
	}

	// Check every condition before writing anything.
	f, ok := s.flights[p.FlightId]
	if !ok {
		return nil, nil, fmt.Errorf("flight %s: %w", p.FlightId, storage.ErrNotFound)
	}
	if f.Capacity <= 0 {
		return nil, nil, fmt.Errorf("flight %s: %w", p.FlightId, storage.ErrCapacityExhausted)
	}
	if np.MilesCost > 0 {
		a, ok := s.accounts[p.AccountId]
		if !ok {
			return nil, nil, fmt.Errorf("account %s: %w", p.AccountId, storage.ErrNotFound)
		}
		if a.Miles < np.MilesCost {
			return nil, nil, fmt.Errorf("account %s has %d, needs %d: %w", p.AccountId, a.Miles, np.MilesCost, storage.ErrInsufficientMiles)
		}
		if _, err := s.debitLocked(p.AccountId, np.MilesCost); err != nil {
			return nil, nil, err
		}
	} else {
		s.ensureAccountLocked(p.AccountId)
	}

	updated, err := s.decrementLocked(p.FlightId)
	if err != nil {
		return nil, nil, err
	}
	s.purchases[p.Id] = p
	return &updated, &p, nil
}

// GetPurchase retrieves a purchase by its ID.
func (s *Store) GetPurchase(_ context.Context, purchaseID string) (*models.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[purchaseID]
	if !ok {
		return nil, fmt.Errorf("purchase %s: %w", purchaseID, storage.ErrNotFound)
	}
	return &p, nil
}

// ListPurchasesByAccount retrieves all purchases of an account, newest first.
func (s *Store) ListPurchasesByAccount(_ context.Context, accountID string) ([]models.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]models.Purchase, 0)
	for _, p := range s.purchases {
		if p.AccountId == accountID {
			purchases = append(purchases, p)
		}
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].Id > purchases[j].Id })
	return purchases, nil
}

// GetPendingPurchases retrieves PENDING purchases created before the cutoff, oldest first.
func (s *Store) GetPendingPurchases(_ context.Context, createdBefore time.Time) ([]models.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]models.Purchase, 0)
	for _, p := range s.purchases {
		if p.Status == models.PENDING && p.CreatedAt.Before(createdBefore) {
			purchases = append(purchases, p)
		}
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].CreatedAt.Before(purchases[j].CreatedAt) })
	return purchases, nil
}

// SettlePurchase flips the purchase to SETTLED and credits the account in one critical section.
func (s *Store) SettlePurchase(_ context.Context, st models.Settlement) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[st.PurchaseId]
	if !ok {
		return nil, fmt.Errorf("purchase %s: %w", st.PurchaseId, storage.ErrNotFound)
	}
	if p.Status != models.PENDING {
		return nil, fmt.Errorf("purchase %s: %w", st.PurchaseId, storage.ErrAlreadySettled)
	}

	a := s.creditLocked(st.AccountId, st.MilesEarned)
	settledAt := st.SettledAt
	p.Status = models.SETTLED
	p.MilesEarned = st.MilesEarned
	p.SettledAt = &settledAt
	s.purchases[p.Id] = p
	return &a, nil
}
