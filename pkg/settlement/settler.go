// Package settlement credits earned miles for purchases whose grace window has
// passed. Each purchase is credited at most once, even when runs overlap across
// processes, because the status flip and the credit are one conditional write.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/skymiles/pkg/events"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// DefaultGraceWindow is how long a purchase stays PENDING before it is settled.
const DefaultGraceWindow = 3 * time.Minute

// Store is the subset of the data layer the settlement job needs.
type Store interface {
	storage.FlightReader
	storage.PurchaseReader
	storage.SettlementStore
}

// RunReport summarizes one settlement run.
type RunReport struct {
	// Selected is the number of PENDING purchases past the grace window.
	Selected int
	Settled  int
	// Skipped counts purchases settled by a concurrent run and purchases whose
	// flight no longer exists. Both stay untouched.
	Skipped int
	Failed  int
}

// Settler runs settlement passes over the purchase ledger.
type Settler struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
	grace     time.Duration
}

// Option configures a Settler.
type Option func(*Settler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Settler) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Settler) { s.now = now }
}

// WithGraceWindow overrides DefaultGraceWindow.
func WithGraceWindow(d time.Duration) Option {
	return func(s *Settler) { s.grace = d }
}

// NewSettler creates a Settler. A nil publisher disables MilesCredited events.
func NewSettler(store Store, publisher events.Publisher, opts ...Option) *Settler {
	s := &Settler{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
		grace:     DefaultGraceWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run settles every PENDING purchase created before now minus the grace window.
// A failure on one purchase is logged and does not stop the others. The
// returned error is only set when the pending purchases could not be listed
// or the context was cancelled mid-run.
func (s *Settler) Run(ctx context.Context) (RunReport, error) {
	var report RunReport
	now := s.now().UTC()

	pending, err := s.store.GetPendingPurchases(ctx, now.Add(-s.grace))
	if err != nil {
		return report, fmt.Errorf("failed to list pending purchases: %w", err)
	}
	report.Selected = len(pending)

	flights := make(map[string]*models.Flight)
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		flight, ok := flights[p.FlightId]
		if !ok {
			flight, err = s.store.GetFlight(ctx, p.FlightId)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.logger.ErrorContext(ctx, "failed to load flight for settlement", "purchase_id", p.Id, "flight_id", p.FlightId, "error", err)
				report.Failed++
				continue
			}
			flights[p.FlightId] = flight
		}
		if flight == nil {
			s.logger.WarnContext(ctx, "flight not found, purchase left pending", "purchase_id", p.Id, "flight_id", p.FlightId)
			report.Skipped++
			continue
		}

		earned := flight.MilesEarned()
		account, err := s.store.SettlePurchase(ctx, models.Settlement{
			PurchaseId:  p.Id,
			AccountId:   p.AccountId,
			MilesEarned: earned,
			SettledAt:   now,
		})
		switch {
		case errors.Is(err, storage.ErrAlreadySettled):
			report.Skipped++
			continue
		case err != nil:
			s.logger.ErrorContext(ctx, "failed to settle purchase", "purchase_id", p.Id, "account_id", p.AccountId, "error", err)
			report.Failed++
			continue
		}

		report.Settled++
		var balance *int64
		if account != nil {
			balance = &account.Miles
		}
		s.logger.InfoContext(ctx, "purchase settled", "purchase_id", p.Id, "account_id", p.AccountId, "miles_earned", earned, "balance_known", balance != nil)
		events.Notify(ctx, s.publisher, s.logger, events.MilesCredited, events.MilesCreditedData{
			AccountId:    p.AccountId,
			MilesEarned:  earned,
			TotalBalance: balance,
			FlightCode:   flight.Code,
		})
	}
	return report, nil
}
