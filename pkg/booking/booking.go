// Package booking sells flight inventory: flight administration and the
// all-or-nothing ticket purchase flow.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chris/skymiles/pkg/events"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

const (
	dateLayout           = "2006-01-02"
	maxPassengerNameSize = 100
)

// Store is the subset of the data layer the booking service needs.
type Store interface {
	storage.FlightStore
	storage.PurchaseManager
}

// Service holds the dependencies of the purchase flow.
type Service struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for swallowed notification failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the clock used to stamp purchases.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a booking Service. A nil publisher disables notifications.
func NewService(store Store, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FlightSpec is the validated input of CreateFlight.
type FlightSpec struct {
	Code          string
	Origin        string
	Destination   string
	Date          string
	Duration      *int32
	Price         decimal.Decimal
	BusinessPrice *decimal.Decimal
	Capacity      int64
}

// Validate checks required fields and positive amounts.
func (fs FlightSpec) Validate() error {
	var missing []string
	if strings.TrimSpace(fs.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(fs.Origin) == "" {
		missing = append(missing, "origin")
	}
	if strings.TrimSpace(fs.Destination) == "" {
		missing = append(missing, "destination")
	}
	if strings.TrimSpace(fs.Date) == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return storage.Validationf("missing %s", strings.Join(missing, ", "))
	}
	if _, err := time.Parse(dateLayout, fs.Date); err != nil {
		return storage.Validationf("date %q is not YYYY-MM-DD", fs.Date)
	}
	if !fs.Price.IsPositive() {
		return storage.Validationf("price must be positive")
	}
	if fs.BusinessPrice != nil && !fs.BusinessPrice.IsPositive() {
		return storage.Validationf("business price must be positive")
	}
	if fs.Capacity <= 0 {
		return storage.Validationf("capacity must be positive")
	}
	if fs.Duration != nil && *fs.Duration <= 0 {
		return storage.Validationf("duration must be positive")
	}
	return nil
}

// CreateFlight validates and stores a new flight. Airport codes are upper-cased
// so they line up with normalized search keys.
func (s *Service) CreateFlight(ctx context.Context, fs FlightSpec) (*models.Flight, error) {
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateFlight(ctx, &models.Flight{
		Code:          strings.TrimSpace(fs.Code),
		Origin:        strings.ToUpper(strings.TrimSpace(fs.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(fs.Destination)),
		Date:          fs.Date,
		Duration:      fs.Duration,
		Price:         fs.Price,
		BusinessPrice: fs.BusinessPrice,
		Capacity:      fs.Capacity,
		CreatedAt:     s.now().UTC(),
	})
}

// GetFlight returns the authoritative flight record.
func (s *Service) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	if flightID == "" {
		return nil, storage.Validationf("flight id is required")
	}
	return s.store.GetFlight(ctx, flightID)
}

// ListFlights returns all flights matching the filter straight from the store.
func (s *Service) ListFlights(ctx context.Context, filter models.FlightFilter) ([]models.Flight, error) {
	filter.Origin = strings.ToUpper(strings.TrimSpace(filter.Origin))
	filter.Destination = strings.ToUpper(strings.TrimSpace(filter.Destination))
	return s.store.ListFlights(ctx, filter)
}

// DeleteFlight removes a flight. Purchases that reference it are kept.
func (s *Service) DeleteFlight(ctx context.Context, flightID string) error {
	if flightID == "" {
		return storage.Validationf("flight id is required")
	}
	return s.store.DeleteFlight(ctx, flightID)
}

// PurchaseRequest is the validated input of Purchase.
type PurchaseRequest struct {
	FlightId      string
	AccountId     string
	PaymentMethod models.PaymentMethod
	PassengerName string
}

func (r PurchaseRequest) Validate() error {
	if r.FlightId == "" {
		return storage.Validationf("flight id is required")
	}
	if strings.TrimSpace(r.AccountId) == "" {
		return storage.Validationf("account id is required")
	}
	if !r.PaymentMethod.Valid() {
		return storage.Validationf("payment method must be %s or %s", models.CURRENCY, models.MILES)
	}
	if len(r.PassengerName) > maxPassengerNameSize {
		return storage.Validationf("passenger name is longer than %d characters", maxPassengerNameSize)
	}
	return nil
}

// PurchaseResult is what a successful purchase returns.
type PurchaseResult struct {
	Flight        *models.Flight
	MilesDeducted int64
	Purchase      *models.Purchase
}

// Purchase sells one seat. The debit, the capacity decrement and the PENDING
// ledger entry commit together or not at all.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	req.AccountId = strings.TrimSpace(req.AccountId)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	flight, err := s.store.GetFlight(ctx, req.FlightId)
	if err != nil {
		return nil, err
	}
	if flight.Capacity <= 0 {
		return nil, fmt.Errorf("flight %s: %w", flight.Id, storage.ErrCapacityExhausted)
	}

	var cost int64
	if req.PaymentMethod == models.MILES {
		cost = flight.MilesCost()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate purchase id: %w", err)
	}

	updated, purchase, err := s.store.CreatePurchase(ctx, &models.NewPurchase{
		Purchase: models.Purchase{
			Id:            id.String(),
			FlightId:      flight.Id,
			AccountId:     req.AccountId,
			PassengerName: req.PassengerName,
			PaymentMethod: req.PaymentMethod,
			MilesDeducted: cost,
			Status:        models.PENDING,
			CreatedAt:     s.now().UTC(),
		},
		MilesCost: cost,
		Flight:    flight,
	})
	if err != nil {
		if errors.Is(err, storage.ErrTransient) {
			s.logger.ErrorContext(ctx, "purchase failed", "flight_id", flight.Id, "account_id", req.AccountId, "error", err)
		}
		return nil, err
	}

	events.Notify(ctx, s.publisher, s.logger, events.PurchaseCompleted, events.PurchaseCompletedData{
		FlightCode:    updated.Code,
		AccountId:     purchase.AccountId,
		PaymentMethod: purchase.PaymentMethod,
		MilesDeducted: purchase.MilesDeducted,
		Timestamp:     purchase.CreatedAt,
		PassengerName: purchase.PassengerName,
	})

	return &PurchaseResult{Flight: updated, MilesDeducted: cost, Purchase: purchase}, nil
}
