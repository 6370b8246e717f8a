// Package loyalty manages miles balances, account registration and the
// reconciled miles history.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/skymiles/pkg/events"
	"github.com/chris/skymiles/pkg/identity"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// AdjustmentId identifies the synthetic reconciliation row. It sorts above
// every purchase so the row is listed first.
const AdjustmentId = "999999"

const (
	adjustmentOrigin      = "System"
	adjustmentCredit      = "Credit"
	adjustmentDebit       = "Debit"
	adjustmentDateLayout  = "2006-01-02"
	minimumPasswordLength = 8
)

// Store is the subset of the data layer the loyalty service needs.
type Store interface {
	storage.FlightReader
	storage.AccountStore
	storage.PurchaseReader
}

// Service implements the loyalty ledger operations.
type Service struct {
	store     Store
	identity  identity.Provider
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a loyalty Service. The identity provider is only needed
// for RegisterAccount and Authenticate.
func NewService(store Store, provider identity.Provider, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		identity:  provider,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Balance returns the account with its current miles.
func (s *Service) Balance(ctx context.Context, accountID string) (*models.Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, storage.Validationf("account id is required")
	}
	return s.store.GetAccount(ctx, accountID)
}

// Credit adds miles to an account, creating it when it does not exist yet.
func (s *Service) Credit(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	if err := validateAdjustment(accountID, amount); err != nil {
		return nil, err
	}
	return s.store.CreditMiles(ctx, accountID, amount)
}

// Debit removes miles from an account. The balance never goes negative.
func (s *Service) Debit(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	if err := validateAdjustment(accountID, amount); err != nil {
		return nil, err
	}
	return s.store.DebitMiles(ctx, accountID, amount)
}

func validateAdjustment(accountID string, amount int64) error {
	if strings.TrimSpace(accountID) == "" {
		return storage.Validationf("account id is required")
	}
	if amount <= 0 {
		return storage.Validationf("amount must be positive, got %d", amount)
	}
	return nil
}

// History lists the account's flights, most recent first, preceded by a
// reconciliation row whenever the balance differs from the settled earnings.
// The earned values of the settled rows plus the reconciliation row always
// add up to the balance.
func (s *Service) History(ctx context.Context, accountID string) ([]models.HistoryEntry, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	purchases, err := s.store.ListPurchasesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	flights := make(map[string]*models.Flight)
	rows := make([]models.HistoryEntry, 0, len(purchases)+1)
	var settledEarned int64
	for _, p := range purchases {
		flight, ok := flights[p.FlightId]
		if !ok {
			flight, err = s.store.GetFlight(ctx, p.FlightId)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			flights[p.FlightId] = flight
		}
		if flight == nil {
			continue
		}

		settled := p.Status == models.SETTLED
		earned := flight.MilesEarned()
		if settled {
			earned = p.MilesEarned
			settledEarned += earned
		}
		rows = append(rows, models.HistoryEntry{
			Id:          p.Id,
			FlightCode:  flight.Code,
			Origin:      flight.Origin,
			Destination: flight.Destination,
			Date:        flight.Date,
			Earned:      earned,
			Settled:     settled,
			Type:        models.HistoryFlight,
		})
	}

	if diff := account.Miles - settledEarned; diff != 0 {
		row := models.HistoryEntry{
			Id:          AdjustmentId,
			FlightCode:  models.ReconciliationCredit,
			Origin:      adjustmentOrigin,
			Destination: adjustmentCredit,
			Date:        s.now().UTC().Format(adjustmentDateLayout),
			Earned:      diff,
			Settled:     true,
			Type:        models.HistoryAdjustment,
		}
		if diff < 0 {
			row.FlightCode = models.ReconciliationDebit
			row.Destination = adjustmentDebit
		}
		rows = append([]models.HistoryEntry{row}, rows...)
	}
	return rows, nil
}

// Registration is the validated input of RegisterAccount.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (r Registration) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return storage.Validationf("a valid email is required")
	}
	if len(r.Password) < minimumPasswordLength {
		return storage.Validationf("password must have at least %d characters", minimumPasswordLength)
	}
	return nil
}

// RegisterAccount creates the credentials with the identity provider and then
// the loyalty account keyed by the email.
func (s *Service) RegisterAccount(ctx context.Context, reg Registration) (*models.Account, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if s.identity == nil {
		return nil, fmt.Errorf("register %s: %w", reg.Email, identity.ErrUnavailable)
	}

	err := s.identity.Register(ctx,
		identity.Credentials{Email: reg.Email, Password: reg.Password},
		identity.Profile{FirstName: reg.FirstName, LastName: reg.LastName},
	)
	if err != nil {
		return nil, err
	}

	account, err := s.store.CreateAccount(ctx, &models.Account{
		Id:        reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	events.Notify(ctx, s.publisher, s.logger, events.AccountRegistered, events.AccountRegisteredData{
		AccountId: account.Id,
		FirstName: account.FirstName,
		LastName:  account.LastName,
	})
	return account, nil
}

// Login is the result of a successful authentication.
type Login struct {
	Account *models.Account
	Session *identity.Session
}

// Authenticate checks the credentials with the identity provider and returns
// the account profile with its balance. Users that authenticated but never
// bought a ticket get an empty account view.
func (s *Service) Authenticate(ctx context.Context, creds identity.Credentials) (*Login, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if creds.Email == "" || creds.Password == "" {
		return nil, storage.Validationf("email and password are required")
	}
	if s.identity == nil {
		return nil, fmt.Errorf("authenticate %s: %w", creds.Email, identity.ErrUnavailable)
	}

	session, err := s.identity.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, creds.Email)
	if errors.Is(err, storage.ErrNotFound) {
		account = &models.Account{Id: creds.Email}
	} else if err != nil {
		return nil, err
	}
	return &Login{Account: account, Session: session}, nil
}
