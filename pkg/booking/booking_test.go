package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/events"
	event_mocks "github.com/chris/skymiles/pkg/events/mocks"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
	"github.com/chris/skymiles/pkg/storage/memory"
	storage_mocks "github.com/chris/skymiles/pkg/storage/mocks"
)

var now = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func flightSpec() booking.FlightSpec {
	return booking.FlightSpec{
		Code:        "TK100",
		Origin:      "ist",
		Destination: " jfk ",
		Date:        "2026-03-01",
		Price:       decimal.NewFromInt(100),
		Capacity:    1,
	}
}

func TestCreateFlight(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := booking.NewService(memory.New(), nil, booking.WithClock(clock))

		f, err := svc.CreateFlight(ctx, flightSpec())

		require.NoError(t, err)
		assert.NotEmpty(t, f.Id)
		assert.Equal(t, "IST", f.Origin)
		assert.Equal(t, "JFK", f.Destination)
		assert.Equal(t, now, f.CreatedAt)
	})

	negative := decimal.NewFromInt(-1)
	zeroDuration := int32(0)
	cases := map[string]func(fs *booking.FlightSpec){
		"Missing Code":           func(fs *booking.FlightSpec) { fs.Code = "" },
		"Missing Origin":         func(fs *booking.FlightSpec) { fs.Origin = " " },
		"Bad Date":               func(fs *booking.FlightSpec) { fs.Date = "01/03/2026" },
		"Zero Price":             func(fs *booking.FlightSpec) { fs.Price = decimal.Zero },
		"Negative Business Fare": func(fs *booking.FlightSpec) { fs.BusinessPrice = &negative },
		"Zero Capacity":          func(fs *booking.FlightSpec) { fs.Capacity = 0 },
		"Zero Duration":          func(fs *booking.FlightSpec) { fs.Duration = &zeroDuration },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := new(storage_mocks.Storage)
			svc := booking.NewService(store, nil)
			fs := flightSpec()
			mutate(&fs)

			_, err := svc.CreateFlight(ctx, fs)

			assert.ErrorIs(t, err, storage.ErrValidation)
			store.AssertNotCalled(t, "CreateFlight", mock.Anything, mock.Anything)
		})
	}
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	flight := &models.Flight{Id: "f-1", Code: "TK100", Price: decimal.NewFromInt(100), Capacity: 3}

	t.Run("Miles Success", func(t *testing.T) {
		store := new(storage_mocks.Storage)
		publisher := new(event_mocks.Publisher)
		svc := booking.NewService(store, publisher, booking.WithClock(clock))

		store.On("GetFlight", mock.Anything, "f-1").Return(flight, nil).Once()
		store.On("CreatePurchase", mock.Anything, mock.MatchedBy(func(np *models.NewPurchase) bool {
			return np.MilesCost == 10 &&
				np.Purchase.MilesDeducted == 10 &&
				np.Purchase.Status == models.PENDING &&
				np.Purchase.AccountId == "ada@example.com" &&
				np.Purchase.CreatedAt.Equal(now) &&
				np.Purchase.Id != "" &&
				np.Flight == flight
		})).Return(func(_ context.Context, np *models.NewPurchase) (*models.Flight, *models.Purchase, error) {
			updated := *flight
			updated.Capacity--
			p := np.Purchase
			return &updated, &p, nil
		}).Once()
		publisher.On("Publish", mock.Anything, events.PurchaseCompleted, mock.MatchedBy(func(d events.PurchaseCompletedData) bool {
			return d.FlightCode == "TK100" && d.MilesDeducted == 10 && d.PaymentMethod == models.MILES
		})).Return(nil).Once()

		res, err := svc.Purchase(ctx, booking.PurchaseRequest{
			FlightId:      "f-1",
			AccountId:     " ada@example.com ",
			PaymentMethod: models.MILES,
			PassengerName: "Ada Lovelace",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10), res.MilesDeducted)
		assert.Equal(t, int64(2), res.Flight.Capacity)
		assert.Equal(t, "Ada Lovelace", res.Purchase.PassengerName)
		store.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("Publish Failure Does Not Fail Purchase", func(t *testing.T) {
		store := new(storage_mocks.Storage)
		publisher := new(event_mocks.Publisher)
		svc := booking.NewService(store, publisher, booking.WithClock(clock))

		store.On("GetFlight", mock.Anything, "f-1").Return(flight, nil).Once()
		store.On("CreatePurchase", mock.Anything, mock.MatchedBy(func(np *models.NewPurchase) bool {
			return np.MilesCost == 0
		})).Return(flight, &models.Purchase{Id: "p-1", AccountId: "ada@example.com", PaymentMethod: models.CURRENCY}, nil).Once()
		publisher.On("Publish", mock.Anything, events.PurchaseCompleted, mock.Anything).Return(events.ErrPublish).Once()

		res, err := svc.Purchase(ctx, booking.PurchaseRequest{FlightId: "f-1", AccountId: "ada@example.com", PaymentMethod: models.CURRENCY})

		require.NoError(t, err)
		assert.Zero(t, res.MilesDeducted)
		publisher.AssertExpectations(t)
	})

	t.Run("Sold Out Skips The Write", func(t *testing.T) {
		store := new(storage_mocks.Storage)
		svc := booking.NewService(store, nil)

		store.On("GetFlight", mock.Anything, "f-1").Return(&models.Flight{Id: "f-1", Capacity: 0}, nil).Once()

		_, err := svc.Purchase(ctx, booking.PurchaseRequest{FlightId: "f-1", AccountId: "ada@example.com", PaymentMethod: models.CURRENCY})

		assert.ErrorIs(t, err, storage.ErrCapacityExhausted)
		store.AssertNotCalled(t, "CreatePurchase", mock.Anything, mock.Anything)
	})

	t.Run("Unknown Flight", func(t *testing.T) {
		store := new(storage_mocks.Storage)
		svc := booking.NewService(store, nil)

		store.On("GetFlight", mock.Anything, "nope").Return(nil, storage.ErrNotFound).Once()

		_, err := svc.Purchase(ctx, booking.PurchaseRequest{FlightId: "nope", AccountId: "ada@example.com", PaymentMethod: models.CURRENCY})

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Transient Store Failure", func(t *testing.T) {
		store := new(storage_mocks.Storage)
		publisher := new(event_mocks.Publisher)
		svc := booking.NewService(store, publisher)

		store.On("GetFlight", mock.Anything, "f-1").Return(flight, nil).Once()
		store.On("CreatePurchase", mock.Anything, mock.Anything).
			Return(nil, nil, storage.Transient("transact write", errors.New("throttled"))).Once()

		_, err := svc.Purchase(ctx, booking.PurchaseRequest{FlightId: "f-1", AccountId: "ada@example.com", PaymentMethod: models.CURRENCY})

		assert.ErrorIs(t, err, storage.ErrTransient)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	invalid := map[string]booking.PurchaseRequest{
		"Missing Flight":  {AccountId: "ada@example.com", PaymentMethod: models.CURRENCY},
		"Missing Account": {FlightId: "f-1", AccountId: "  ", PaymentMethod: models.CURRENCY},
		"Unknown Method":  {FlightId: "f-1", AccountId: "ada@example.com", PaymentMethod: "CARD"},
	}
	for name, req := range invalid {
		t.Run(name, func(t *testing.T) {
			store := new(storage_mocks.Storage)
			svc := booking.NewService(store, nil)

			_, err := svc.Purchase(ctx, req)

			assert.ErrorIs(t, err, storage.ErrValidation)
			store.AssertNotCalled(t, "GetFlight", mock.Anything, mock.Anything)
		})
	}
}

func TestPurchaseAgainstMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Last Seat Goes To Exactly One Buyer", func(t *testing.T) {
		store := memory.New()
		svc := booking.NewService(store, &events.LogPublisher{})
		f, err := svc.CreateFlight(ctx, flightSpec())
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			exhausted int
		)
		for _, account := range []string{"ada@example.com", "grace@example.com"} {
			wg.Add(1)
			go func(account string) {
				defer wg.Done()
				_, err := svc.Purchase(ctx, booking.PurchaseRequest{FlightId: f.Id, AccountId: account, PaymentMethod: models.CURRENCY})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, storage.ErrCapacityExhausted):
					exhausted++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(account)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, exhausted)
		got, err := store.GetFlight(ctx, f.Id)
		require.NoError(t, err)
		assert.Zero(t, got.Capacity)
	})

	t.Run("Insufficient Miles Changes Nothing", func(t *testing.T) {
		store := memory.New()
		svc := booking.NewService(store, nil)
		fs := flightSpec()
		fs.Capacity = 5
		f, err := svc.CreateFlight(ctx, fs)
		require.NoError(t, err)
		_, err = store.CreditMiles(ctx, "ada@example.com", 5)
		require.NoError(t, err)

		_, err = svc.Purchase(ctx, booking.PurchaseRequest{FlightId: f.Id, AccountId: "ada@example.com", PaymentMethod: models.MILES})

		assert.ErrorIs(t, err, storage.ErrInsufficientMiles)
		account, err := store.GetAccount(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(5), account.Miles)
		got, err := store.GetFlight(ctx, f.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.Capacity)
		purchases, err := store.ListPurchasesByAccount(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Empty(t, purchases)
	})

	t.Run("Currency Purchase Opens The Account", func(t *testing.T) {
		store := memory.New()
		svc := booking.NewService(store, nil)
		f, err := svc.CreateFlight(ctx, flightSpec())
		require.NoError(t, err)

		res, err := svc.Purchase(ctx, booking.PurchaseRequest{FlightId: f.Id, AccountId: "new@example.com", PaymentMethod: models.CURRENCY})

		require.NoError(t, err)
		assert.Equal(t, models.PENDING, res.Purchase.Status)
		account, err := store.GetAccount(ctx, "new@example.com")
		require.NoError(t, err)
		assert.Zero(t, account.Miles)
	})
}

func TestDeleteFlight(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := booking.NewService(store, nil)
	f, err := svc.CreateFlight(ctx, flightSpec())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFlight(ctx, f.Id))
	assert.ErrorIs(t, svc.DeleteFlight(ctx, f.Id), storage.ErrNotFound)

	flights, err := svc.ListFlights(ctx, models.FlightFilter{Origin: "ist"})
	require.NoError(t, err)
	assert.Empty(t, flights)
}
