package tickets_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/handlers/tickets"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
	"github.com/chris/skymiles/pkg/storage/mocks"
)

func purchaseRequest(t *testing.T, ticket api.NewTicket) *http.Request {
	t.Helper()
	body, err := json.Marshal(ticket)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewReader(body))
}

func TestPurchaseTicket(t *testing.T) {
	flight := &models.Flight{Id: "f-1", Code: "TK100", Price: decimal.NewFromInt(100), Capacity: 1}
	ticket := api.NewTicket{FlightId: "f-1", AccountId: "ada@example.com", PaymentMethod: api.MILES}

	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		h := tickets.NewTicketsHandler(booking.NewService(mockStorage, nil), nil)

		soldOut := *flight
		soldOut.Capacity = 0
		mockStorage.On("GetFlight", mock.Anything, "f-1").Return(flight, nil).Once()
		mockStorage.On("CreatePurchase", mock.Anything, mock.AnythingOfType("*models.NewPurchase")).Return(&soldOut, &models.Purchase{
			Id:            "p-1",
			FlightId:      "f-1",
			AccountId:     "ada@example.com",
			PaymentMethod: models.MILES,
			MilesDeducted: 10,
			Status:        models.PENDING,
			CreatedAt:     time.Now(),
		}, nil).Once()

		rr := httptest.NewRecorder()
		h.PurchaseTicket(rr, purchaseRequest(t, ticket))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var receipt api.TicketReceipt
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &receipt))
		assert.Equal(t, int64(10), receipt.MilesDeducted)
		assert.Zero(t, receipt.Flight.Capacity)
		assert.Equal(t, api.PENDING, receipt.Purchase.Status)
		mockStorage.AssertExpectations(t)
	})

	failures := []struct {
		name   string
		err    error
		status int
	}{
		{"Capacity Exhausted", storage.ErrCapacityExhausted, http.StatusConflict},
		{"Insufficient Miles", storage.ErrInsufficientMiles, http.StatusUnprocessableEntity},
		{"Account Not Found", storage.ErrNotFound, http.StatusNotFound},
		{"Store Unavailable", storage.Transient("transact write", errors.New("throttled")), http.StatusServiceUnavailable},
	}
	for _, f := range failures {
		t.Run(f.name, func(t *testing.T) {
			mockStorage := new(mocks.Storage)
			h := tickets.NewTicketsHandler(booking.NewService(mockStorage, nil), nil)

			mockStorage.On("GetFlight", mock.Anything, "f-1").Return(flight, nil).Once()
			mockStorage.On("CreatePurchase", mock.Anything, mock.Anything).Return(nil, nil, f.err).Once()

			rr := httptest.NewRecorder()
			h.PurchaseTicket(rr, purchaseRequest(t, ticket))

			assert.Equal(t, f.status, rr.Code)
			mockStorage.AssertExpectations(t)
		})
	}

	t.Run("Unknown Payment Method", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		h := tickets.NewTicketsHandler(booking.NewService(mockStorage, nil), nil)

		rr := httptest.NewRecorder()
		h.PurchaseTicket(rr, purchaseRequest(t, api.NewTicket{FlightId: "f-1", AccountId: "ada@example.com", PaymentMethod: "VOUCHER"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "payment method")
		mockStorage.AssertNotCalled(t, "GetFlight", mock.Anything, mock.Anything)
	})

	t.Run("Unknown Field", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		h := tickets.NewTicketsHandler(booking.NewService(mockStorage, nil), nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewReader([]byte(`{"flightId":"f-1","accountId":"a","paymentMethod":"MILES","seat":"12A"}`)))
		rr := httptest.NewRecorder()
		h.PurchaseTicket(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
