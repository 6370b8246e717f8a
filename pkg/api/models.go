// Package api holds the HTTP contract: request and response bodies, the
// server interface and its chi router.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// PaymentMethod defines model for PaymentMethod.
type PaymentMethod string

const (
	CURRENCY PaymentMethod = "CURRENCY"
	MILES    PaymentMethod = "MILES"
)

// PurchaseStatus defines model for PurchaseStatus.
type PurchaseStatus string

const (
	PENDING PurchaseStatus = "PENDING"
	SETTLED PurchaseStatus = "SETTLED"
)

// Flight defines model for Flight.
type Flight struct {
	Id            string           `json:"id"`
	Code          string           `json:"code"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	Date          string           `json:"date"`
	Duration      *int32           `json:"duration,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	BusinessPrice *decimal.Decimal `json:"businessPrice,omitempty"`
	Capacity      int64            `json:"capacity"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// NewFlight defines model for NewFlight.
type NewFlight struct {
	Code          string             `json:"code"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	Date          openapi_types.Date `json:"date"`
	Duration      *int32             `json:"duration,omitempty"`
	Price         decimal.Decimal    `json:"price"`
	BusinessPrice *decimal.Decimal   `json:"businessPrice,omitempty"`
	Capacity      int64              `json:"capacity"`
}

// NewTicket defines model for NewTicket.
type NewTicket struct {
	FlightId      string        `json:"flightId"`
	AccountId     string        `json:"accountId"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PassengerName *string       `json:"passengerName,omitempty"`
}

// Purchase defines model for Purchase.
type Purchase struct {
	Id            string         `json:"id"`
	FlightId      string         `json:"flightId"`
	AccountId     string         `json:"accountId"`
	PassengerName string         `json:"passengerName,omitempty"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	MilesDeducted int64          `json:"milesDeducted"`
	MilesEarned   int64          `json:"milesEarned"`
	Status        PurchaseStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	SettledAt     *time.Time     `json:"settledAt,omitempty"`
}

// TicketReceipt defines model for TicketReceipt.
type TicketReceipt struct {
	Flight        Flight   `json:"flight"`
	MilesDeducted int64    `json:"milesDeducted"`
	Purchase      Purchase `json:"purchase"`
}

// MilesBalance defines model for MilesBalance.
type MilesBalance struct {
	AccountId string `json:"accountId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Miles     int64  `json:"miles"`
}

// MilesAdjustment defines model for MilesAdjustment.
type MilesAdjustment struct {
	Amount int64 `json:"amount"`
}

// HistoryEntryType defines model for HistoryEntryType.
type HistoryEntryType string

const (
	FLIGHT     HistoryEntryType = "FLIGHT"
	ADJUSTMENT HistoryEntryType = "ADJUSTMENT"
)

// HistoryEntry defines model for HistoryEntry.
type HistoryEntry struct {
	Id          string           `json:"id"`
	FlightCode  string           `json:"flightCode"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Date        string           `json:"date"`
	Earned      int64            `json:"earned"`
	Settled     bool             `json:"settled"`
	Type        HistoryEntryType `json:"type"`
}

// RegisterRequest defines model for RegisterRequest.
type RegisterRequest struct {
	Email     openapi_types.Email `json:"email"`
	Password  string              `json:"password"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
}

// LoginRequest defines model for LoginRequest.
type LoginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

// LoginResponse defines model for LoginResponse.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	IdToken     string       `json:"idToken,omitempty"`
	ExpiresIn   int32        `json:"expiresIn"`
	Account     MilesBalance `json:"account"`
}

// Error defines model for Error.
type Error struct {
	Message string `json:"message"`
}

// Health defines model for Health.
type Health struct {
	Status string `json:"status"`
}

// ListFlightsParams defines parameters for ListFlights.
type ListFlightsParams struct {
	From *string             `form:"from,omitempty" json:"from,omitempty"`
	To   *string             `form:"to,omitempty" json:"to,omitempty"`
	Date *openapi_types.Date `form:"date,omitempty" json:"date,omitempty"`
}

// SearchFlightsParams defines parameters for SearchFlights.
type SearchFlightsParams struct {
	From  string              `form:"from" json:"from"`
	To    string              `form:"to" json:"to"`
	Date  *openapi_types.Date `form:"date,omitempty" json:"date,omitempty"`
	Fresh *bool               `form:"fresh,omitempty" json:"fresh,omitempty"`
}
