package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus defines the settlement states of a purchase.
// PENDING is the only initial state and SETTLED is terminal.
type PurchaseStatus string

const (
	PENDING PurchaseStatus = "PENDING"
	SETTLED PurchaseStatus = "SETTLED"
)

// PaymentMethod defines how a ticket was paid for.
type PaymentMethod string

const (
	CURRENCY PaymentMethod = "CURRENCY"
	MILES    PaymentMethod = "MILES"
)

// Valid reports whether the payment method is one of the known values.
func (m PaymentMethod) Valid() bool {
	return m == CURRENCY || m == MILES
}

var (
	milesPerPriceUnit = decimal.NewFromInt(10)
	earnRate          = decimal.RequireFromString("0.1")
)

// Flight represents a sellable flight and its remaining capacity.
type Flight struct {
	Id            string           `json:"id"`
	Code          string           `json:"code"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	Date          string           `json:"date"`
	Duration      *int32           `json:"duration,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	BusinessPrice *decimal.Decimal `json:"business_price,omitempty"`
	Capacity      int64            `json:"capacity"`
	CreatedAt     time.Time        `json:"created_at"`
}

// MilesCost is the number of miles needed to buy a ticket on this flight.
func (f *Flight) MilesCost() int64 {
	return f.Price.Div(milesPerPriceUnit).Floor().IntPart()
}

// MilesEarned is the number of miles credited once a ticket on this flight settles.
func (f *Flight) MilesEarned() int64 {
	return f.Price.Mul(earnRate).Floor().IntPart()
}

// FlightFilter narrows ListFlights. Empty fields match everything.
type FlightFilter struct {
	Origin      string
	Destination string
	Date        string
}

// Matches reports whether the flight satisfies the filter.
func (ff FlightFilter) Matches(f *Flight) bool {
	if ff.Origin != "" && ff.Origin != f.Origin {
		return false
	}
	if ff.Destination != "" && ff.Destination != f.Destination {
		return false
	}
	if ff.Date != "" && ff.Date != f.Date {
		return false
	}
	return true
}

// Account represents a loyalty account keyed by an external identity.
type Account struct {
	Id        string    `json:"id" dynamodbav:"account_id"`
	FirstName string    `json:"first_name,omitempty" dynamodbav:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty" dynamodbav:"last_name,omitempty"`
	Miles     int64     `json:"miles" dynamodbav:"miles"`
	Version   int64     `json:"version" dynamodbav:"version"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Purchase is a single entry in the append-only purchase ledger.
// It includes dynamodbav tags for marshalling.
type Purchase struct {
	Id            string         `json:"id" dynamodbav:"id"`
	FlightId      string         `json:"flight_id" dynamodbav:"flight_id"`
	AccountId     string         `json:"account_id" dynamodbav:"account_id"`
	PassengerName string         `json:"passenger_name,omitempty" dynamodbav:"passenger_name,omitempty"`
	PaymentMethod PaymentMethod  `json:"payment_method" dynamodbav:"payment_method"`
	MilesDeducted int64          `json:"miles_deducted" dynamodbav:"miles_deducted"`
	MilesEarned   int64          `json:"miles_earned" dynamodbav:"miles_earned"`
	Status        PurchaseStatus `json:"status" dynamodbav:"status"`
	CreatedAt     time.Time      `json:"created_at" dynamodbav:"created_at"`
	SettledAt     *time.Time     `json:"settled_at,omitempty" dynamodbav:"settled_at,omitempty"`
}

// NewPurchase carries everything the store needs to commit a purchase atomically.
type NewPurchase struct {
	Purchase Purchase
	// MilesCost is debited from the account in the same atomic write. Zero for currency payments.
	MilesCost int64
	// Flight is the flight as read before the purchase. Stores that read the
	// flight back after committing fall back to it when that read fails.
	Flight *Flight
}

// Settlement describes one PENDING → SETTLED transition and its credit.
type Settlement struct {
	PurchaseId  string
	AccountId   string
	MilesEarned int64
	SettledAt   time.Time
}

// HistoryEntryType distinguishes flight rows from the reconciliation row.
type HistoryEntryType string

const (
	HistoryFlight     HistoryEntryType = "FLIGHT"
	HistoryAdjustment HistoryEntryType = "ADJUSTMENT"
)

const (
	ReconciliationCredit = "BONUS/OTHER"
	ReconciliationDebit  = "REDEMPTION"
)

// HistoryEntry is one row of an account's miles history.
type HistoryEntry struct {
	Id          string           `json:"id"`
	FlightCode  string           `json:"flight_code"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Date        string           `json:"date"`
	Earned      int64            `json:"earned"`
	Settled     bool             `json:"settled"`
	Type        HistoryEntryType `json:"type"`
}
