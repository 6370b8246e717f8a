// Package events publishes domain events to downstream notification consumers.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chris/skymiles/pkg/models"
)

// EventType names an event on the wire.
type EventType string

const (
	PurchaseCompleted EventType = "PurchaseCompleted"
	MilesCredited     EventType = "MilesCredited"
	AccountRegistered EventType = "AccountRegistered"
)

var (
	// ErrPublish is returned when an event could not be handed to the broker.
	ErrPublish = errors.New("failed to publish event")
	// ErrClosed is returned by a publisher after Close.
	ErrClosed = errors.New("publisher closed")
)

// PurchaseCompletedData is the payload of PurchaseCompleted.
type PurchaseCompletedData struct {
	FlightCode    string               `json:"flightCode"`
	AccountId     string               `json:"accountId"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	MilesDeducted int64                `json:"milesDeducted"`
	Timestamp     time.Time            `json:"timestamp"`
	PassengerName string               `json:"passengerName,omitempty"`
}

// MilesCreditedData is the payload of MilesCredited.
type MilesCreditedData struct {
	AccountId    string `json:"accountId"`
	MilesEarned  int64  `json:"milesEarned"`
	// TotalBalance is omitted when the balance could not be read after the credit.
	TotalBalance *int64 `json:"totalBalance,omitempty"`
	FlightCode   string `json:"flightCode"`
}

// AccountRegisteredData is the payload of AccountRegistered.
type AccountRegisteredData struct {
	AccountId string `json:"accountId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Envelope is the message body sent to the broker.
type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

//go:generate go run github.com/vektra/mockery/v2 --name Publisher --output mocks

// Publisher delivers events at least once, best effort. The SDK retries a
// send whose response was lost, so consumers may see duplicates.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, payload any) error
}

// Notify publishes an event and logs a failure instead of returning it.
// A lost notification never fails the operation that produced it.
func Notify(ctx context.Context, p Publisher, logger *slog.Logger, eventType EventType, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, payload); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(ctx, "failed to publish event", "event_type", eventType, "error", err)
	}
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

// Make sure we conform to the interface
var _ Publisher = (*LogPublisher)(nil)

func (p *LogPublisher) Publish(ctx context.Context, eventType EventType, payload any) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "event_type", eventType, "payload", payload)
	return nil
}
