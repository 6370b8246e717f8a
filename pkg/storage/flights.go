package storage

import (
	"context"

	"github.com/chris/skymiles/pkg/models"
)

// FlightReader defines the interface for reading flight inventory.
type FlightReader interface {
	// GetFlight retrieves a flight by its ID.
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)

	// ListFlights retrieves all flights matching the filter.
	ListFlights(ctx context.Context, filter models.FlightFilter) ([]models.Flight, error)
}

// FlightStore defines the interface for managing flight inventory.
type FlightStore interface {
	FlightReader

	// CreateFlight stores a new flight.
	CreateFlight(ctx context.Context, flight *models.Flight) (*models.Flight, error)

	// DeleteFlight removes a flight.
	DeleteFlight(ctx context.Context, flightID string) error

	// DecrementCapacity takes one seat from the flight in a single atomic write
	// and returns the updated flight.
	DecrementCapacity(ctx context.Context, flightID string) (*models.Flight, error)
}
