package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

const flightColumns = `id, code, origin, destination, date, duration, price, business_price, capacity, created_at`

func scanFlight(row pgx.Row) (models.Flight, error) {
	var f models.Flight
	var businessPrice decimal.NullDecimal
	err := row.Scan(
		&f.Id, &f.Code, &f.Origin, &f.Destination, &f.Date, &f.Duration,
		&f.Price, &businessPrice, &f.Capacity, &f.CreatedAt,
	)
	if err != nil {
		return models.Flight{}, err
	}
	if businessPrice.Valid {
		f.BusinessPrice = &businessPrice.Decimal
	}
	return f, nil
}

// CreateFlight stores a new flight, assigning an ID when none is set.
func (s *Store) CreateFlight(ctx context.Context, flight *models.Flight) (*models.Flight, error) {
	f := *flight
	if f.Id == "" {
		f.Id = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	businessPrice := decimal.NullDecimal{}
	if f.BusinessPrice != nil {
		businessPrice = decimal.NewNullDecimal(*f.BusinessPrice)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO flights (`+flightColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, f.Id, f.Code, f.Origin, f.Destination, f.Date, f.Duration, f.Price, businessPrice, f.Capacity, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("flight %s: %w", f.Id, storage.ErrConflict)
		}
		return nil, storage.Transient("insert flight", err)
	}
	return &f, nil
}

// GetFlight retrieves a flight by its ID.
func (s *Store) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	f, err := scanFlight(s.pool.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, flightID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
		}
		return nil, storage.Transient("get flight", err)
	}
	return &f, nil
}

// ListFlights returns flights matching the filter ordered by date then code.
// Empty filter fields match every row.
func (s *Store) ListFlights(ctx context.Context, filter models.FlightFilter) ([]models.Flight, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+flightColumns+`
		FROM flights
		WHERE ($1 = '' OR origin = $1)
		  AND ($2 = '' OR destination = $2)
		  AND ($3 = '' OR date = $3)
		ORDER BY date ASC, code ASC
	`, filter.Origin, filter.Destination, filter.Date)
	if err != nil {
		return nil, storage.Transient("query flights", err)
	}

	flights, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Flight, error) {
		return scanFlight(row)
	})
	if err != nil {
		return nil, storage.Transient("scan flights", err)
	}
	if flights == nil {
		flights = make([]models.Flight, 0)
	}
	return flights, nil
}

// DeleteFlight removes a flight.
func (s *Store) DeleteFlight(ctx context.Context, flightID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM flights WHERE id = $1`, flightID)
	if err != nil {
		return storage.Transient("delete flight", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
	}
	return nil
}

// DecrementCapacity takes one seat from a flight with a conditional update.
func (s *Store) DecrementCapacity(ctx context.Context, flightID string) (*models.Flight, error) {
	var f models.Flight
	err := s.inTx(ctx, "decrement capacity", func(tx pgx.Tx) error {
		var err error
		f, err = decrementCapacity(ctx, tx, flightID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// decrementCapacity runs the conditional decrement inside tx. When no row is
// updated it tells a missing flight from a sold out one.
func decrementCapacity(ctx context.Context, tx pgx.Tx, flightID string) (models.Flight, error) {
	f, err := scanFlight(tx.QueryRow(ctx, `
		UPDATE flights SET capacity = capacity - 1
		WHERE id = $1 AND capacity > 0
		RETURNING `+flightColumns, flightID))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Flight{}, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = $1)`, flightID).Scan(&exists); err != nil {
		return models.Flight{}, err
	}
	if !exists {
		return models.Flight{}, fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
	}
	return models.Flight{}, fmt.Errorf("flight %s: %w", flightID, storage.ErrCapacityExhausted)
}
