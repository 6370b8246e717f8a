// Package search serves flight searches through a cache-aside read path.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/skymiles/pkg/cache"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// DefaultTTL bounds how stale a cached result can be.
const DefaultTTL = 60 * time.Second

// Query is a flight search. Origin and destination are required, date is optional.
type Query struct {
	Origin      string
	Destination string
	Date        string
}

// Normalize trims and upper-cases the airport codes.
func (q Query) Normalize() Query {
	return Query{
		Origin:      strings.ToUpper(strings.TrimSpace(q.Origin)),
		Destination: strings.ToUpper(strings.TrimSpace(q.Destination)),
		Date:        strings.TrimSpace(q.Date),
	}
}

// Validate reports a validation error when a required field is missing.
func (q Query) Validate() error {
	if q.Origin == "" || q.Destination == "" {
		return storage.Validationf("origin and destination are required")
	}
	return nil
}

// Key is the cache key of the query. It expects a normalized query.
func (q Query) Key() string {
	date := q.Date
	if date == "" {
		date = "any"
	}
	return fmt.Sprintf("search:v1:%s:%s:%s", q.Origin, q.Destination, date)
}

func (q Query) filter() models.FlightFilter {
	return models.FlightFilter{Origin: q.Origin, Destination: q.Destination, Date: q.Date}
}

// Service answers searches from the cache and falls back to the store.
// Results may be up to TTL stale; the purchase flow never reads through it.
type Service struct {
	flights storage.FlightReader
	cache   cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewService creates a Service. A zero ttl uses DefaultTTL and a nil logger uses slog.Default.
func NewService(flights storage.FlightReader, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{flights: flights, cache: c, ttl: ttl, logger: logger}
}

// SearchFlights returns the flights matching q. Cache failures are logged and
// never surfaced; the store is authoritative.
func (s *Service) SearchFlights(ctx context.Context, q Query) ([]models.Flight, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	key := q.Key()

	var cached []models.Flight
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "search cache hit", "key", key)
		return cached, nil
	case errors.Is(err, cache.ErrNotFound):
		s.logger.DebugContext(ctx, "search cache miss", "key", key)
	default:
		s.logger.WarnContext(ctx, "search cache read failed", "key", key, "error", err)
	}

	flights, err := s.flights.ListFlights(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}

	if err := cache.SetJSON(ctx, s.cache, key, flights, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "search cache write failed", "key", key, "error", err)
	}
	return flights, nil
}

// SearchFlightsFresh bypasses the cache and reads the store directly.
func (s *Service) SearchFlightsFresh(ctx context.Context, q Query) ([]models.Flight, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	flights, err := s.flights.ListFlights(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return flights, nil
}
