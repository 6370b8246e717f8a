package flights

import (
	"log/slog"
	"net/http"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/mapping"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/search"
)

// FlightsHandler holds the dependencies for flight-related handlers.
type FlightsHandler struct {
	Booking *booking.Service
	Search  *search.Service
	Logger  *slog.Logger
}

// NewFlightsHandler creates a new FlightsHandler.
func NewFlightsHandler(bookingSvc *booking.Service, searchSvc *search.Service, logger *slog.Logger) *FlightsHandler {
	return &FlightsHandler{Booking: bookingSvc, Search: searchSvc, Logger: logger}
}

// CreateFlight handles the logic for adding a flight to the inventory.
func (h *FlightsHandler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var newFlight api.NewFlight
	if err := api.DecodeJSON(r, &newFlight); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	created, err := h.Booking.CreateFlight(r.Context(), mapping.ToDomainFlightSpec(&newFlight))
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, mapping.ToApiFlight(created))
}

// ListFlights returns the authoritative inventory, optionally filtered.
func (h *FlightsHandler) ListFlights(w http.ResponseWriter, r *http.Request, params api.ListFlightsParams) {
	var filter models.FlightFilter
	if params.From != nil {
		filter.Origin = *params.From
	}
	if params.To != nil {
		filter.Destination = *params.To
	}
	if params.Date != nil {
		filter.Date = params.Date.String()
	}

	flights, err := h.Booking.ListFlights(r.Context(), filter)
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiFlights(flights))
}

// DeleteFlight handles the logic for removing a flight.
func (h *FlightsHandler) DeleteFlight(w http.ResponseWriter, r *http.Request, flightId string) {
	if err := h.Booking.DeleteFlight(r.Context(), flightId); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchFlights answers a route search from the cache. fresh=true reads the
// store directly.
func (h *FlightsHandler) SearchFlights(w http.ResponseWriter, r *http.Request, params api.SearchFlightsParams) {
	q := search.Query{Origin: params.From, Destination: params.To}
	if params.Date != nil {
		q.Date = params.Date.String()
	}

	find := h.Search.SearchFlights
	if params.Fresh != nil && *params.Fresh {
		find = h.Search.SearchFlightsFresh
	}

	flights, err := find(r.Context(), q)
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiFlights(flights))
}
