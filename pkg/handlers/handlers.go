package handlers

import (
	"log/slog"
	"net/http"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/handlers/auth"
	"github.com/chris/skymiles/pkg/handlers/flights"
	"github.com/chris/skymiles/pkg/handlers/miles"
	"github.com/chris/skymiles/pkg/handlers/tickets"
	"github.com/chris/skymiles/pkg/loyalty"
	"github.com/chris/skymiles/pkg/search"
)

// ApiHandler implements the server interface by composing the per-resource handlers.
type ApiHandler struct {
	*flights.FlightsHandler
	*tickets.TicketsHandler
	*miles.MilesHandler
	*auth.AuthHandler
}

// NewApiHandler creates a new ApiHandler from the application services.
func NewApiHandler(bookingSvc *booking.Service, searchSvc *search.Service, loyaltySvc *loyalty.Service, logger *slog.Logger) *ApiHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApiHandler{
		FlightsHandler: flights.NewFlightsHandler(bookingSvc, searchSvc, logger),
		TicketsHandler: tickets.NewTicketsHandler(bookingSvc, logger),
		MilesHandler:   miles.NewMilesHandler(loyaltySvc, logger),
		AuthHandler:    auth.NewAuthHandler(loyaltySvc, logger),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// GetHealth reports liveness.
func (h *ApiHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.Health{Status: "ok"})
}
