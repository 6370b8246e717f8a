package tickets

import (
	"log/slog"
	"net/http"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/mapping"
)

// TicketsHandler holds the dependencies for ticket purchases.
type TicketsHandler struct {
	Booking *booking.Service
	Logger  *slog.Logger
}

// NewTicketsHandler creates a new TicketsHandler.
func NewTicketsHandler(bookingSvc *booking.Service, logger *slog.Logger) *TicketsHandler {
	return &TicketsHandler{Booking: bookingSvc, Logger: logger}
}

// PurchaseTicket sells one seat, paid by currency or miles.
func (h *TicketsHandler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	var newTicket api.NewTicket
	if err := api.DecodeJSON(r, &newTicket); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	result, err := h.Booking.Purchase(r.Context(), mapping.ToDomainPurchaseRequest(&newTicket))
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, mapping.ToApiTicketReceipt(result))
}
