package miles

import (
	"log/slog"
	"net/http"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/loyalty"
	"github.com/chris/skymiles/pkg/mapping"
)

// MilesHandler holds the dependencies for the loyalty ledger handlers.
type MilesHandler struct {
	Loyalty *loyalty.Service
	Logger  *slog.Logger
}

// NewMilesHandler creates a new MilesHandler.
func NewMilesHandler(loyaltySvc *loyalty.Service, logger *slog.Logger) *MilesHandler {
	return &MilesHandler{Loyalty: loyaltySvc, Logger: logger}
}

// GetMiles returns an account balance.
func (h *MilesHandler) GetMiles(w http.ResponseWriter, r *http.Request, accountId string) {
	account, err := h.Loyalty.Balance(r.Context(), accountId)
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiMilesBalance(account))
}

// GetMilesHistory returns the reconciled history. Unknown accounts get an empty list.
func (h *MilesHandler) GetMilesHistory(w http.ResponseWriter, r *http.Request, accountId string) {
	entries, err := h.Loyalty.History(r.Context(), accountId)
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiHistory(entries))
}

// CreditMiles is an admin operation that adds miles to an account.
func (h *MilesHandler) CreditMiles(w http.ResponseWriter, r *http.Request, accountId string) {
	var adj api.MilesAdjustment
	if err := api.DecodeJSON(r, &adj); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	account, err := h.Loyalty.Credit(r.Context(), accountId, adj.Amount)
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiMilesBalance(account))
}

// DebitMiles is an admin operation that removes miles from an account.
func (h *MilesHandler) DebitMiles(w http.ResponseWriter, r *http.Request, accountId string) {
	var adj api.MilesAdjustment
	if err := api.DecodeJSON(r, &adj); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	account, err := h.Loyalty.Debit(r.Context(), accountId, adj.Amount)
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiMilesBalance(account))
}
