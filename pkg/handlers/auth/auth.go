package auth

import (
	"log/slog"
	"net/http"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/loyalty"
	"github.com/chris/skymiles/pkg/mapping"
)

// AuthHandler registers and logs in users through the identity provider.
type AuthHandler struct {
	Loyalty *loyalty.Service
	Logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(loyaltySvc *loyalty.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{Loyalty: loyaltySvc, Logger: logger}
}

// Register creates the credentials and an empty loyalty account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	account, err := h.Loyalty.RegisterAccount(r.Context(), mapping.ToDomainRegistration(&req))
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, mapping.ToApiMilesBalance(account))
}

// Login authenticates the user and returns the token with the miles balance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	login, err := h.Loyalty.Authenticate(r.Context(), mapping.ToDomainCredentials(&req))
	if err != nil {
		mapping.WriteError(w, r, h.Logger, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, mapping.ToApiLoginResponse(login))
}
