package mapping

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/identity"
	"github.com/chris/skymiles/pkg/loyalty"
	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// ToApiFlight converts a domain Flight model to an API Flight model.
func ToApiFlight(f *models.Flight) *api.Flight {
	return &api.Flight{
		Id:            f.Id,
		Code:          f.Code,
		Origin:        f.Origin,
		Destination:   f.Destination,
		Date:          f.Date,
		Duration:      f.Duration,
		Price:         f.Price,
		BusinessPrice: f.BusinessPrice,
		Capacity:      f.Capacity,
		CreatedAt:     f.CreatedAt,
	}
}

// ToApiFlights converts a list of flights. A nil list becomes an empty one.
func ToApiFlights(flights []models.Flight) []*api.Flight {
	apiFlights := make([]*api.Flight, len(flights))
	for i := range flights {
		apiFlights[i] = ToApiFlight(&flights[i])
	}
	return apiFlights
}

// ToDomainFlightSpec converts an API NewFlight model to the booking input.
// A missing date stays empty so validation reports it.
func ToDomainFlightSpec(nf *api.NewFlight) booking.FlightSpec {
	var date string
	if !nf.Date.Time.IsZero() {
		date = nf.Date.String()
	}
	return booking.FlightSpec{
		Code:          nf.Code,
		Origin:        nf.Origin,
		Destination:   nf.Destination,
		Date:          date,
		Duration:      nf.Duration,
		Price:         nf.Price,
		BusinessPrice: nf.BusinessPrice,
		Capacity:      nf.Capacity,
	}
}

// ToApiPurchase converts a domain Purchase model to an API Purchase model.
func ToApiPurchase(p *models.Purchase) *api.Purchase {
	return &api.Purchase{
		Id:            p.Id,
		FlightId:      p.FlightId,
		AccountId:     p.AccountId,
		PassengerName: p.PassengerName,
		PaymentMethod: api.PaymentMethod(p.PaymentMethod),
		MilesDeducted: p.MilesDeducted,
		MilesEarned:   p.MilesEarned,
		Status:        api.PurchaseStatus(p.Status),
		CreatedAt:     p.CreatedAt,
		SettledAt:     p.SettledAt,
	}
}

// ToDomainPurchaseRequest converts an API NewTicket model to the booking input.
func ToDomainPurchaseRequest(nt *api.NewTicket) booking.PurchaseRequest {
	req := booking.PurchaseRequest{
		FlightId:      nt.FlightId,
		AccountId:     nt.AccountId,
		PaymentMethod: models.PaymentMethod(nt.PaymentMethod),
	}
	if nt.PassengerName != nil {
		req.PassengerName = *nt.PassengerName
	}
	return req
}

// ToApiTicketReceipt converts the result of a purchase.
func ToApiTicketReceipt(res *booking.PurchaseResult) *api.TicketReceipt {
	return &api.TicketReceipt{
		Flight:        *ToApiFlight(res.Flight),
		MilesDeducted: res.MilesDeducted,
		Purchase:      *ToApiPurchase(res.Purchase),
	}
}

// ToApiMilesBalance converts a domain Account model to an API MilesBalance model.
func ToApiMilesBalance(a *models.Account) *api.MilesBalance {
	return &api.MilesBalance{
		AccountId: a.Id,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Miles:     a.Miles,
	}
}

// ToApiHistory converts history rows, keeping their order.
func ToApiHistory(entries []models.HistoryEntry) []api.HistoryEntry {
	out := make([]api.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = api.HistoryEntry{
			Id:          e.Id,
			FlightCode:  e.FlightCode,
			Origin:      e.Origin,
			Destination: e.Destination,
			Date:        e.Date,
			Earned:      e.Earned,
			Settled:     e.Settled,
			Type:        api.HistoryEntryType(e.Type),
		}
	}
	return out
}

// ToDomainRegistration converts an API RegisterRequest model to the loyalty input.
func ToDomainRegistration(req *api.RegisterRequest) loyalty.Registration {
	return loyalty.Registration{
		Email:     string(req.Email),
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

// ToDomainCredentials converts an API LoginRequest model to identity credentials.
func ToDomainCredentials(req *api.LoginRequest) identity.Credentials {
	return identity.Credentials{Email: string(req.Email), Password: req.Password}
}

// ToApiLoginResponse converts a successful login.
func ToApiLoginResponse(login *loyalty.Login) *api.LoginResponse {
	return &api.LoginResponse{
		AccessToken: login.Session.AccessToken,
		IdToken:     login.Session.IdToken,
		ExpiresIn:   login.Session.ExpiresIn,
		Account:     *ToApiMilesBalance(login.Account),
	}
}

// ToHttpStatus maps a domain error to its HTTP status code.
func ToHttpStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrInvalidBody),
		errors.Is(err, storage.ErrValidation),
		errors.Is(err, identity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrCapacityExhausted),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrAlreadySettled),
		errors.Is(err, identity.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInsufficientMiles):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrTransient),
		errors.Is(err, identity.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with its mapped status. Server errors are logged and
// answered with a generic message so backend details do not leak.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := ToHttpStatus(err)
	if status >= http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		api.WriteError(w, status, http.StatusText(status))
		return
	}
	api.WriteError(w, status, err.Error())
}
