package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /auth/login)
	Login(w http.ResponseWriter, r *http.Request)
	// (POST /auth/register)
	Register(w http.ResponseWriter, r *http.Request)
	// (GET /flights)
	ListFlights(w http.ResponseWriter, r *http.Request, params ListFlightsParams)
	// (POST /flights)
	CreateFlight(w http.ResponseWriter, r *http.Request)
	// (DELETE /flights/{flightId})
	DeleteFlight(w http.ResponseWriter, r *http.Request, flightId string)
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /miles/{accountId})
	GetMiles(w http.ResponseWriter, r *http.Request, accountId string)
	// (POST /miles/{accountId}/credit)
	CreditMiles(w http.ResponseWriter, r *http.Request, accountId string)
	// (POST /miles/{accountId}/debit)
	DebitMiles(w http.ResponseWriter, r *http.Request, accountId string)
	// (GET /miles/{accountId}/history)
	GetMilesHistory(w http.ResponseWriter, r *http.Request, accountId string)
	// (GET /search/flights)
	SearchFlights(w http.ResponseWriter, r *http.Request, params SearchFlightsParams)
	// (POST /tickets)
	PurchaseTicket(w http.ResponseWriter, r *http.Request)
}

type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// Login operation middleware
func (siw *ServerInterfaceWrapper) Login(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Login)
}

// Register operation middleware
func (siw *ServerInterfaceWrapper) Register(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Register)
}

// ListFlights operation middleware
func (siw *ServerInterfaceWrapper) ListFlights(w http.ResponseWriter, r *http.Request) {
	var params ListFlightsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "from", query, &params.From); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "from", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "to", query, &params.To); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "to", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "date", query, &params.Date); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "date", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListFlights(w, r, params)
	})
}

// CreateFlight operation middleware
func (siw *ServerInterfaceWrapper) CreateFlight(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateFlight)
}

// DeleteFlight operation middleware
func (siw *ServerInterfaceWrapper) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	var flightId string
	if !siw.pathParam(w, r, "flightId", &flightId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteFlight(w, r, flightId)
	})
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetHealth)
}

// GetMiles operation middleware
func (siw *ServerInterfaceWrapper) GetMiles(w http.ResponseWriter, r *http.Request) {
	var accountId string
	if !siw.pathParam(w, r, "accountId", &accountId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetMiles(w, r, accountId)
	})
}

// CreditMiles operation middleware
func (siw *ServerInterfaceWrapper) CreditMiles(w http.ResponseWriter, r *http.Request) {
	var accountId string
	if !siw.pathParam(w, r, "accountId", &accountId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreditMiles(w, r, accountId)
	})
}

// DebitMiles operation middleware
func (siw *ServerInterfaceWrapper) DebitMiles(w http.ResponseWriter, r *http.Request) {
	var accountId string
	if !siw.pathParam(w, r, "accountId", &accountId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DebitMiles(w, r, accountId)
	})
}

// GetMilesHistory operation middleware
func (siw *ServerInterfaceWrapper) GetMilesHistory(w http.ResponseWriter, r *http.Request) {
	var accountId string
	if !siw.pathParam(w, r, "accountId", &accountId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetMilesHistory(w, r, accountId)
	})
}

// SearchFlights operation middleware
func (siw *ServerInterfaceWrapper) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var params SearchFlightsParams
	query := r.URL.Query()

	for _, required := range []string{"from", "to"} {
		if query.Get(required) == "" {
			siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: required})
			return
		}
	}
	if err := runtime.BindQueryParameter("form", true, true, "from", query, &params.From); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "from", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "to", query, &params.To); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "to", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "date", query, &params.Date); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "date", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "fresh", query, &params.Fresh); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "fresh", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchFlights(w, r, params)
	})
}

// PurchaseTicket operation middleware
func (siw *ServerInterfaceWrapper) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.PurchaseTicket)
}

type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("Query argument %s is required, but not found", e.ParamName)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// Handler creates http.Handler with routing matching the server interface.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux creates http.Handler with routing matching the server interface, based on the provided router.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			WriteError(w, http.StatusBadRequest, err.Error())
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/auth/login", wrapper.Login)
		r.Post(options.BaseURL+"/auth/register", wrapper.Register)
		r.Get(options.BaseURL+"/flights", wrapper.ListFlights)
		r.Post(options.BaseURL+"/flights", wrapper.CreateFlight)
		r.Delete(options.BaseURL+"/flights/{flightId}", wrapper.DeleteFlight)
		r.Get(options.BaseURL+"/health", wrapper.GetHealth)
		r.Get(options.BaseURL+"/miles/{accountId}", wrapper.GetMiles)
		r.Post(options.BaseURL+"/miles/{accountId}/credit", wrapper.CreditMiles)
		r.Post(options.BaseURL+"/miles/{accountId}/debit", wrapper.DebitMiles)
		r.Get(options.BaseURL+"/miles/{accountId}/history", wrapper.GetMilesHistory)
		r.Get(options.BaseURL+"/search/flights", wrapper.SearchFlights)
		r.Post(options.BaseURL+"/tickets", wrapper.PurchaseTicket)
	})

	return r
}
