// Package identity delegates credential registration and authentication to an
// external identity provider.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrUserExists is returned when registering credentials that are already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput is returned when the provider rejects the request, e.g. a weak password.
	ErrInvalidInput = errors.New("invalid identity request")
	// ErrUnavailable is returned when the provider cannot be reached.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Credentials identify a user. Email is also the loyalty account ID.
type Credentials struct {
	Email    string
	Password string
}

// Profile holds the attributes stored alongside the credentials.
type Profile struct {
	FirstName string
	LastName  string
}

// Session is the result of a successful authentication.
type Session struct {
	AccessToken string
	IdToken     string
	ExpiresIn   int32
}

//go:generate go run github.com/vektra/mockery/v2 --name Provider --output mocks

// Provider is a synchronous identity provider.
type Provider interface {
	Register(ctx context.Context, creds Credentials, profile Profile) error
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
}
