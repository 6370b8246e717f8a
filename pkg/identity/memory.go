package identity

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryProvider keeps bcrypt password hashes in memory. It is meant for
// local development when no user pool is configured.
type MemoryProvider struct {
	mu    sync.Mutex
	users map[string][]byte
	cost  int
}

// Make sure we conform to the interface
var _ Provider = (*MemoryProvider)(nil)

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{users: make(map[string][]byte), cost: bcrypt.DefaultCost}
}

func (p *MemoryProvider) Register(_ context.Context, creds Credentials, _ Profile) error {
	if creds.Email == "" || len(creds.Password) < 8 {
		return fmt.Errorf("%w: email and a password of at least 8 characters are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return fmt.Errorf("%w: password is longer than 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to hash password: %v", ErrUnavailable, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.users[creds.Email]; exists {
		return ErrUserExists
	}
	p.users[creds.Email] = hash
	return nil
}

func (p *MemoryProvider) Authenticate(_ context.Context, creds Credentials) (*Session, error) {
	p.mu.Lock()
	hash, ok := p.users[creds.Email]
	p.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Session{AccessToken: hex.EncodeToString([]byte(uuid.NewString())), ExpiresIn: 3600}, nil
}
