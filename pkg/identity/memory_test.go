package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMemoryProviderStoresBcryptHash(t *testing.T) {
	p := NewMemoryProvider()
	p.cost = bcrypt.MinCost

	require.NoError(t, p.Register(context.Background(), Credentials{Email: "ada@example.com", Password: "correct-horse"}, Profile{}))

	hash := p.users["ada@example.com"]
	assert.NotContains(t, string(hash), "correct-horse")
	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("correct-horse")))
	assert.ErrorIs(t, bcrypt.CompareHashAndPassword(hash, []byte("wrong-password")), bcrypt.ErrMismatchedHashAndPassword)
}
