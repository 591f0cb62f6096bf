package security

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestBcryptHasherCostFallback(t *testing.T) {
	// out-of-range costs fall back to the library default
	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1} {
		hash, err := BcryptHasher{Cost: cost}.Hash("longenough")
		require.NoError(t, err)
		actual, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, actual)
	}
}

func TestRandomTokenGenerator(t *testing.T) {
	gen := RandomTokenGenerator{}

	first, err := gen.NewToken()
	require.NoError(t, err)
	second, err := gen.NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	raw, err := base64.RawURLEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, defaultTokenBytes)
}

func TestRandomTokenGeneratorCustomSize(t *testing.T) {
	token, err := RandomTokenGenerator{Size: 16}.NewToken()
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 16)
}
