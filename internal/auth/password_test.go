package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	for _, pw := range []string{"secret123", "", "пароль"} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.True(t, h.Verify(pw, hash), "password %q should verify", pw)
		assert.False(t, h.Verify(pw+"!", hash))
	}
}

func TestHasher_RejectsSuffixBeyondBcryptLimit(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	pw := strings.Repeat("a", 72)
	hash, err := h.Hash(pw)
	require.NoError(t, err)

	assert.True(t, h.Verify(pw, hash))
	assert.False(t, h.Verify(pw+"DIFFERENT", hash))
	assert.False(t, h.Verify(pw+"a", hash))
}

func TestHasher_SaltsEachHash(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_RejectsOverlongPassword(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestHasher_MalformedHashNeverMatches(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("secret", ""))
	assert.False(t, h.Verify("secret", "not-a-bcrypt-hash"))
}

func TestNewHasher_CostOutOfRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCost, NewHasher(0).cost)
	assert.Equal(t, DefaultCost, NewHasher(99).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}
