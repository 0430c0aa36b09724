package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mediashelf/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasher_CostBounds(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost-1, 1)
	assert.Error(t, err)

	_, err = NewPasswordHasher(bcrypt.MaxCost+1, 1)
	assert.Error(t, err)

	h, err := NewPasswordHasher(bcrypt.MinCost, 0)
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestHashAndCompare(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "password123")
	require.NoError(t, err)
	assert.NotContains(t, hash, "password123")

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.Compare(ctx, hash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, hash, "password124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_IsSalted(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHash_TooLong(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(context.Background(), strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCompare_MalformedHash(t *testing.T) {
	h := newTestHasher(t)

	ok, err := h.Compare(context.Background(), "not-a-bcrypt-hash", "x")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestHash_CancelledContextWhileQueued(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "password123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareDummy_DoesNotPanic(t *testing.T) {
	newTestHasher(t).CompareDummy(context.Background(), "whatever")
}
