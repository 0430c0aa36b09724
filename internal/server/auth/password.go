package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediashelf/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
// The number of hash computations running at once is capped, callers queue
// on the semaphore and give up when their context ends.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher validates cost and prepares a throwaway hash used to
// keep unknown-account logins as slow as real ones.
func NewPasswordHasher(cost, concurrency int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, err
	}

	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency)), dummy: dummy}, nil
}

// Hash returns the bcrypt hash of password. A fresh salt is drawn each call.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, MaxPasswordBytes)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash, err := bcrypt.GenerateFromPassword(pw, h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. A mismatch is not an error.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// CompareDummy burns one comparison against the throwaway hash.
func (h *PasswordHasher) CompareDummy(ctx context.Context, password string) {
	_, _ = h.Compare(ctx, string(h.dummy), password)
}
