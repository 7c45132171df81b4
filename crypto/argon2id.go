package crypto

import (
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// HasherParams tunes the argon2id cost. Memory is in kibibytes.
type HasherParams struct {
	Iterations  uint32
	Memory      uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasherParams is the interactive-login cost profile the ops
// surface runs with.
func DefaultHasherParams() HasherParams {
	return HasherParams{
		Iterations:  3,
		Memory:      64 * 1024,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type Argon2idHasher struct {
	params *argon2id.Params
}

func NewArgon2idHasher(p HasherParams) *Argon2idHasher {
	return &Argon2idHasher{
		params: &argon2id.Params{
			Memory:      p.Memory,
			Iterations:  p.Iterations,
			Parallelism: p.Parallelism,
			SaltLength:  p.SaltLength,
			KeyLength:   p.KeyLength,
		},
	}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.HashingError, err)
	}
	return hash, nil
}

// Compare verifies a password against a hash.
func (h *Argon2idHasher) Compare(hash, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.HashingError, err)
	}
	return match, nil
}
