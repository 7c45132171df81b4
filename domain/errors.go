package domain

import "errors"

var (
	ErrProviderExhausted = errors.New("provider-exhausted")
	ErrProviderTransport = errors.New("provider-transport-error")
)

var (
	DatabaseError      = errors.New("database-error")
	ErrSettingsMissing = errors.New("room-settings-not-found")
)

var (
	TokenError               = errors.New("token-error")
	ErrInvalidSigningMethod  = errors.New("invalid-signing-method")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)

var HashingError = errors.New("hashing-error")
