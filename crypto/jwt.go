package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// jwtCustomClaims is an unexported struct used for claims.
// Fields must be exported for JSON serialization.
type jwtCustomClaims struct {
	Subject string `json:"sub_id"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *JWTManager) Generate(subject string, now time.Time) (string, error) {
	claims := jwtCustomClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.TokenError, err)
	}
	return signedToken, nil
}

// Verify returns the token's subject if the token is valid.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is what we expect (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningMethod
		}
		return m.secretKey, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrExpiredToken
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return "", domain.ErrInvalidTokenSignature
	default:
		return "", domain.ErrCorruptedToken
	}

	if claims, ok := token.Claims.(*jwtCustomClaims); ok && token.Valid {
		return claims.Subject, nil
	}

	return "", domain.ErrCorruptedToken
}
