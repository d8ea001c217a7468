// Package jwtauth issues and validates the bearer tokens that carry caller
// principals into the registry. HS256 with a shared signing key; the subject
// claim is the principal.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
)

type Claims struct {
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken mints a token whose subject is the caller principal. Used by
// operational tooling and tests; production deployments may bring their own
// issuer as long as the signing key matches.
func (s *Service) GenerateToken(principal string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken checks the signature and expiry and returns the caller
// principal from the subject claim.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeNotAuthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeNotAuthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeNotAuthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeNotAuthorized, "token has no subject")
	}
	return claims.Subject, nil
}
