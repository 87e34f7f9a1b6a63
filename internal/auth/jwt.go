package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lalith-99/storefront/internal/models"
)

const issuer = "storefront"

// Claims is the payload of an identity token. The custom claims snapshot
// is taken when the token is issued; a forced refresh issues a new token
// with the current values.
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	models.Claims
	jwt.RegisteredClaims
}

// PrincipalID is the token subject.
func (c *Claims) PrincipalID() string {
	return c.Subject
}

// Principal rebuilds the principal the token was issued for.
func (c *Claims) Principal() models.Principal {
	return models.Principal{ID: c.Subject, Email: c.Email, DisplayName: c.DisplayName}
}

// GenerateToken signs an HS256 token for principal carrying custom claims.
// Every token gets a fresh ID so it can be revoked on sign-out.
func GenerateToken(principal models.Principal, custom models.Claims, secret string, ttl time.Duration) (string, *Claims, error) {
	if secret == "" {
		return "", nil, errors.New("sign token: empty secret")
	}
	now := time.Now()

	claims := &Claims{
		Email:       principal.Email,
		DisplayName: principal.DisplayName,
		Claims:      custom,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// ParseToken verifies signature, expiry, issuer and signing method, and
// returns the claims. Tokens without a subject or an id are rejected.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			// Only HMAC; "none" and asymmetric algorithms are rejected here.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token has no id")
	}

	return claims, nil
}
