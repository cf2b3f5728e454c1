package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// defaultAccessTTL applies when the configured TTL is missing or negative.
const defaultAccessTTL = 15 * time.Minute

// ticketBytes is the entropy of a WebSocket ticket before hex encoding.
const ticketBytes = 32

// CustomClaims is the access-token payload: the standard registered
// claims plus the caller's role and a session identifier.
type CustomClaims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	SessionID string `json:"sid"`
}

// GenerateAccessToken signs a short-lived HS256 token for user. The
// username travels as the subject, so handlers can authorise a request
// without any account lookup.
func GenerateAccessToken(user *User, secret string, ttlMinutes int) (string, error) {
	ttl := time.Duration(ttlMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}

	issued := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role:      user.Role,
		SessionID: uuid.NewString(),
	})

	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}

// GenerateTicket returns 256 bits of hex-encoded randomness. Tickets
// authenticate WebSocket upgrades, where a browser cannot attach the
// Authorization header.
func GenerateTicket() (string, error) {
	b := make([]byte, ticketBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating ticket: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseToken verifies signature and expiry, then checks the claims every
// token minted here carries. Expiry surfaces as ErrTokenExpired; every
// other failure wraps ErrTokenInvalid.
func ParseToken(tokenString, secret string) (*CustomClaims, error) {
	keyFn := func(_ *jwt.Token) (any, error) { return []byte(secret), nil }

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, keyFn,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	switch {
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: no subject claim", ErrTokenInvalid)
	case claims.Role == "":
		return nil, fmt.Errorf("%w: no role claim", ErrTokenInvalid)
	}

	return claims, nil
}
