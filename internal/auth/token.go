package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token fails signature, structural, or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the token subject and its access scope alongside the
// registered JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Access string `json:"access"`
}

// TokenCodec issues and verifies signed identity tokens. The signing key is
// injected at construction; rotating it invalidates every outstanding token.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec signing with the given secret. A zero ttl
// issues tokens without an expiry.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Issue returns a signed token encoding the user id and access scope.
func (c *TokenCodec) Issue(userID, access string) (string, error) {
	// a fresh jti keeps every issued token distinct, even for the same user
	// within the same second
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Access: access,
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks the signature (and expiry when present) and returns the
// embedded claims. Any failure surfaces as ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
