package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
)

// Claims are the JWT claims of an access token. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HMAC-signed access tokens.
type JWTVerifier struct {
	secret []byte
	logger *zap.Logger
}

// NewJWTVerifier fails on an empty secret. A nil logger is allowed.
func NewJWTVerifier(secret string, logger *zap.Logger) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{secret: []byte(secret), logger: logger.Named("JWTVerifier")}, nil
}

// Verify validates token and returns its user. Every failure wraps
// domain.ErrUnauthorized.
func (v *JWTVerifier) Verify(_ context.Context, token string) (User, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(token)))
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		log.Warn("Failed to verify token", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return User{}, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return User{}, fmt.Errorf("%w: token malformed", domain.ErrUnauthorized)
		default:
			return User{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}
	if !parsed.Valid || claims.Subject == "" {
		log.Warn("Token has no subject")
		return User{}, fmt.Errorf("%w: subject missing", domain.ErrUnauthorized)
	}
	return User{ID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues an HS256 token for u that expires after ttl. It is used by
// the CLI and tests.
func (v *JWTVerifier) Sign(u User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func tokenSnippet(token string) string {
	const limit = 15
	if len(token) > limit {
		return token[:limit] + "..."
	}
	return token
}
