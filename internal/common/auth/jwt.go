// internal/common/auth/jwt.go
package auth

import (
	"context"
	"fmt"
	"time"

	"loan-risk-workers/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
)

// JWTGate validates HMAC-signed tokens locally. Tokens must carry an expiry
// and, when configured, the expected issuer.
type JWTGate struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewJWTGate(secret, issuer string, leeway time.Duration) *JWTGate {
	return &JWTGate{secret: []byte(secret), issuer: issuer, leeway: leeway}
}

func (g *JWTGate) Allow(_ context.Context, token string) error {
	token = bearer(token)
	if token == "" {
		return errors.NewAccessDeniedError("missing token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(g.leeway),
	}
	if g.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.issuer))
	}

	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, opts...)
	if err != nil {
		return errors.NewAccessDeniedError(fmt.Sprintf("invalid token: %v", err))
	}
	return nil
}
