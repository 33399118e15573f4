// internal/common/auth/gate.go
package auth

import (
	"context"
	"strings"
)

// Gate decides whether a caller token may use the assessment workers.
// A nil error means allowed; denials are ACCESS_DENIED errors.
type Gate interface {
	Allow(ctx context.Context, token string) error
}

// OpenGate allows every request. It is used when auth is disabled.
type OpenGate struct{}

func (OpenGate) Allow(context.Context, string) error { return nil }

func bearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
