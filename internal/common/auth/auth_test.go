// internal/common/auth/auth_test.go
package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-risk-workers/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func introspectionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/lending/protocol/openid-connect/token/introspect", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "good-token", r.PostForm.Get("token"))
		assert.Equal(t, "risk-workers", r.PostForm.Get("client_id"))

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestKeycloakGate(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		scope     string
		wantCode  errors.ErrorCode
		wantAllow bool
	}{
		{"active token", http.StatusOK, `{"active":true,"scope":"openid loans:assess"}`, "loans:assess", "", true},
		{"no scope required", http.StatusOK, `{"active":true}`, "", "", true},
		{"inactive token", http.StatusOK, `{"active":false}`, "", errors.ErrCodeAccessDenied, false},
		{"missing scope", http.StatusOK, `{"active":true,"scope":"openid"}`, "loans:assess", errors.ErrCodeAccessDenied, false},
		{"keycloak down", http.StatusServiceUnavailable, `oops`, "", errors.ErrCodeExternalService, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := introspectionServer(t, tt.status, tt.body)
			defer server.Close()

			gate := NewKeycloakGate(server.URL+"/", "lending", "risk-workers", "secret", tt.scope)
			err := gate.Allow(context.Background(), "Bearer good-token")

			if tt.wantAllow {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestKeycloakGate_EmptyToken(t *testing.T) {
	gate := NewKeycloakGate("http://unused", "lending", "c", "s", "")
	err := gate.Allow(context.Background(), "  ")
	assert.True(t, stderrors.Is(err, errors.ErrAccessDenied))
}

func signed(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTGate(t *testing.T) {
	now := time.Now()
	gate := NewJWTGate("top-secret", "lending-portal", 0)

	valid := signed(t, "top-secret", jwt.RegisteredClaims{
		Issuer:    "lending-portal",
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	})
	assert.NoError(t, gate.Allow(context.Background(), "Bearer "+valid))

	tests := []struct {
		name  string
		token string
	}{
		{"expired", signed(t, "top-secret", jwt.RegisteredClaims{
			Issuer:    "lending-portal",
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Minute)),
		})},
		{"wrong secret", signed(t, "other", jwt.RegisteredClaims{
			Issuer:    "lending-portal",
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		})},
		{"wrong issuer", signed(t, "top-secret", jwt.RegisteredClaims{
			Issuer:    "elsewhere",
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		})},
		{"no expiry", signed(t, "top-secret", jwt.RegisteredClaims{Issuer: "lending-portal"})},
		{"garbage", "SuperSecureToken123:1700000000"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Allow(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrAccessDenied))
		})
	}
}

func TestOpenGate(t *testing.T) {
	assert.NoError(t, OpenGate{}.Allow(context.Background(), ""))
}
