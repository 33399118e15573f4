// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"loan-risk-workers/internal/common/errors"
	commonhttp "loan-risk-workers/internal/common/http"
)

// KeycloakGate validates tokens through Keycloak's introspection endpoint.
type KeycloakGate struct {
	baseURL       string
	realm         string
	clientID      string
	clientSecret  string
	requiredScope string
	httpClient    *commonhttp.Client
}

func NewKeycloakGate(baseURL, realm, clientID, clientSecret, requiredScope string) *KeycloakGate {
	return &KeycloakGate{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		realm:         realm,
		clientID:      clientID,
		clientSecret:  clientSecret,
		requiredScope: requiredScope,
		httpClient:    commonhttp.NewClient(10*time.Second, 0),
	}
}

func (k *KeycloakGate) Allow(ctx context.Context, token string) error {
	token = bearer(token)
	if token == "" {
		return errors.NewAccessDeniedError("missing token")
	}

	info, err := k.ValidateToken(ctx, token)
	if err != nil {
		return err
	}
	if k.requiredScope != "" && !info.HasScope(k.requiredScope) {
		return errors.NewAccessDeniedError(fmt.Sprintf("token lacks scope %q", k.requiredScope))
	}
	return nil
}

// ValidateToken checks if an access token is valid and active.
func (k *KeycloakGate) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("token_type_hint", "access_token")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		stdErr := errors.NewExternalServiceError("keycloak", fmt.Errorf("introspection status %d: %s", resp.StatusCode, string(body)))
		stdErr.Retryable = commonhttp.IsTransientStatus(resp.StatusCode)
		return nil, stdErr
	}

	var tokenInfo TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errors.NewExternalServiceError("keycloak", fmt.Errorf("decode introspection response: %w", err))
	}

	if !tokenInfo.Active {
		return nil, errors.NewAccessDeniedError("token is expired, revoked or malformed")
	}

	return &tokenInfo, nil
}

// TokenInfo holds the information returned by the token introspection endpoint.
type TokenInfo struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Iss       string `json:"iss,omitempty"`
}

// HasScope reports whether the space-separated scope list contains s.
func (t *TokenInfo) HasScope(s string) bool {
	for _, sc := range strings.Fields(t.Scope) {
		if sc == s {
			return true
		}
	}
	return false
}
