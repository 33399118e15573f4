// internal/predictor/client_test.go
package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-risk-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)

		var f Features
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f))
		assert.Equal(t, 45000.0, f.Salary)
		assert.Equal(t, 750, f.CreditScore)

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func features() Features {
	return Features{Salary: 45000, CreditScore: 750, LoanAmount: 500000, TenureMonths: 12}
}

func TestClient_Predict(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		approved    bool
		probability *float64
	}{
		{"flat", `{"approved":true,"probability":0.82}`, true, ptr(0.82)},
		{"wrapped", `{"status":"success","prediction":{"approved":false}}`, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := modelServer(t, http.StatusOK, tt.body)
			defer server.Close()

			p, err := NewClient(server.URL, "", time.Second, 0).Predict(context.Background(), features())
			require.NoError(t, err)
			assert.Equal(t, tt.approved, p.Approved)
			assert.Equal(t, tt.probability, p.Probability)
		})
	}
}

func TestClient_PredictFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"no decision", http.StatusOK, `{"status":"success"}`, false},
		{"bad probability", http.StatusOK, `{"approved":true,"probability":1.7}`, false},
		{"malformed body", http.StatusOK, `<html>upstream error</html>`, false},
		{"client error", http.StatusUnprocessableEntity, `bad features`, false},
		{"server error", http.StatusInternalServerError, `boom`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := modelServer(t, tt.status, tt.body)
			defer server.Close()

			_, err := NewClient(server.URL, "", time.Second, 0).Predict(context.Background(), features())
			require.Error(t, err)

			stdErr := errors.Normalize(err)
			assert.Equal(t, errors.ErrCodePredictorFailed, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func ptr(v float64) *float64 { return &v }
