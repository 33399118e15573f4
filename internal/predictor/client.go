// internal/predictor/client.go
package predictor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"loan-risk-workers/internal/common/errors"
	commonhttp "loan-risk-workers/internal/common/http"
	"loan-risk-workers/internal/models"
)

// Features are the inputs the external credit model was trained on.
type Features struct {
	Salary       float64 `json:"salary"`
	CreditScore  int     `json:"credit_score"`
	LoanAmount   float64 `json:"loan_amount"`
	TenureMonths int     `json:"tenure"`
}

// Predictor returns an approve/reject verdict for one application.
type Predictor interface {
	Predict(ctx context.Context, f Features) (models.Prediction, error)
}

type verdict struct {
	Approved    *bool    `json:"approved"`
	Probability *float64 `json:"probability"`
}

// the model service either answers flat or wraps the verdict in "prediction"
type response struct {
	verdict
	Prediction *verdict `json:"prediction"`
}

type Client struct {
	http     *commonhttp.Client
	endpoint string
	apiKey   string
}

func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		http:     commonhttp.NewClient(timeout, maxRetries),
		endpoint: strings.TrimSuffix(baseURL, "/") + "/predict",
		apiKey:   apiKey,
	}
}

func (c *Client) Predict(ctx context.Context, f Features) (models.Prediction, error) {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var resp response
	if err := c.http.PostJSON(ctx, c.endpoint, f, &resp, headers); err != nil {
		stdErr := errors.NewPredictorFailedError(err)
		var t interface{ Transient() bool }
		if stderrors.As(err, &t) {
			stdErr.Retryable = t.Transient()
		}
		return models.Prediction{}, stdErr
	}

	v := resp.verdict
	if resp.Prediction != nil {
		v = *resp.Prediction
	}
	if v.Approved == nil {
		return models.Prediction{}, malformed(fmt.Errorf("response carried no decision"))
	}
	if v.Probability != nil && (*v.Probability < 0 || *v.Probability > 1) {
		return models.Prediction{}, malformed(fmt.Errorf("probability %v outside [0,1]", *v.Probability))
	}

	return models.Prediction{Approved: *v.Approved, Probability: v.Probability}, nil
}

// malformed reports a well-formed exchange with an unusable answer. Asking
// again returns the same answer.
func malformed(err error) *errors.StandardError {
	stdErr := errors.NewPredictorFailedError(err)
	stdErr.Retryable = false
	return stdErr
}
