package assessloanapplication

import (
	"context"

	"loan-risk-workers/internal/models"
	"loan-risk-workers/internal/predictor"
)

// Input is one application. The salary comes from the OCR result when it
// carries one, otherwise from the declared salary.
type Input struct {
	Token        string            `json:"token"`
	Applicant    string            `json:"applicant"`
	OCR          *models.OCRResult `json:"ocr,omitempty"`
	Salary       *float64          `json:"salary,omitempty"`
	CreditScore  int               `json:"creditScore"`
	LoanAmount   float64           `json:"loanAmount"`
	TenureMonths int               `json:"tenure"`
}

const (
	SalarySourceOCR      = "ocr"
	SalarySourceDeclared = "declared"
)

type Output struct {
	Applicant    string             `json:"applicant"`
	Salary       float64            `json:"salary"`
	SalarySource string             `json:"salarySource"`
	Prediction   models.Prediction  `json:"prediction"`
	Risk         models.RiskScreen  `json:"risk"`
	Explanation  models.Explanation `json:"explanation"`
}

// Gate authorises the caller token.
type Gate interface {
	Allow(ctx context.Context, token string) error
}

// Predictor is the external approve/reject model.
type Predictor interface {
	Predict(ctx context.Context, f predictor.Features) (models.Prediction, error)
}
