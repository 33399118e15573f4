// internal/models/decision.go
package models

// Prediction is the external credit model's verdict.
type Prediction struct {
	Approved    bool     `json:"approved"`
	Probability *float64 `json:"probability,omitempty"`
}

// ExplanationFactors echoes the inputs behind an explanation.
type ExplanationFactors struct {
	Salary       float64 `json:"salary"`
	CreditScore  int     `json:"creditScore"`
	LoanAmount   float64 `json:"loanAmount"`
	TenureMonths int     `json:"tenure"`
	Ratio        float64 `json:"ratio"`
}

// Explanation lists the qualitative reasons behind an approve/reject decision.
type Explanation struct {
	Approved bool               `json:"approved"`
	Summary  string             `json:"summary"`
	Reasons  []string           `json:"reasons"`
	Text     string             `json:"explanation"`
	Factors  ExplanationFactors `json:"factors"`
}

type RiskLevel string

const (
	RiskNormal   RiskLevel = "Normal"
	RiskModerate RiskLevel = "Moderate Risk"
	RiskHigh     RiskLevel = "High Risk"
	RiskInvalid  RiskLevel = "Invalid"
)

// RiskScreen is the quick loan-to-income and credit screen.
type RiskScreen struct {
	Level   RiskLevel `json:"riskLevel"`
	Reasons []string  `json:"reasons"`
}
