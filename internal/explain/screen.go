// internal/explain/screen.go
package explain

import "loan-risk-workers/internal/models"

const (
	highRiskRatio     = 8
	moderateRiskRatio = 5
	veryLowCredit     = 600
	fairCredit        = 700
)

// Screen is a quick loan-to-income and credit check run before a decision
// is explained. It never fails; unusable input yields the Invalid level.
func Screen(salary, loanAmount float64, creditScore, tenureMonths int) models.RiskScreen {
	if salary <= 0 {
		return models.RiskScreen{Level: models.RiskInvalid, Reasons: []string{"Salary not detected"}}
	}
	if tenureMonths <= 0 {
		return models.RiskScreen{Level: models.RiskInvalid, Reasons: []string{"Tenure not provided"}}
	}

	level := models.RiskNormal
	var reasons []string

	ratio := LoanToIncomeRatio(salary, loanAmount, tenureMonths)
	switch {
	case ratio > highRiskRatio:
		level = models.RiskHigh
		reasons = append(reasons, "Loan-to-income ratio exceeds safe range (8x annual income)")
	case ratio > moderateRiskRatio:
		level = models.RiskModerate
		reasons = append(reasons, "Loan slightly above safe range (5–8x annual income)")
	}

	switch {
	case creditScore < veryLowCredit:
		level = models.RiskHigh
		reasons = append(reasons, "Very low credit score (<600)")
	case creditScore < fairCredit && level != models.RiskHigh:
		level = models.RiskModerate
		reasons = append(reasons, "Fair credit score (<700)")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "All inputs within safe range")
	}
	return models.RiskScreen{Level: level, Reasons: reasons}
}
