// internal/risk/income.go
package risk

import (
	"fmt"

	"loan-risk-workers/internal/models"
)

const incomeAgent = "Income Agent"

const stabilityBonusMonths = 24

// IncomeScorer tiers monthly income and rewards long job stability.
type IncomeScorer struct {
	Policy Policy
}

func (IncomeScorer) Factor() models.Factor { return models.FactorIncome }

func (s IncomeScorer) Score(rec models.ApplicantRecord) (models.ScoreResult, error) {
	income := rec.MonthlyIncome
	if err := requireNonNegative("monthlyIncome", income); err != nil {
		return models.ScoreResult{}, err
	}
	stability := rec.StabilityOr(s.Policy.DefaultJobStabilityMonths)
	if err := requireNonNegativeInt("jobStabilityMonths", stability); err != nil {
		return models.ScoreResult{}, err
	}

	amount := formatAmount(income)

	var score int
	var status models.Status
	var reason string
	switch {
	case income >= 100000:
		score, status = 95, models.StatusPass
		reason = fmt.Sprintf("High stable income ₹%s/month.", amount)
	case income >= 50000:
		score, status = 85, models.StatusPass
		reason = fmt.Sprintf("Decent income ₹%s/month.", amount)
	case income >= 30000:
		score, status = 60, models.StatusWarn
		reason = fmt.Sprintf("Moderate income ₹%s/month, limited repayment capacity.", amount)
	default:
		score, status = 30, models.StatusFail
		reason = fmt.Sprintf("Low income ₹%s/month. High risk of default.", amount)
	}

	// status stays with the tier; the bonus only moves the number
	if stability >= stabilityBonusMonths {
		score += 5
		reason += " Long-term employment stability detected."
	}

	return models.ScoreResult{
		AgentName: incomeAgent,
		Score:     clamp(score, 0, 100),
		Status:    status,
		Reason:    reason,
	}, nil
}
