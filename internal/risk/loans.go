// internal/risk/loans.go
package risk

import (
	"fmt"

	"loan-risk-workers/internal/models"
)

const existingLoansAgent = "Existing Loans Agent"

// ExistingLoansScorer rates the liability already carried by the applicant.
// The EMI burden check compares against Policy.ReferenceIncome, not the
// applicant's own income.
type ExistingLoansScorer struct {
	Policy Policy
}

func (ExistingLoansScorer) Factor() models.Factor { return models.FactorExistingLoans }

func (s ExistingLoansScorer) Score(rec models.ApplicantRecord) (models.ScoreResult, error) {
	if err := requireNonNegativeInt("activeLoans", rec.ActiveLoans); err != nil {
		return models.ScoreResult{}, err
	}
	if err := requireNonNegative("totalOutstanding", rec.TotalOutstanding); err != nil {
		return models.ScoreResult{}, err
	}
	if err := requireNonNegative("existingEmis", rec.ExistingEMIs); err != nil {
		return models.ScoreResult{}, err
	}

	loans, outstanding := rec.ActiveLoans, rec.TotalOutstanding

	var score int
	var reason string
	switch {
	case loans == 0:
		score, reason = 95, "No active loans. Excellent repayment capacity."
	case loans == 1 && outstanding < 300000:
		score, reason = 80, "One small existing loan. Manageable risk."
	case loans <= 3 && outstanding < 1000000:
		score, reason = 60, fmt.Sprintf("%d active loans. Moderate liability.", loans)
	default:
		score = 30
		reason = fmt.Sprintf("%d active loans with ₹%s outstanding. High liability risk.", loans, formatAmount(outstanding))
	}

	if rec.ExistingEMIs > s.Policy.EMIBurdenLimit() {
		score -= 10
		reason += fmt.Sprintf(" EMI burden exceeds %s%% threshold.", formatAmount(Round2(s.Policy.EMIBurdenRatio*100)))
	}

	return result(existingLoansAgent, score, reason), nil
}
