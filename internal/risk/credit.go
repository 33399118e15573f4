// internal/risk/credit.go
package risk

import (
	"fmt"

	"loan-risk-workers/internal/models"
)

const creditAgent = "Credit History Agent"

// CreditHistoryScorer is a pure threshold lookup on the bureau score. The
// status label belongs to the tier, so 80 is reported as WARN here.
type CreditHistoryScorer struct{}

func (CreditHistoryScorer) Factor() models.Factor { return models.FactorCreditHistory }

func (CreditHistoryScorer) Score(rec models.ApplicantRecord) (models.ScoreResult, error) {
	cs := rec.CreditScore

	var score int
	var status models.Status
	var reason string
	switch {
	case cs >= 750:
		score, status = 95, models.StatusPass
		reason = fmt.Sprintf("Excellent CIBIL score (%d). Low credit risk.", cs)
	case cs >= 700:
		score, status = 80, models.StatusWarn
		reason = fmt.Sprintf("Good CIBIL score (%d). Slight caution advised.", cs)
	case cs >= 650:
		score, status = 55, models.StatusWarn
		reason = fmt.Sprintf("Moderate CIBIL score (%d). Needs close review.", cs)
	default:
		score, status = 20, models.StatusFail
		reason = fmt.Sprintf("Poor CIBIL score (%d). High default probability.", cs)
	}

	return models.ScoreResult{
		AgentName: creditAgent,
		Score:     score,
		Status:    status,
		Reason:    reason,
	}, nil
}
