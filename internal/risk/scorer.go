// internal/risk/scorer.go
package risk

import (
	"fmt"
	"math"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
)

// Scorer maps an applicant to one bounded factor score.
type Scorer interface {
	Factor() models.Factor
	Score(rec models.ApplicantRecord) (models.ScoreResult, error)
}

// Scorers returns the six factor scorers in reporting order.
func Scorers(policy Policy) []Scorer {
	return []Scorer{
		CreditHistoryScorer{},
		IncomeScorer{Policy: policy},
		DTIScorer{Policy: policy},
		EmploymentScorer{},
		ExistingLoansScorer{Policy: policy},
		AgeScorer{},
	}
}

func requireNonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NewInvalidInputError(field, fmt.Sprintf("must be a non-negative amount, got %v", v))
	}
	return nil
}

func requireNonNegativeInt(field string, v int) error {
	if v < 0 {
		return errors.NewInvalidInputError(field, fmt.Sprintf("must be non-negative, got %d", v))
	}
	return nil
}

// result builds a ScoreResult with the score clamped and the status derived
// from the clamped score.
func result(agent string, score int, reason string) models.ScoreResult {
	score = clamp(score, 0, 100)
	return models.ScoreResult{
		AgentName: agent,
		Score:     score,
		Status:    models.StatusForScore(score),
		Reason:    reason,
	}
}
