// internal/risk/employment.go
package risk

import (
	"fmt"
	"strings"

	"loan-risk-workers/internal/models"
)

const employmentAgent = "Employment Agent"

// EmploymentScorer scores the employment type and adjusts for experience.
// Unlike IncomeScorer, the status is derived after the adjustment.
type EmploymentScorer struct{}

func (EmploymentScorer) Factor() models.Factor { return models.FactorEmployment }

func (EmploymentScorer) Score(rec models.ApplicantRecord) (models.ScoreResult, error) {
	if err := requireNonNegativeInt("yearsExperience", rec.YearsExperience); err != nil {
		return models.ScoreResult{}, err
	}

	var score int
	var reason string
	switch models.EmploymentType(strings.ToLower(strings.TrimSpace(rec.EmploymentType))) {
	case models.EmploymentSalaried:
		score, reason = 90, "Salaried employment offers stable income."
	case models.EmploymentSelfEmployed:
		score, reason = 70, "Self-employed applicant. Income stability depends on business continuity."
	case models.EmploymentContract:
		score, reason = 50, "Contract-based employment detected. Limited job security."
	default:
		score, reason = 40, fmt.Sprintf("Unknown employment type: %s", rec.EmploymentType)
	}

	switch {
	case rec.YearsExperience >= 5:
		score += 10
		reason += " +5 years experience adds reliability."
	case rec.YearsExperience < 1:
		score -= 10
		reason += " Less than 1 year experience increases risk."
	}

	return result(employmentAgent, score, reason), nil
}
