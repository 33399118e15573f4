// internal/risk/dti.go
package risk

import (
	"fmt"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
)

const dtiAgent = "DTI Agent"

// DTIScorer rates total monthly obligations, including the EMI of the loan
// being requested, against monthly income.
type DTIScorer struct {
	Policy Policy
}

func (DTIScorer) Factor() models.Factor { return models.FactorDTI }

func (s DTIScorer) Score(rec models.ApplicantRecord) (models.ScoreResult, error) {
	if err := requireNonNegative("monthlyIncome", rec.MonthlyIncome); err != nil {
		return models.ScoreResult{}, err
	}
	if rec.MonthlyIncome == 0 {
		return models.ScoreResult{}, errors.NewInvalidInputError("monthlyIncome", "must be positive to compute a debt-to-income ratio")
	}
	if err := requireNonNegative("existingEmis", rec.ExistingEMIs); err != nil {
		return models.ScoreResult{}, err
	}

	newEMI, err := CalculateEMI(rec.RequestedLoanAmount, s.Policy.NewLoanAnnualRate, rec.TenureMonths)
	if err != nil {
		return models.ScoreResult{}, err
	}

	total := rec.ExistingEMIs + newEMI
	if !isFinite(total) {
		return models.ScoreResult{}, errors.NewInvalidInputError("existingEmis", fmt.Sprintf("monthly obligations out of range: %v + %v", rec.ExistingEMIs, newEMI))
	}
	dti := total / rec.MonthlyIncome
	if !isFinite(dti) {
		return models.ScoreResult{}, errors.NewInvalidInputError("monthlyIncome", fmt.Sprintf("too small for a debt-to-income ratio: %v", rec.MonthlyIncome))
	}

	score, status, verdict := DTIBand(dti)

	return models.ScoreResult{
		AgentName: dtiAgent,
		Score:     score,
		Status:    status,
		Reason:    fmt.Sprintf("DTI ratio %.2f is %s", dti, verdict),
		Raw: &models.DTIDetail{
			MonthlyIncome: rec.MonthlyIncome,
			ExistingEMIs:  rec.ExistingEMIs,
			NewEMI:        Round2(newEMI),
			TotalEMI:      Round2(total),
			DTIRatio:      Round2(dti),
		},
	}, nil
}

// DTIBand maps a debt-to-income ratio to its score, tier status and verdict.
// Upper bounds are inclusive.
func DTIBand(dti float64) (int, models.Status, string) {
	switch {
	case dti <= 0.35:
		return 95, models.StatusPass, "healthy. Low debt burden."
	case dti <= 0.45:
		return 75, models.StatusWarn, "moderate. Manageable risk."
	case dti <= 0.6:
		return 50, models.StatusWarn, "high. Monitor closely."
	default:
		return 20, models.StatusFail, "too high. Likely over-leveraged."
	}
}
