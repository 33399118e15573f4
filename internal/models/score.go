// internal/models/score.go
package models

// Status is the three-tier band derived from a 0-100 score.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

const (
	PassThreshold = 80
	WarnThreshold = 60
)

// StatusForScore applies the 80/60 cutoffs.
func StatusForScore(score int) Status {
	return StatusForAverage(float64(score))
}

// StatusForAverage applies the 80/60 cutoffs to a fractional score.
func StatusForAverage(score float64) Status {
	switch {
	case score >= PassThreshold:
		return StatusPass
	case score >= WarnThreshold:
		return StatusWarn
	default:
		return StatusFail
	}
}

// Factor names one of the six scoring dimensions.
type Factor string

const (
	FactorCreditHistory Factor = "creditHistory"
	FactorIncome        Factor = "income"
	FactorDTI           Factor = "debtToIncome"
	FactorEmployment    Factor = "employment"
	FactorExistingLoans Factor = "existingLoans"
	FactorAge           Factor = "age"
)

// AllFactors lists the factors in reporting order.
var AllFactors = []Factor{
	FactorCreditHistory,
	FactorIncome,
	FactorDTI,
	FactorEmployment,
	FactorExistingLoans,
	FactorAge,
}

// ScoreResult is the output of a single scorer.
type ScoreResult struct {
	AgentName string     `json:"agentName"`
	Score     int        `json:"score"`
	Status    Status     `json:"status"`
	Reason    string     `json:"reason"`
	Raw       *DTIDetail `json:"raw,omitempty"`
}

// DTIDetail carries the intermediate values of the debt-to-income scorer.
type DTIDetail struct {
	MonthlyIncome float64 `json:"monthlyIncome"`
	ExistingEMIs  float64 `json:"existingEmis"`
	NewEMI        float64 `json:"newEmi"`
	TotalEMI      float64 `json:"totalEmi"`
	DTIRatio      float64 `json:"dtiRatio"`
}

// AggregateResult is the immutable per-applicant snapshot of all six factors.
type AggregateResult struct {
	Applicant    string                 `json:"applicant"`
	Factors      map[Factor]ScoreResult `json:"factors"`
	AverageScore float64                `json:"averageScore"`
}

// Band is the decision band for the aggregate.
func (a AggregateResult) Band() Status {
	return StatusForAverage(a.AverageScore)
}
