// internal/models/applicant.go
package models

// EmploymentType is the applicant's declared employment category.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentSelfEmployed EmploymentType = "self-employed"
	EmploymentContract     EmploymentType = "contract"
)

// ApplicantRecord is one applicant as produced by the intake layer.
// Currency amounts are in the lender's base currency.
type ApplicantRecord struct {
	Name                string  `json:"name"`
	Age                 int     `json:"age"`
	MonthlyIncome       float64 `json:"monthlyIncome"`
	CreditScore         int     `json:"creditScore"`
	EmploymentType      string  `json:"employmentType"`
	YearsExperience     int     `json:"yearsExperience"`
	ActiveLoans         int     `json:"activeLoans"`
	TotalOutstanding    float64 `json:"totalOutstanding"`
	ExistingEMIs        float64 `json:"existingEmis"`
	RequestedLoanAmount float64 `json:"requestedLoanAmount"`
	TenureMonths        int     `json:"tenureMonths"`
	// JobStabilityMonths is nil when the source did not report it.
	JobStabilityMonths *int `json:"jobStabilityMonths,omitempty"`
}

// StabilityOr returns the reported job stability or def when absent.
func (r ApplicantRecord) StabilityOr(def int) int {
	if r.JobStabilityMonths == nil {
		return def
	}
	return *r.JobStabilityMonths
}

// OCRResult is what the salary-slip OCR collaborator hands back.
type OCRResult struct {
	Source     string   `json:"source"`
	Salary     *float64 `json:"salary"`
	Confidence float64  `json:"confidence"`
	RawText    string   `json:"rawText"`
}
