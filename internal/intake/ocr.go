// internal/intake/ocr.go
package intake

import (
	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
)

// Profile filled in for applicants known only from a salary slip.
const (
	ocrCreditScore     = 750
	ocrJobStability    = 24
	ocrLoanAmount      = 200000
	ocrTenureMonths    = 12
	ocrYearsExperience = 2
	ocrAge             = 30
)

// FromOCR turns an OCR result into a record using the standard salary-slip
// profile. A result without a salary cannot be scored.
func FromOCR(res models.OCRResult) (models.ApplicantRecord, error) {
	if res.Salary == nil {
		return models.ApplicantRecord{}, errors.NewSalaryNotDetectedError(res.Source)
	}

	stability := ocrJobStability
	return models.ApplicantRecord{
		Name:                res.Source,
		Age:                 ocrAge,
		MonthlyIncome:       *res.Salary,
		CreditScore:         ocrCreditScore,
		EmploymentType:      string(models.EmploymentSalaried),
		YearsExperience:     ocrYearsExperience,
		ActiveLoans:         0,
		TotalOutstanding:    0,
		ExistingEMIs:        0,
		RequestedLoanAmount: ocrLoanAmount,
		TenureMonths:        ocrTenureMonths,
		JobStabilityMonths:  &stability,
	}, nil
}
