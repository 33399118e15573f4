// internal/intake/intake_test.go
package intake

import (
	stderrors "errors"
	"testing"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestFromRow_AllColumns(t *testing.T) {
	rec, err := FromRow("march.csv", Row{
		"name":              "Asha Rao",
		"salary":            "85,000",
		"age":               "34",
		"cibil_score":       "742",
		"employment_type":   "Self-Employed",
		"active_loans":      "1",
		"total_outstanding": "150000",
		"existing_emis":     "6500.50",
		"loan_amount":       "500000",
		"tenure_months":     "36",
		"job_stability":     "60",
	})
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", rec.Name)
	assert.Equal(t, 85000.0, rec.MonthlyIncome)
	assert.Equal(t, 34, rec.Age)
	assert.Equal(t, 742, rec.CreditScore)
	assert.Equal(t, "Self-Employed", rec.EmploymentType)
	assert.Equal(t, 1, rec.ActiveLoans)
	assert.Equal(t, 150000.0, rec.TotalOutstanding)
	assert.Equal(t, 6500.5, rec.ExistingEMIs)
	assert.Equal(t, 500000.0, rec.RequestedLoanAmount)
	assert.Equal(t, 36, rec.TenureMonths)
	require.NotNil(t, rec.JobStabilityMonths)
	assert.Equal(t, 60, *rec.JobStabilityMonths)
	assert.Equal(t, 5, rec.YearsExperience)
}

func TestFromRow_Defaults(t *testing.T) {
	rec, err := FromRow("march.csv", Row{"salary": "40000"})
	require.NoError(t, err)

	assert.Equal(t, "march.csv", rec.Name)
	assert.Equal(t, DefaultAge, rec.Age)
	assert.Equal(t, DefaultCreditScore, rec.CreditScore)
	assert.Equal(t, "salaried", rec.EmploymentType)
	assert.Equal(t, 0, rec.ActiveLoans)
	assert.Equal(t, 0.0, rec.TotalOutstanding)
	assert.Equal(t, 0.0, rec.ExistingEMIs)
	assert.Equal(t, 100000.0, rec.RequestedLoanAmount)
	assert.Equal(t, 12, rec.TenureMonths)
	assert.Equal(t, 24, *rec.JobStabilityMonths)
	assert.Equal(t, 2, rec.YearsExperience)
}

func TestFromRow_HeaderAliases(t *testing.T) {
	rec, err := FromRow("x.csv", Row{
		" Monthly Income ":    "52000",
		"CreditScore":         "610",
		"Years-Experience":    "7",
		"job_stability":       "12",
		"requestedLoanAmount": "250000",
	})
	require.NoError(t, err)

	assert.Equal(t, 52000.0, rec.MonthlyIncome)
	assert.Equal(t, 610, rec.CreditScore)
	assert.Equal(t, 7, rec.YearsExperience)
	assert.Equal(t, 250000.0, rec.RequestedLoanAmount)
}

func TestFromRow_MissingSalary(t *testing.T) {
	for _, row := range []Row{{"age": "30"}, {"salary": "  "}} {
		_, err := FromRow("x.csv", row)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
	}
}

func TestFromRow_BadNumbers(t *testing.T) {
	tests := []struct {
		name  string
		row   Row
		field string
	}{
		{"salary text", Row{"salary": "lots"}, "monthlyIncome"},
		{"fractional age", Row{"salary": "1000", "age": "30.5"}, "age"},
		{"tenure text", Row{"salary": "1000", "tenure_months": "one year"}, "tenureMonths"},
		{"emis text", Row{"salary": "1000", "existing_emis": "n/a"}, "existingEmis"},
		{"huge age", Row{"salary": "1000", "age": "1e20"}, "age"},
		{"huge negative age", Row{"salary": "1000", "age": "-1e20"}, "age"},
		{"tenure past int32", Row{"salary": "1000", "tenure_months": "2147483648"}, "tenureMonths"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRow("x.csv", tt.row)
			require.Error(t, err)

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
			assert.Equal(t, tt.field, stdErr.Metadata["field"])
		})
	}
}

func TestFromOCR(t *testing.T) {
	rec, err := FromOCR(models.OCRResult{Source: "slip-7.png", Salary: floatPtr(42000), Confidence: 0.91})
	require.NoError(t, err)

	assert.Equal(t, "slip-7.png", rec.Name)
	assert.Equal(t, 42000.0, rec.MonthlyIncome)
	assert.Equal(t, 750, rec.CreditScore)
	assert.Equal(t, 30, rec.Age)
	assert.Equal(t, "salaried", rec.EmploymentType)
	assert.Equal(t, 2, rec.YearsExperience)
	assert.Equal(t, 0, rec.ActiveLoans)
	assert.Equal(t, 200000.0, rec.RequestedLoanAmount)
	assert.Equal(t, 12, rec.TenureMonths)
	assert.Equal(t, 24, *rec.JobStabilityMonths)
}

func TestFromOCR_SalaryAbsent(t *testing.T) {
	_, err := FromOCR(models.OCRResult{Source: "blurry.jpg", RawText: "illegible"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSalaryNotDetected))
}

func TestRecordValidator(t *testing.T) {
	v := NewRecordValidator()

	valid, err := FromRow("x.csv", Row{"salary": "40000"})
	require.NoError(t, err)
	assert.NoError(t, v.Validate(valid))

	tests := []struct {
		name  string
		apply func(*models.ApplicantRecord)
		field string
	}{
		{"negative income", func(r *models.ApplicantRecord) { r.MonthlyIncome = -1 }, "monthlyIncome"},
		{"zero tenure", func(r *models.ApplicantRecord) { r.TenureMonths = 0 }, "tenureMonths"},
		{"zero loan", func(r *models.ApplicantRecord) { r.RequestedLoanAmount = 0 }, "requestedLoanAmount"},
		{"negative loans", func(r *models.ApplicantRecord) { r.ActiveLoans = -2 }, "activeLoans"},
		{"empty name", func(r *models.ApplicantRecord) { r.Name = "" }, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.apply(&rec)

			err := v.Validate(rec)
			require.Error(t, err)

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
			assert.Equal(t, tt.field, stdErr.Metadata["field"])
		})
	}
}
