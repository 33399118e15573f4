// internal/risk/dti_test.go
package risk

import (
	stderrors "errors"
	"math"
	"testing"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateEMI_ZeroRate(t *testing.T) {
	emi, err := CalculateEMI(100000, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, 100000.0/12, emi)
}

func TestCalculateEMI_ClosedForm(t *testing.T) {
	tests := []struct {
		principal float64
		rate      float64
		tenure    int
	}{
		{100000, 10, 12},
		{500000, 8.5, 60},
		{2500000, 7.25, 240},
		{1000, 36, 1},
	}

	for _, tt := range tests {
		emi, err := CalculateEMI(tt.principal, tt.rate, tt.tenure)
		require.NoError(t, err)

		r := tt.rate / 12 / 100
		n := float64(tt.tenure)
		want := tt.principal * r * math.Pow(1+r, n) / (math.Pow(1+r, n) - 1)
		assert.InEpsilon(t, want, emi, 1e-6)
	}
}

func TestCalculateEMI_KnownValue(t *testing.T) {
	emi, err := CalculateEMI(100000, 10, 12)
	require.NoError(t, err)
	assert.Equal(t, 8791.59, Round2(emi))
}

func TestCalculateEMI_InvalidTenure(t *testing.T) {
	for _, tenure := range []int{0, -12} {
		_, err := CalculateEMI(100000, 10, tenure)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
	}
}

func TestCalculateEMI_LongTenure(t *testing.T) {
	// (1+r)^n overflows; the installment converges to the monthly interest.
	emi, err := CalculateEMI(100000, 10, 100000)
	require.NoError(t, err)
	assert.InEpsilon(t, 100000*10.0/1200, emi, 1e-9)
}

func TestCalculateEMI_OutOfRange(t *testing.T) {
	_, err := CalculateEMI(math.MaxFloat64, 10, 1)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}

func TestRound2_NonFinite(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, math.IsInf(Round2(math.Inf(1)), 1))
		assert.True(t, math.IsInf(Round2(math.Inf(-1)), -1))
		assert.True(t, math.IsNaN(Round2(math.NaN())))
	})
	assert.Equal(t, 2.35, Round2(2.345))
}

func TestDTIBand_Boundaries(t *testing.T) {
	tests := []struct {
		dti        float64
		wantScore  int
		wantStatus models.Status
	}{
		{0.0, 95, models.StatusPass},
		{0.35, 95, models.StatusPass},
		{0.36, 75, models.StatusWarn},
		{0.45, 75, models.StatusWarn},
		{0.46, 50, models.StatusWarn},
		{0.6, 50, models.StatusWarn},
		{0.61, 20, models.StatusFail},
		{3.0, 20, models.StatusFail},
	}

	prev := 100
	for _, tt := range tests {
		score, status, verdict := DTIBand(tt.dti)
		assert.Equal(t, tt.wantScore, score, "dti %.2f", tt.dti)
		assert.Equal(t, tt.wantStatus, status, "dti %.2f", tt.dti)
		assert.NotEmpty(t, verdict)
		assert.LessOrEqual(t, score, prev, "score must not increase with dti")
		prev = score
	}
}

func TestDTIScorer_RawDetail(t *testing.T) {
	rec := baseRecord()
	rec.MonthlyIncome = 50000
	rec.ExistingEMIs = 5000
	rec.RequestedLoanAmount = 100000
	rec.TenureMonths = 12

	r, err := DTIScorer{Policy: DefaultPolicy()}.Score(rec)
	require.NoError(t, err)

	require.NotNil(t, r.Raw)
	assert.Equal(t, 50000.0, r.Raw.MonthlyIncome)
	assert.Equal(t, 5000.0, r.Raw.ExistingEMIs)
	assert.Equal(t, 8791.59, r.Raw.NewEMI)
	assert.Equal(t, 13791.59, r.Raw.TotalEMI)
	assert.Equal(t, 0.28, r.Raw.DTIRatio)

	assert.Equal(t, 95, r.Score)
	assert.Equal(t, models.StatusPass, r.Status)
	assert.Equal(t, "DTI ratio 0.28 is healthy. Low debt burden.", r.Reason)
}

func TestDTIScorer_ExactBoundary(t *testing.T) {
	// A zero principal leaves only the existing EMIs in the ratio.
	rec := baseRecord()
	rec.MonthlyIncome = 50000
	rec.RequestedLoanAmount = 0
	rec.ExistingEMIs = 17500

	r, err := DTIScorer{Policy: DefaultPolicy()}.Score(rec)
	require.NoError(t, err)
	assert.Equal(t, 95, r.Score)

	rec.ExistingEMIs = 30500
	r, err = DTIScorer{Policy: DefaultPolicy()}.Score(rec)
	require.NoError(t, err)
	assert.Equal(t, 20, r.Score)
	assert.Equal(t, models.StatusFail, r.Status)
	assert.Contains(t, r.Reason, "0.61 is too high")
}

func TestDTIScorer_ZeroIncomeRejected(t *testing.T) {
	rec := baseRecord()
	rec.MonthlyIncome = 0

	_, err := DTIScorer{Policy: DefaultPolicy()}.Score(rec)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}

func TestDTIScorer_UsesPolicyRate(t *testing.T) {
	rec := baseRecord()
	rec.MonthlyIncome = 10000
	rec.RequestedLoanAmount = 120000
	rec.TenureMonths = 12

	policy := DefaultPolicy()
	policy.NewLoanAnnualRate = 0

	r, err := DTIScorer{Policy: policy}.Score(rec)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, r.Raw.NewEMI)
	assert.Equal(t, 1.0, r.Raw.DTIRatio)
}

func TestDTIScorer_ExtremeInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rec *models.ApplicantRecord)
		field  string
	}{
		{
			name:   "subnormal income",
			mutate: func(rec *models.ApplicantRecord) { rec.MonthlyIncome = 1e-310 },
			field:  "monthlyIncome",
		},
		{
			name: "obligations dwarf income",
			mutate: func(rec *models.ApplicantRecord) {
				rec.ExistingEMIs = math.MaxFloat64
				rec.MonthlyIncome = 0.5
			},
			field: "monthlyIncome",
		},
		{
			name: "obligations overflow",
			mutate: func(rec *models.ApplicantRecord) {
				rec.ExistingEMIs = math.MaxFloat64
				rec.RequestedLoanAmount = math.MaxFloat64 / 2
				rec.TenureMonths = 1
			},
			field: "existingEmis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseRecord()
			tt.mutate(&rec)

			var err error
			assert.NotPanics(t, func() { _, err = DTIScorer{Policy: DefaultPolicy()}.Score(rec) })
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDTIScorer_LongTenure(t *testing.T) {
	rec := baseRecord()
	rec.RequestedLoanAmount = 120000
	rec.TenureMonths = 100000

	r, err := DTIScorer{Policy: DefaultPolicy()}.Score(rec)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, r.Raw.NewEMI)
	assert.Equal(t, 95, r.Score)
}
