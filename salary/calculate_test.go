package salary_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educanvas/salary-engine/salary"
)

// =============================================================================
// FIXED PAY
// =============================================================================

func TestFixedMonthly_IgnoresMetrics(t *testing.T) {
	policy := salary.FixedMonthly{PolicyMeta: meta("Fixed"), BaseAmount: won(2_500_000)}
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(99_000_000), Hours: won(200)})

	require.Len(t, result.Components, 1)
	assert.Equal(t, salary.ComponentBaseSalary, result.Components[0].Code)
	assertWon(t, 2_500_000, result.NetSalary)
}

func TestFixedHourly_NegativeHoursFlooredToZero(t *testing.T) {
	// GIVEN: An hourly policy and a bad upstream figure of -12 hours
	// THEN: The calculation succeeds with zero pay instead of failing

	policy := salary.FixedHourly{PolicyMeta: meta("Hourly"), HourlyRate: won(30_000)}
	result := calculate(t, policy, salary.PeriodMetrics{Hours: won(-12)})

	assertWon(t, 0, result.NetSalary)
	assert.True(t, result.Metrics.Hours.IsZero(), "result carries normalized metrics")
}

func TestFixedHourly_FractionalHours(t *testing.T) {
	policy := salary.FixedHourly{PolicyMeta: meta("Hourly"), HourlyRate: won(30_000)}
	result := calculate(t, policy, salary.PeriodMetrics{Hours: decimal.RequireFromString("42.5")})

	assertWon(t, 1_275_000, result.NetSalary)
	require.NotNil(t, result.Components[0].Quantity)
	assert.Equal(t, "42.5", result.Components[0].Quantity.String())
}

// =============================================================================
// COMMISSION BASIS
// =============================================================================

func TestCommission_Basis(t *testing.T) {
	metrics := salary.PeriodMetrics{
		Revenue:      won(10_000_000),
		Sessions:     won(40),
		SessionValue: won(50_000),
		CustomAmount: won(3_000_000),
	}

	tests := []struct {
		basis salary.CommissionBasis
		want  int64
	}{
		{salary.BasisRevenue, 1_000_000},
		{salary.BasisSessions, 200_000},
		{salary.BasisCustom, 300_000},
	}

	for _, tt := range tests {
		t.Run(string(tt.basis), func(t *testing.T) {
			policy := salary.Commission{PolicyMeta: meta("Commission"), Rate: salary.Percent(10), Basis: tt.basis}
			result := calculate(t, policy, metrics)
			assertWon(t, tt.want, result.NetSalary)
		})
	}
}

func TestTieredCommission_SessionsBasis(t *testing.T) {
	// GIVEN: Tiers over session value, 30 sessions at 200,000 each
	// THEN: The tiers see 6,000,000 rather than revenue

	policy := salary.TieredCommission{
		PolicyMeta: meta("Tiered sessions"),
		Basis:      salary.BasisSessions,
		Tiers:      threeBracketTiers(),
	}
	result := calculate(t, policy, salary.PeriodMetrics{
		Revenue:      won(50_000_000),
		Sessions:     won(30),
		SessionValue: won(200_000),
	})

	// 5M @10% + 1M @15%
	assertWon(t, 650_000, result.NetSalary)
	assert.Len(t, result.Components, 2)
}

// =============================================================================
// HYBRID
// =============================================================================

func TestHybrid_BasePlusCommission(t *testing.T) {
	policy := salary.Hybrid{PolicyMeta: meta("Hybrid"), BaseAmount: won(1_500_000), Rate: salary.Percent(5)}
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(8_000_000)})

	require.Len(t, result.Components, 2)
	assertWon(t, 1_500_000, result.Components[0].Amount)
	assertWon(t, 400_000, result.Components[1].Amount)
	assertWon(t, 1_900_000, result.NetSalary)
}

func TestHybrid_ThresholdCommissionsOnlyTheExcess(t *testing.T) {
	// GIVEN: Base 1,000,000 plus 10% above 5,000,000
	// WHEN: Revenue is 7,000,000, then 4,000,000
	// THEN: 1,200,000 and then the base alone

	policy := salary.Hybrid{
		PolicyMeta:           meta("Hybrid threshold"),
		BaseAmount:           won(1_000_000),
		Rate:                 salary.Percent(10),
		PerformanceThreshold: salary.Ptr(won(5_000_000)),
	}

	above := calculate(t, policy, salary.PeriodMetrics{Revenue: won(7_000_000)})
	assertWon(t, 1_200_000, above.NetSalary)

	below := calculate(t, policy, salary.PeriodMetrics{Revenue: won(4_000_000)})
	assertWon(t, 1_000_000, below.NetSalary)
	commission, ok := findComponent(below, salary.ComponentCommission)
	require.True(t, ok, "commission line stays visible even when zero")
	assertWon(t, 0, commission.Amount)
}

// =============================================================================
// STUDENT BASED
// =============================================================================

func TestStudentBased_ClampsCountIntoRange(t *testing.T) {
	// GIVEN: 50,000 per student billed between 10 and 30 students
	// WHEN: 4, 18 and 45 students are counted
	// THEN: 10, 18 and 30 students are billed

	policy := salary.StudentBased{
		PolicyMeta:  meta("Per student"),
		StudentRate: won(50_000),
		MinStudents: salary.Ptr(won(10)),
		MaxStudents: salary.Ptr(won(30)),
	}

	tests := []struct {
		name    string
		counted int64
		billed  int64
	}{
		{"below minimum billed at minimum", 4, 10},
		{"inside range billed as counted", 18, 18},
		{"above maximum billed at maximum", 45, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculate(t, policy, salary.PeriodMetrics{Students: won(tt.counted)})
			assertWon(t, tt.billed*50_000, result.NetSalary)
			require.NotNil(t, result.Components[0].Quantity)
			assertWon(t, tt.billed, *result.Components[0].Quantity)
			assertWon(t, tt.counted, result.Metrics.Students, "metrics keep the counted figure")
		})
	}
}

func TestStudentBased_NoRange(t *testing.T) {
	policy := salary.StudentBased{PolicyMeta: meta("Per student"), StudentRate: won(40_000)}
	result := calculate(t, policy, salary.PeriodMetrics{Students: won(25)})
	assertWon(t, 1_000_000, result.NetSalary)
}

// =============================================================================
// GUARANTEED MINIMUM
// =============================================================================

func TestGuaranteedMinimum_TopUpWhenCommissionFallsShort(t *testing.T) {
	policy := salary.GuaranteedMinimum{
		PolicyMeta:        meta("Guaranteed"),
		MinimumGuaranteed: won(2_000_000),
		Rate:              salary.Percent(10),
		Basis:             salary.BasisRevenue,
	}

	short := calculate(t, policy, salary.PeriodMetrics{Revenue: won(12_000_000)})
	assertWon(t, 2_000_000, short.NetSalary)
	topUp, ok := findComponent(short, salary.ComponentGuaranteedTopUp)
	require.True(t, ok)
	assertWon(t, 800_000, topUp.Amount)

	strong := calculate(t, policy, salary.PeriodMetrics{Revenue: won(30_000_000)})
	assertWon(t, 3_000_000, strong.NetSalary)
	_, ok = findComponent(strong, salary.ComponentGuaranteedTopUp)
	assert.False(t, ok)
}

// =============================================================================
// DISPATCH AND ENGINE ERRORS
// =============================================================================

func TestCompute_NilPolicy(t *testing.T) {
	_, err := salary.Compute(nil, salary.PeriodMetrics{})
	assert.ErrorIs(t, err, salary.ErrUnknownPolicyType)
}

func TestEngine_RejectsInvalidPolicyBeforeCalculating(t *testing.T) {
	resp, err := salary.Engine{}.Calculate(salary.Request{
		Policy: salary.FixedMonthly{PolicyMeta: meta("Broken")},
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, salary.ErrValidation)
}

func TestEngine_ResultCarriesPolicyAndPeriod(t *testing.T) {
	m := meta("Fixed")
	result := calculate(t, salary.FixedMonthly{PolicyMeta: m, BaseAmount: won(1)}, salary.PeriodMetrics{})

	assert.Equal(t, salary.InstructorID("inst-1"), result.InstructorID)
	assert.Equal(t, salary.TenantID("academy-1"), result.TenantID)
	assert.Equal(t, m.ID, result.PolicyID)
	assert.Equal(t, "Fixed", result.PolicyName)
	assert.Equal(t, "2025-03", result.Period)
	assert.True(t, result.PreviewMode)
}

func TestBreakdown_Adjustment(t *testing.T) {
	bounds := salary.Bounds{MinimumGuaranteed: salary.Ptr(won(1_000_000))}
	b, err := salary.Compute(fivePercentCommission(bounds), salary.PeriodMetrics{Revenue: won(4_000_000)})
	require.NoError(t, err)

	clamped := salary.ApplyBounds(b, bounds)
	assertWon(t, 800_000, clamped.Adjustment(salary.ComponentGuaranteeAdjustment))
	assertWon(t, 0, clamped.Adjustment(salary.ComponentCapAdjustment))
}

func TestParsePeriod(t *testing.T) {
	p, err := salary.ParsePeriod("2025-11")
	require.NoError(t, err)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, "2025-11", p.String())

	for _, bad := range []string{"", "2025-13", "2025/03", "March"} {
		_, err := salary.ParsePeriod(bad)
		assert.ErrorIs(t, err, salary.ErrInvalidPeriod, bad)
	}
}
