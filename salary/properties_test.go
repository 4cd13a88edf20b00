/*
properties_test.go - Properties every calculation must hold

ORGANIZATION:
  1. Determinism
  2. Tiered commission correctness
  3. Guarantee floor and cap ceiling
  4. Tier boundary inclusivity
  5. Validation completeness
  6. Clamp idempotence
  7. Rounding at assembly

Each test states its scenario in GIVEN/WHEN/THEN form.
*/
package salary_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educanvas/salary-engine/salary"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func won(n int64) decimal.Decimal { return salary.Won(n) }

func assertWon(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !salary.Won(want).Equal(got) {
		assert.Fail(t, "amount mismatch: expected "+salary.Won(want).String()+", got "+got.String(), msgAndArgs...)
	}
}

func meta(name string) salary.PolicyMeta {
	return salary.PolicyMeta{ID: "policy-1", TenantID: "academy-1", Name: name, IsActive: true}
}

func threeBracketTiers() salary.TierSchedule {
	return salary.MustTierSchedule([]salary.Tier{
		{ID: "t1", MinAmount: won(0), MaxAmount: salary.Ptr(won(5_000_000)), Rate: salary.Percent(10)},
		{ID: "t2", MinAmount: won(5_000_000), MaxAmount: salary.Ptr(won(10_000_000)), Rate: salary.Percent(15)},
		{ID: "t3", MinAmount: won(10_000_000), Rate: salary.Percent(20)},
	})
}

func fivePercentCommission(bounds salary.Bounds) salary.Commission {
	m := meta("Sales 5%")
	m.Bounds = bounds
	return salary.Commission{PolicyMeta: m, Rate: salary.Percent(5), Basis: salary.BasisRevenue}
}

func calculate(t *testing.T, p salary.Policy, m salary.PeriodMetrics) salary.Result {
	t.Helper()
	resp, err := salary.Engine{}.Calculate(salary.Request{
		InstructorID: "inst-1",
		Period:       salary.MustParsePeriod("2025-03"),
		Policy:       p,
		Metrics:      m,
		PreviewMode:  true,
	})
	require.NoError(t, err)
	return resp.Calculation
}

func findComponent(r salary.Result, code salary.ComponentCode) (salary.Component, bool) {
	for _, c := range r.Components {
		if c.Code == code {
			return c, true
		}
	}
	return salary.Component{}, false
}

// =============================================================================
// 1. DETERMINISM
// =============================================================================

func TestEngine_SameInputSameResult(t *testing.T) {
	// GIVEN: A tiered policy and fixed metrics
	// WHEN: Calculating twice, including concurrently
	// THEN: Every result is identical

	policy := salary.TieredCommission{PolicyMeta: meta("Tiered"), Tiers: threeBracketTiers()}
	metrics := salary.PeriodMetrics{Revenue: won(12_000_000)}

	first := calculate(t, policy, metrics)
	second := calculate(t, policy, metrics)
	assert.Equal(t, first, second)

	var wg sync.WaitGroup
	results := make([]salary.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := salary.Engine{}.Calculate(salary.Request{
				InstructorID: "inst-1",
				Period:       salary.MustParsePeriod("2025-03"),
				Policy:       policy,
				Metrics:      metrics,
				PreviewMode:  true,
			})
			if err == nil {
				results[i] = resp.Calculation
			}
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assertWon(t, 1_650_000, r.NetSalary)
		assert.Len(t, r.Components, 3)
	}
}

// =============================================================================
// 2. TIERED COMMISSION
// =============================================================================

func TestTieredCommission_ThreeBrackets(t *testing.T) {
	// GIVEN: [0-5M @10%, 5M-10M @15%, 10M+ @20%]
	// WHEN: Revenue is 12,000,000
	// THEN: 500,000 + 750,000 + 400,000 = 1,650,000

	policy := salary.TieredCommission{PolicyMeta: meta("Tiered"), Tiers: threeBracketTiers()}
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(12_000_000)})

	assert.Equal(t, salary.TypeTieredCommission, result.PolicyType)
	assertWon(t, 1_650_000, result.GrossSalary)
	assertWon(t, 1_650_000, result.NetSalary)

	require.Len(t, result.Components, 3, "one component per contributing tier")
	assertWon(t, 500_000, result.Components[0].Amount)
	assertWon(t, 750_000, result.Components[1].Amount)
	assertWon(t, 400_000, result.Components[2].Amount)
	assert.Equal(t, "t1", result.Components[0].TierID)
	assert.Equal(t, "t3", result.Components[2].TierID)
}

// =============================================================================
// 3. GUARANTEE FLOOR / CAP CEILING
// =============================================================================

func TestGuaranteeFloor_RaisesNetAndShowsAdjustment(t *testing.T) {
	// GIVEN: 5% commission with a 2,000,000 guaranteed minimum
	// WHEN: Revenue is 10,000,000 (commission 500,000)
	// THEN: Net is 2,000,000 with a 1,500,000 GuaranteeAdjustment

	policy := fivePercentCommission(salary.Bounds{MinimumGuaranteed: salary.Ptr(won(2_000_000))})
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(10_000_000)})

	assertWon(t, 500_000, result.GrossSalary, "gross is before adjustment")
	assertWon(t, 2_000_000, result.NetSalary)

	adj, ok := findComponent(result, salary.ComponentGuaranteeAdjustment)
	require.True(t, ok, "GuaranteeAdjustment component must be visible")
	assertWon(t, 1_500_000, adj.Amount)
}

func TestCapCeiling_LimitsNet(t *testing.T) {
	// GIVEN: The same policy with a 1,800,000 maximum
	// WHEN: Revenue is 100,000,000 (commission 5,000,000)
	// THEN: Net is capped at 1,800,000

	policy := fivePercentCommission(salary.Bounds{
		MinimumGuaranteed: salary.Ptr(won(1_000_000)),
		MaximumAmount:     salary.Ptr(won(1_800_000)),
	})
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(100_000_000)})

	assertWon(t, 5_000_000, result.GrossSalary)
	assertWon(t, 1_800_000, result.NetSalary)

	capAdj, ok := findComponent(result, salary.ComponentCapAdjustment)
	require.True(t, ok)
	assertWon(t, -3_200_000, capAdj.Amount)
	_, raised := findComponent(result, salary.ComponentGuaranteeAdjustment)
	assert.False(t, raised)
}

func TestBounds_ApplyToFixedMonthlyToo(t *testing.T) {
	// GIVEN: A fixed monthly salary above its own cap
	// THEN: The clamp stage still runs

	m := meta("Capped fixed")
	m.Bounds.MaximumAmount = salary.Ptr(won(2_500_000))
	result := calculate(t, salary.FixedMonthly{PolicyMeta: m, BaseAmount: won(3_000_000)}, salary.PeriodMetrics{})

	assertWon(t, 3_000_000, result.GrossSalary)
	assertWon(t, 2_500_000, result.NetSalary)
}

// =============================================================================
// 4. TIER BOUNDARY INCLUSIVITY
// =============================================================================

func TestTierBoundary_BelongsToHigherTier(t *testing.T) {
	// GIVEN: Brackets with a boundary at 5,000,000
	// WHEN: Revenue is exactly 5,000,000, then 100 won above
	// THEN: The boundary amount sits in the 15% bracket, and the next
	//       100 won are commissioned at 15%, not 10%

	schedule := threeBracketTiers()

	tier, ok := schedule.BracketFor(won(5_000_000))
	require.True(t, ok)
	assert.Equal(t, "t2", tier.ID)
	assert.True(t, tier.Rate.Equal(salary.Percent(15)))

	policy := salary.TieredCommission{PolicyMeta: meta("Tiered"), Tiers: schedule}
	atBoundary := calculate(t, policy, salary.PeriodMetrics{Revenue: won(5_000_000)})
	assertWon(t, 500_000, atBoundary.NetSalary)

	above := calculate(t, policy, salary.PeriodMetrics{Revenue: won(5_000_100)})
	assertWon(t, 500_015, above.NetSalary, "100 won above the boundary earn 15 percent")
}

// =============================================================================
// 5. VALIDATION COMPLETENESS
// =============================================================================

func TestValidation_HybridMissingBaseAndRate_TwoErrors(t *testing.T) {
	// GIVEN: A hybrid policy with neither base_amount nor commission_rate
	// THEN: Exactly two messages come back, not one

	errs := salary.Validate(salary.Hybrid{PolicyMeta: meta("Hybrid")})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], string(salary.MissingBaseAmount))
	assert.Contains(t, errs[1], string(salary.InvalidCommissionRate))

	_, err := salary.Engine{}.Calculate(salary.Request{Policy: salary.Hybrid{PolicyMeta: meta("Hybrid")}})
	var verr *salary.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Messages(), 2)
	assert.True(t, errors.Is(err, salary.ErrValidation))
}

// =============================================================================
// 6. CLAMP IDEMPOTENCE
// =============================================================================

func TestApplyBounds_Idempotent(t *testing.T) {
	// GIVEN: A breakdown that has been floored and one that has been capped
	// WHEN: Applying the clamp stage again
	// THEN: Nothing changes

	bounds := salary.Bounds{MinimumGuaranteed: salary.Ptr(won(2_000_000)), MaximumAmount: salary.Ptr(won(3_000_000))}
	for _, revenue := range []int64{10_000_000, 100_000_000, 50_000_000} {
		policy := fivePercentCommission(bounds)
		b, err := salary.Compute(policy, salary.PeriodMetrics{Revenue: won(revenue)})
		require.NoError(t, err)

		once := salary.ApplyBounds(b, bounds)
		twice := salary.ApplyBounds(once, bounds)

		assert.Equal(t, once, twice, "revenue %d", revenue)
		assert.True(t, once.Gross.Equal(b.Gross), "gross is untouched")
	}
}

// =============================================================================
// 7. ROUNDING
// =============================================================================

func sumComponents(r salary.Result) decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Components {
		total = total.Add(c.Amount)
	}
	return total
}

func TestAssemble_RoundsOnceHalfUp(t *testing.T) {
	// GIVEN: A hybrid policy whose two components are 0.5 each
	// WHEN: Assembling
	// THEN: Each component rounds up to 1 and gross and net are their sum

	policy := salary.Hybrid{
		PolicyMeta: meta("Tiny hybrid"),
		BaseAmount: decimal.RequireFromString("0.5"),
		Rate:       salary.Percent(10),
	}
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(5)})

	require.Len(t, result.Components, 2)
	assertWon(t, 1, result.Components[0].Amount)
	assertWon(t, 1, result.Components[1].Amount)
	assertWon(t, 2, result.GrossSalary)
	assertWon(t, 2, result.NetSalary)
	assertWon(t, 0, result.Deductions)
}

func TestAssemble_ComponentsAlwaysAddUpToNet(t *testing.T) {
	halfBrackets := salary.MustTierSchedule([]salary.Tier{
		{ID: "t1", MinAmount: won(0), MaxAmount: salary.Ptr(won(5)), Rate: salary.Percent(10)},
		{ID: "t2", MinAmount: won(5), MaxAmount: salary.Ptr(won(10)), Rate: salary.Percent(10)},
		{ID: "t3", MinAmount: won(10), Rate: salary.Percent(10)},
	})
	floored := meta("Floored")
	floored.Bounds = salary.Bounds{MinimumGuaranteed: salary.Ptr(won(10))}
	capped := meta("Capped")
	capped.Bounds = salary.Bounds{MaximumAmount: salary.Ptr(decimal.RequireFromString("2.4"))}

	tests := []struct {
		name    string
		policy  salary.Policy
		metrics salary.PeriodMetrics
		gross   int64
		net     int64
	}{
		{
			name:    "three half-unit brackets",
			policy:  salary.TieredCommission{PolicyMeta: meta("Tiered"), Tiers: halfBrackets},
			metrics: salary.PeriodMetrics{Revenue: won(15)},
			gross:   3,
			net:     3,
		},
		{
			name:    "floor against rounded commission",
			policy:  salary.Commission{PolicyMeta: floored, Rate: salary.Percent(10), Basis: salary.BasisRevenue},
			metrics: salary.PeriodMetrics{Revenue: won(5)},
			gross:   1,
			net:     10,
		},
		{
			name: "fractional cap",
			policy: salary.Hybrid{
				PolicyMeta: capped,
				BaseAmount: decimal.RequireFromString("1.5"),
				Rate:       salary.Percent(10),
			},
			metrics: salary.PeriodMetrics{Revenue: won(15)},
			gross:   4,
			net:     2,
		},
		{
			name:    "guaranteed minimum top-up",
			policy:  salary.GuaranteedMinimum{PolicyMeta: meta("Guaranteed"), MinimumGuaranteed: won(1_000), Rate: salary.Percent(10), Basis: salary.BasisRevenue},
			metrics: salary.PeriodMetrics{Revenue: won(5)},
			gross:   1_000,
			net:     1_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculate(t, tt.policy, tt.metrics)

			assertWon(t, tt.gross, result.GrossSalary)
			assertWon(t, tt.net, result.NetSalary)
			assert.True(t, sumComponents(result).Equal(result.NetSalary),
				"components sum %s, net %s", sumComponents(result), result.NetSalary)
		})
	}
}

func TestAssemble_HalfUpOnHourly(t *testing.T) {
	policy := salary.FixedHourly{PolicyMeta: meta("Hourly"), HourlyRate: decimal.RequireFromString("12345.5")}
	result := calculate(t, policy, salary.PeriodMetrics{Hours: won(1)})
	assertWon(t, 12_346, result.NetSalary)
}
