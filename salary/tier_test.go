package salary_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educanvas/salary-engine/salary"
)

func TestNewTierSchedule_RejectsMalformedLists(t *testing.T) {
	tests := []struct {
		name      string
		tiers     []salary.Tier
		wantIndex int
	}{
		{
			name:      "empty",
			tiers:     nil,
			wantIndex: 0,
		},
		{
			name: "gap between brackets",
			tiers: []salary.Tier{
				{MinAmount: won(0), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
				{MinAmount: won(150), Rate: salary.Percent(20)},
			},
			wantIndex: 1,
		},
		{
			name: "overlapping brackets",
			tiers: []salary.Tier{
				{MinAmount: won(0), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
				{MinAmount: won(90), Rate: salary.Percent(20)},
			},
			wantIndex: 1,
		},
		{
			name: "out of order",
			tiers: []salary.Tier{
				{MinAmount: won(100), MaxAmount: salary.Ptr(won(200)), Rate: salary.Percent(10)},
				{MinAmount: won(0), Rate: salary.Percent(20)},
			},
			wantIndex: 1,
		},
		{
			name: "open-ended tier not last",
			tiers: []salary.Tier{
				{MinAmount: won(0), Rate: salary.Percent(10)},
				{MinAmount: won(100), Rate: salary.Percent(20)},
			},
			wantIndex: 0,
		},
		{
			name: "top tier bounded",
			tiers: []salary.Tier{
				{MinAmount: won(0), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
			},
			wantIndex: 0,
		},
		{
			name: "empty bracket",
			tiers: []salary.Tier{
				{MinAmount: won(100), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
				{MinAmount: won(100), Rate: salary.Percent(20)},
			},
			wantIndex: 0,
		},
		{
			name: "rate above 100",
			tiers: []salary.Tier{
				{MinAmount: won(0), Rate: salary.Percent(101)},
			},
			wantIndex: 0,
		},
		{
			name: "negative start",
			tiers: []salary.Tier{
				{MinAmount: won(-1), Rate: salary.Percent(5)},
			},
			wantIndex: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := salary.NewTierSchedule(tt.tiers)
			require.Error(t, err)
			assert.True(t, errors.Is(err, salary.ErrInvalidTierConfiguration))

			var cfgErr *salary.TierConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantIndex, cfgErr.Index)
		})
	}
}

func TestNewTierSchedule_CopiesInput(t *testing.T) {
	tiers := []salary.Tier{
		{ID: "a", MinAmount: won(0), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
		{ID: "b", MinAmount: won(100), Rate: salary.Percent(20)},
	}
	schedule, err := salary.NewTierSchedule(tiers)
	require.NoError(t, err)

	tiers[0].ID = "mutated"
	assert.Equal(t, "a", schedule.Tiers()[0].ID)
	assert.Equal(t, 2, schedule.Len())
}

func TestResolve_MarginalSlices(t *testing.T) {
	schedule := threeBracketTiers()

	slices := schedule.Resolve(won(12_000_000))
	require.Len(t, slices, 3)
	assertWon(t, 5_000_000, slices[0].Taxable)
	assertWon(t, 5_000_000, slices[1].Taxable)
	assertWon(t, 2_000_000, slices[2].Taxable)

	slices = schedule.Resolve(won(3_000_000))
	require.Len(t, slices, 1)
	assertWon(t, 3_000_000, slices[0].Taxable)
}

func TestResolve_BoundaryReachesHigherTierWithNothingTaxable(t *testing.T) {
	slices := threeBracketTiers().Resolve(won(10_000_000))
	require.Len(t, slices, 3)
	assert.Equal(t, "t3", slices[2].Tier.ID)
	assert.True(t, slices[2].Taxable.IsZero())
}

func TestResolve_BelowFirstTier(t *testing.T) {
	// GIVEN: Commission only starts at 1,000,000
	// WHEN: Revenue is 999,999
	// THEN: Nothing resolves and no commission is paid

	schedule := salary.MustTierSchedule([]salary.Tier{
		{ID: "base", MinAmount: won(1_000_000), Rate: salary.Percent(10)},
	})
	assert.Empty(t, schedule.Resolve(won(999_999)))

	_, ok := schedule.BracketFor(won(999_999))
	assert.False(t, ok)

	policy := salary.TieredCommission{PolicyMeta: meta("Late start"), Tiers: schedule}
	result := calculate(t, policy, salary.PeriodMetrics{Revenue: won(999_999)})
	assertWon(t, 0, result.NetSalary)
	assert.Empty(t, result.Components)
}

func TestResolveTiers_ValidatesBeforeResolving(t *testing.T) {
	_, err := salary.ResolveTiers(won(500), []salary.Tier{
		{MinAmount: won(0), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
		{MinAmount: won(200), Rate: salary.Percent(20)},
	})
	assert.ErrorIs(t, err, salary.ErrInvalidTierConfiguration)

	slices, err := salary.ResolveTiers(won(150), []salary.Tier{
		{MinAmount: won(0), MaxAmount: salary.Ptr(won(100)), Rate: salary.Percent(10)},
		{MinAmount: won(100), Rate: salary.Percent(20)},
	})
	require.NoError(t, err)
	require.Len(t, slices, 2)
	assertWon(t, 50, slices[1].Taxable)
}

func TestResolve_NegativeAmountTreatedAsZero(t *testing.T) {
	slices := threeBracketTiers().Resolve(won(-5))
	require.Len(t, slices, 1)
	assert.True(t, slices[0].Taxable.IsZero())
}
