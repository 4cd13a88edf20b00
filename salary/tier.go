package salary

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIERS - Progressive commission brackets
// =============================================================================

// Tier covers [MinAmount, MaxAmount). A nil MaxAmount marks the open-ended
// top bracket.
type Tier struct {
	ID        string
	MinAmount decimal.Decimal
	MaxAmount *decimal.Decimal
	Rate      decimal.Decimal // percent
}

// TierSchedule is a tier list that passed NewTierSchedule: ordered by
// MinAmount, contiguous, non-overlapping, with exactly one open-ended tier
// in last position. The zero value holds no tiers.
type TierSchedule struct {
	tiers []Tier
}

// NewTierSchedule validates tiers once so that resolution never has to.
func NewTierSchedule(tiers []Tier) (TierSchedule, error) {
	if len(tiers) == 0 {
		return TierSchedule{}, &TierConfigError{Index: 0, Reason: "at least one tier is required"}
	}
	if tiers[0].MinAmount.IsNegative() {
		return TierSchedule{}, &TierConfigError{Index: 0, Reason: "first tier cannot start below zero"}
	}

	last := len(tiers) - 1
	for i, t := range tiers {
		if t.Rate.IsNegative() || t.Rate.GreaterThan(hundred) {
			return TierSchedule{}, &TierConfigError{Index: i, Reason: "commission rate must be between 0 and 100"}
		}
		if i == last {
			if t.MaxAmount != nil {
				return TierSchedule{}, &TierConfigError{Index: i, Reason: "top tier must be open-ended"}
			}
			break
		}
		if t.MaxAmount == nil {
			return TierSchedule{}, &TierConfigError{Index: i, Reason: "only the last tier may be open-ended"}
		}
		if !t.MaxAmount.GreaterThan(t.MinAmount) {
			return TierSchedule{}, &TierConfigError{Index: i, Reason: "max_amount must exceed min_amount"}
		}
		next := tiers[i+1].MinAmount
		switch {
		case next.GreaterThan(*t.MaxAmount):
			return TierSchedule{}, &TierConfigError{Index: i + 1, Reason: fmt.Sprintf("gap between %s and %s", t.MaxAmount, next)}
		case next.LessThan(*t.MaxAmount):
			return TierSchedule{}, &TierConfigError{Index: i + 1, Reason: fmt.Sprintf("overlaps previous tier ending at %s", t.MaxAmount)}
		}
	}

	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return TierSchedule{tiers: out}, nil
}

// MustTierSchedule panics on an invalid list. For presets and tests.
func MustTierSchedule(tiers []Tier) TierSchedule {
	s, err := NewTierSchedule(tiers)
	if err != nil {
		panic(err)
	}
	return s
}

func (s TierSchedule) Len() int { return len(s.tiers) }
func (s TierSchedule) IsZero() bool { return len(s.tiers) == 0 }

// Tiers returns a copy of the brackets.
func (s TierSchedule) Tiers() []Tier {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// TierSlice is the portion of an amount that falls inside one tier.
type TierSlice struct {
	Tier    Tier
	Taxable decimal.Decimal
}

// Resolve splits amount across every tier it reaches. Boundaries are
// min-inclusive, so an amount exactly at a tier's MinAmount reaches that tier
// (with nothing taxable in it yet). Amounts below the first tier resolve to
// nothing.
func (s TierSchedule) Resolve(amount decimal.Decimal) []TierSlice {
	amount = floorZero(amount)
	var slices []TierSlice
	for _, t := range s.tiers {
		if amount.LessThan(t.MinAmount) {
			break
		}
		top := amount
		if t.MaxAmount != nil && t.MaxAmount.LessThan(top) {
			top = *t.MaxAmount
		}
		slices = append(slices, TierSlice{Tier: t, Taxable: top.Sub(t.MinAmount)})
	}
	return slices
}

// BracketFor returns the tier that contains amount, if any.
func (s TierSchedule) BracketFor(amount decimal.Decimal) (Tier, bool) {
	slices := s.Resolve(amount)
	if len(slices) == 0 {
		return Tier{}, false
	}
	return slices[len(slices)-1].Tier, true
}

// ResolveTiers validates an unchecked tier list and resolves amount against it.
func ResolveTiers(amount decimal.Decimal, tiers []Tier) ([]TierSlice, error) {
	s, err := NewTierSchedule(tiers)
	if err != nil {
		return nil, err
	}
	return s.Resolve(amount), nil
}
