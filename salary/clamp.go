package salary

import "github.com/shopspring/decimal"

// =============================================================================
// GUARANTEE / CLAMP STAGE
// =============================================================================

// ApplyBounds raises Net to the guaranteed minimum and then caps it at the
// maximum, appending a component for each adjustment. It runs for every
// policy kind and is idempotent: a breakdown already inside its bounds is
// returned unchanged. Gross is never modified.
func ApplyBounds(b Breakdown, bounds Bounds) Breakdown {
	out := Breakdown{
		Components: append([]Component(nil), b.Components...),
		Gross:      b.Gross,
		Net:        b.Net,
	}

	if floor := bounds.MinimumGuaranteed; floor != nil && out.Net.LessThan(*floor) {
		out.Components = append(out.Components, Component{
			Code:   ComponentGuaranteeAdjustment,
			Label:  "Raised to guaranteed minimum",
			Amount: floor.Sub(out.Net),
		})
		out.Net = *floor
	}

	if ceiling := bounds.MaximumAmount; ceiling != nil && out.Net.GreaterThan(*ceiling) {
		out.Components = append(out.Components, Component{
			Code:   ComponentCapAdjustment,
			Label:  "Capped at maximum amount",
			Amount: ceiling.Sub(out.Net),
		})
		out.Net = *ceiling
	}

	return out
}

func (c Component) isAdjustment() bool {
	return c.Code == ComponentGuaranteeAdjustment || c.Code == ComponentCapAdjustment
}

// Adjustment returns the summed amount of all components with the given code.
func (b Breakdown) Adjustment(code ComponentCode) decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Components {
		if c.Code == code {
			total = total.Add(c.Amount)
		}
	}
	return total
}
