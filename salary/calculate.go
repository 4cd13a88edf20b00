/*
calculate.go - One calculator per policy kind

PURPOSE:
  Each calculator is a pure function (policy, metrics) -> Breakdown. A
  Breakdown lists named components so every won of the gross salary can be
  traced back to a rule. Amounts stay unrounded here; rounding happens once,
  at assembly (engine.go).

COMMISSION BASIS:
  revenue   metrics.Revenue
  sessions  metrics.Sessions x metrics.SessionValue
  custom    metrics.CustomAmount

STUDENT CLAMP:
  A student_based policy with MinStudents/MaxStudents bills the counted
  students clamped into that range. Fewer students than the minimum are billed
  at the minimum (floor pricing); more than the maximum are billed at the
  maximum.
*/
package salary

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BREAKDOWN
// =============================================================================

type ComponentCode string

const (
	ComponentBaseSalary          ComponentCode = "BaseSalary"
	ComponentHourlyPay           ComponentCode = "HourlyPay"
	ComponentCommission          ComponentCode = "Commission"
	ComponentTierCommission      ComponentCode = "TierCommission"
	ComponentStudentPay          ComponentCode = "StudentPay"
	ComponentGuaranteedTopUp     ComponentCode = "GuaranteedMinimumTopUp"
	ComponentGuaranteeAdjustment ComponentCode = "GuaranteeAdjustment"
	ComponentCapAdjustment       ComponentCode = "CapAdjustment"
)

// Component is one named line of a salary breakdown.
type Component struct {
	Code   ComponentCode
	Label  string
	Amount decimal.Decimal

	// Optional audit detail: the figure the rate was applied to and the rate.
	Quantity *decimal.Decimal
	Rate     *decimal.Decimal
	TierID   string
}

// Breakdown is the output of a calculator and of the clamp stage.
// Gross is what the calculator computed; Net is Gross after bounds.
type Breakdown struct {
	Components []Component
	Gross      decimal.Decimal
	Net        decimal.Decimal
}

func newBreakdown(components ...Component) Breakdown {
	gross := decimal.Zero
	for _, c := range components {
		gross = gross.Add(c.Amount)
	}
	return Breakdown{Components: components, Gross: gross, Net: gross}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Compute runs the calculator matching p's kind. Metrics are normalized first.
// It does not validate p and does not apply bounds.
func Compute(p Policy, m PeriodMetrics) (Breakdown, error) {
	m = m.Normalized()
	switch pol := p.(type) {
	case FixedMonthly:
		return calcFixedMonthly(pol), nil
	case FixedHourly:
		return calcFixedHourly(pol, m), nil
	case Commission:
		return calcCommission(pol, m), nil
	case TieredCommission:
		return calcTieredCommission(pol, m), nil
	case StudentBased:
		return calcStudentBased(pol, m), nil
	case Hybrid:
		return calcHybrid(pol, m), nil
	case GuaranteedMinimum:
		return calcGuaranteedMinimum(pol, m), nil
	case nil:
		return Breakdown{}, fmt.Errorf("%w: nil policy", ErrUnknownPolicyType)
	default:
		return Breakdown{}, fmt.Errorf("%w: %s (%T)", ErrUnknownPolicyType, p.Type(), p)
	}
}

// =============================================================================
// CALCULATORS
// =============================================================================

func calcFixedMonthly(p FixedMonthly) Breakdown {
	return newBreakdown(Component{
		Code:   ComponentBaseSalary,
		Label:  "Monthly base salary",
		Amount: p.BaseAmount,
	})
}

func calcFixedHourly(p FixedHourly, m PeriodMetrics) Breakdown {
	return newBreakdown(Component{
		Code:     ComponentHourlyPay,
		Label:    fmt.Sprintf("%s hours x %s", m.Hours, p.HourlyRate),
		Amount:   m.Hours.Mul(p.HourlyRate),
		Quantity: Ptr(m.Hours),
		Rate:     Ptr(p.HourlyRate),
	})
}

func calcCommission(p Commission, m PeriodMetrics) Breakdown {
	return newBreakdown(commissionComponent(p.Basis, p.Rate, m, nil))
}

func calcTieredCommission(p TieredCommission, m PeriodMetrics) Breakdown {
	figure := basisFigure(p.Basis.orRevenue(), m)
	var components []Component
	for _, slice := range p.Tiers.Resolve(figure) {
		if !slice.Taxable.IsPositive() {
			continue
		}
		components = append(components, Component{
			Code:     ComponentTierCommission,
			Label:    tierLabel(slice.Tier),
			Amount:   applyRate(slice.Taxable, slice.Tier.Rate),
			Quantity: Ptr(slice.Taxable),
			Rate:     Ptr(slice.Tier.Rate),
			TierID:   slice.Tier.ID,
		})
	}
	return newBreakdown(components...)
}

func calcStudentBased(p StudentBased, m PeriodMetrics) Breakdown {
	billed := clampStudents(m.Students, p.MinStudents, p.MaxStudents)
	label := fmt.Sprintf("%s students x %s", billed, p.StudentRate)
	if !billed.Equal(m.Students) {
		label = fmt.Sprintf("%s students (counted %s) x %s", billed, m.Students, p.StudentRate)
	}
	return newBreakdown(Component{
		Code:     ComponentStudentPay,
		Label:    label,
		Amount:   billed.Mul(p.StudentRate),
		Quantity: Ptr(billed),
		Rate:     Ptr(p.StudentRate),
	})
}

func calcHybrid(p Hybrid, m PeriodMetrics) Breakdown {
	base := Component{
		Code:   ComponentBaseSalary,
		Label:  "Base salary",
		Amount: p.BaseAmount,
	}
	return newBreakdown(base, commissionComponent(p.Basis.orRevenue(), p.Rate, m, p.PerformanceThreshold))
}

func calcGuaranteedMinimum(p GuaranteedMinimum, m PeriodMetrics) Breakdown {
	commission := commissionComponent(p.Basis, p.Rate, m, nil)
	components := []Component{commission}
	// The top-up is measured against the commission as it will be paid,
	// so the two lines add up to the guarantee exactly.
	paid := roundMoney(commission.Amount)
	if paid.LessThan(p.MinimumGuaranteed) {
		components = append(components, Component{
			Code:   ComponentGuaranteedTopUp,
			Label:  "Guaranteed minimum top-up",
			Amount: p.MinimumGuaranteed.Sub(paid),
		})
	}
	return newBreakdown(components...)
}

// =============================================================================
// HELPERS
// =============================================================================

func basisFigure(b CommissionBasis, m PeriodMetrics) decimal.Decimal {
	switch b {
	case BasisSessions:
		return m.Sessions.Mul(m.SessionValue)
	case BasisCustom:
		return m.CustomAmount
	default:
		return m.Revenue
	}
}

// commissionComponent applies rate to the basis figure, or to the part of it
// above threshold when one is given.
func commissionComponent(b CommissionBasis, rate decimal.Decimal, m PeriodMetrics, threshold *decimal.Decimal) Component {
	figure := basisFigure(b, m)
	label := fmt.Sprintf("Commission %s%% of %s", rate, b)
	if threshold != nil {
		figure = floorZero(figure.Sub(*threshold))
		label = fmt.Sprintf("Commission %s%% of %s above %s", rate, b, threshold)
	}
	return Component{
		Code:     ComponentCommission,
		Label:    label,
		Amount:   applyRate(figure, rate),
		Quantity: Ptr(figure),
		Rate:     Ptr(rate),
	}
}

func clampStudents(count decimal.Decimal, lo, hi *decimal.Decimal) decimal.Decimal {
	if lo != nil && count.LessThan(*lo) {
		count = *lo
	}
	if hi != nil && count.GreaterThan(*hi) {
		count = *hi
	}
	return count
}

func tierLabel(t Tier) string {
	if t.MaxAmount == nil {
		return fmt.Sprintf("Tier %s+ @ %s%%", t.MinAmount, t.Rate)
	}
	return fmt.Sprintf("Tier %s-%s @ %s%%", t.MinAmount, t.MaxAmount, t.Rate)
}
