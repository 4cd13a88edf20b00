/*
policy.go - Compensation policy variants

PURPOSE:
  A Policy is the rule set describing how an instructor's pay is computed for
  a period. There are seven mutually exclusive kinds; each is its own Go type
  carrying only the fields that kind needs. Calculators switch on the concrete
  type, so a field that a kind does not have cannot be read by mistake.

POLICY KINDS:
  fixed_monthly       BaseAmount per month
  fixed_hourly        HourlyRate x hours
  commission          Rate% of a basis figure (revenue | sessions | custom)
  tiered_commission   Progressive brackets over a basis figure
  student_based       StudentRate x (clamped) student count
  hybrid              BaseAmount + Rate% of the figure above a threshold
  guaranteed_minimum  max(Rate% of basis, MinimumGuaranteed)

CROSS-CUTTING BOUNDS:
  Any kind may carry Bounds.MinimumGuaranteed and Bounds.MaximumAmount. They
  are applied after the calculator by the clamp stage (clamp.go).

EXAMPLE:
  policy := salary.Commission{
      PolicyMeta: salary.PolicyMeta{ID: "p-1", Name: "Sales 5%", IsActive: true,
          Bounds: salary.Bounds{MinimumGuaranteed: salary.Ptr(salary.Won(2_000_000))}},
      Rate:  salary.Percent(5),
      Basis: salary.BasisRevenue,
  }
*/
package salary

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY TYPE TAGS
// =============================================================================

type PolicyType string

const (
	TypeFixedMonthly      PolicyType = "fixed_monthly"
	TypeFixedHourly       PolicyType = "fixed_hourly"
	TypeCommission        PolicyType = "commission"
	TypeTieredCommission  PolicyType = "tiered_commission"
	TypeStudentBased      PolicyType = "student_based"
	TypeHybrid            PolicyType = "hybrid"
	TypeGuaranteedMinimum PolicyType = "guaranteed_minimum"
)

// PolicyTypes lists every known kind in display order.
var PolicyTypes = []PolicyType{
	TypeFixedMonthly,
	TypeFixedHourly,
	TypeCommission,
	TypeTieredCommission,
	TypeStudentBased,
	TypeHybrid,
	TypeGuaranteedMinimum,
}

func (t PolicyType) Valid() bool {
	for _, known := range PolicyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParsePolicyType maps a tag to a PolicyType. An empty tag is reported by the
// validator as MissingPolicyType; anything else unknown is a contract error.
func ParsePolicyType(s string) (PolicyType, error) {
	t := PolicyType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicyType, s)
	}
	return t, nil
}

// =============================================================================
// COMMISSION BASIS
// =============================================================================

type CommissionBasis string

const (
	BasisRevenue  CommissionBasis = "revenue"
	BasisSessions CommissionBasis = "sessions"
	BasisCustom   CommissionBasis = "custom"
)

func (b CommissionBasis) Valid() bool {
	switch b {
	case BasisRevenue, BasisSessions, BasisCustom:
		return true
	default:
		return false
	}
}

// orRevenue returns the basis, defaulting to revenue where the basis is optional.
func (b CommissionBasis) orRevenue() CommissionBasis {
	if b == "" {
		return BasisRevenue
	}
	return b
}

// =============================================================================
// COMMON FIELDS
// =============================================================================

// Bounds are the optional floor and ceiling applied after any calculator.
type Bounds struct {
	MinimumGuaranteed *decimal.Decimal
	MaximumAmount     *decimal.Decimal
}

// PolicyMeta holds the fields shared by every policy kind.
type PolicyMeta struct {
	ID          PolicyID
	TenantID    TenantID
	Name        string
	Description string
	IsActive    bool
	Bounds      Bounds
}

func (m PolicyMeta) Meta() PolicyMeta { return m }

func (PolicyMeta) policy() {}

// Policy is implemented by the seven variants below and nothing else.
type Policy interface {
	Meta() PolicyMeta
	Type() PolicyType
	policy()
}

// =============================================================================
// VARIANTS
// =============================================================================

type FixedMonthly struct {
	PolicyMeta
	BaseAmount decimal.Decimal
}

type FixedHourly struct {
	PolicyMeta
	HourlyRate decimal.Decimal
}

type Commission struct {
	PolicyMeta
	Rate  decimal.Decimal // percent, 0 < Rate <= 100
	Basis CommissionBasis
}

// TieredCommission applies progressive brackets to a basis figure (revenue
// unless Basis says otherwise). Tiers can only be built by NewTierSchedule.
type TieredCommission struct {
	PolicyMeta
	Basis CommissionBasis
	Tiers TierSchedule
}

type StudentBased struct {
	PolicyMeta
	StudentRate decimal.Decimal
	MinStudents *decimal.Decimal
	MaxStudents *decimal.Decimal
}

// Hybrid pays BaseAmount plus a commission. With a PerformanceThreshold only
// the part of the basis figure above it earns commission.
type Hybrid struct {
	PolicyMeta
	BaseAmount           decimal.Decimal
	Rate                 decimal.Decimal
	Basis                CommissionBasis
	PerformanceThreshold *decimal.Decimal
}

type GuaranteedMinimum struct {
	PolicyMeta
	MinimumGuaranteed decimal.Decimal
	Rate              decimal.Decimal
	Basis             CommissionBasis
}

func (FixedMonthly) Type() PolicyType { return TypeFixedMonthly }
func (FixedHourly) Type() PolicyType { return TypeFixedHourly }
func (Commission) Type() PolicyType { return TypeCommission }
func (TieredCommission) Type() PolicyType { return TypeTieredCommission }
func (StudentBased) Type() PolicyType { return TypeStudentBased }
func (Hybrid) Type() PolicyType { return TypeHybrid }
func (GuaranteedMinimum) Type() PolicyType { return TypeGuaranteedMinimum }

var (
	_ Policy = FixedMonthly{}
	_ Policy = FixedHourly{}
	_ Policy = Commission{}
	_ Policy = TieredCommission{}
	_ Policy = StudentBased{}
	_ Policy = Hybrid{}
	_ Policy = GuaranteedMinimum{}
)

// effectiveFloor is the highest minimum a policy promises, whether it comes
// from the cross-cutting bound or from a guaranteed_minimum policy itself.
func effectiveFloor(p Policy) *decimal.Decimal {
	floor := p.Meta().Bounds.MinimumGuaranteed
	if gm, ok := p.(GuaranteedMinimum); ok && gm.MinimumGuaranteed.IsPositive() {
		if floor == nil || gm.MinimumGuaranteed.GreaterThan(*floor) {
			floor = Ptr(gm.MinimumGuaranteed)
		}
	}
	return floor
}
