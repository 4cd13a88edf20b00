/*
validate.go - Policy validation

PURPOSE:
  Checks a policy's structure and business rules before any calculation.
  Validation is side-effect free and NOT fail-fast: every applicable problem
  is returned in one pass so an administrator can fix a policy at once.

RULES:
  common              name non-empty; bounds positive; floor <= cap
  fixed_monthly       base_amount > 0
  fixed_hourly        hourly_rate > 0
  commission          0 < commission_rate <= 100; commission_basis required
  tiered_commission   at least one tier (contiguity is enforced by NewTierSchedule)
  student_based       student_rate > 0; min_students <= max_students
  hybrid              base_amount > 0 AND 0 < commission_rate <= 100 (independent)
  guaranteed_minimum  minimum_guaranteed > 0 plus the commission rules
*/
package salary

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Validate returns every validation message for p. Empty means valid.
func Validate(p Policy) []string {
	problems := Problems(p)
	if len(problems) == 0 {
		return []string{}
	}
	return (&ValidationError{Problems: problems}).Messages()
}

// CheckPolicy returns a *ValidationError when p has problems, nil otherwise.
func CheckPolicy(p Policy) error {
	problems := Problems(p)
	if len(problems) == 0 {
		return nil
	}
	var id PolicyID
	if p != nil {
		id = p.Meta().ID
	}
	return &ValidationError{PolicyID: id, Problems: problems}
}

// Problems returns the structured form of every validation failure.
func Problems(p Policy) []Problem {
	if p == nil {
		return []Problem{{Code: MissingPolicyType, Field: "type", Message: "policy type is required"}}
	}

	var v validator
	meta := p.Meta()
	if strings.TrimSpace(meta.Name) == "" {
		v.add(MissingPolicyName, "name", "policy name is required")
	}

	switch pol := p.(type) {
	case FixedMonthly:
		v.positive(pol.BaseAmount, MissingBaseAmount, "base_amount", "base amount must be greater than 0")
	case FixedHourly:
		v.positive(pol.HourlyRate, MissingHourlyRate, "hourly_rate", "hourly rate must be greater than 0")
	case Commission:
		v.rate(pol.Rate)
		v.basis(pol.Basis, true)
	case TieredCommission:
		if pol.Tiers.IsZero() {
			v.add(MissingTiers, "tiers", "at least one commission tier is required")
		}
		v.basis(pol.Basis, false)
	case StudentBased:
		v.positive(pol.StudentRate, MissingStudentRate, "student_rate", "student rate must be greater than 0")
		v.studentRange(pol.MinStudents, pol.MaxStudents)
	case Hybrid:
		v.positive(pol.BaseAmount, MissingBaseAmount, "base_amount", "base amount must be greater than 0")
		v.rate(pol.Rate)
		v.basis(pol.Basis, false)
		if pol.PerformanceThreshold != nil && pol.PerformanceThreshold.IsNegative() {
			v.add(InvalidPerformanceThreshold, "performance_threshold", "performance threshold cannot be negative")
		}
	case GuaranteedMinimum:
		v.positive(pol.MinimumGuaranteed, MissingMinimumGuaranteed, "minimum_guaranteed", "minimum guaranteed amount must be greater than 0")
		v.rate(pol.Rate)
		v.basis(pol.Basis, true)
	default:
		v.add(MissingPolicyType, "type", "unsupported policy type "+string(p.Type()))
	}

	v.bounds(meta.Bounds, effectiveFloor(p))
	return v.problems
}

// =============================================================================
// RULE HELPERS
// =============================================================================

type validator struct {
	problems []Problem
}

func (v *validator) add(code ProblemCode, field, msg string) {
	v.problems = append(v.problems, Problem{Code: code, Field: field, Message: msg})
}

func (v *validator) positive(d decimal.Decimal, code ProblemCode, field, msg string) {
	if !d.IsPositive() {
		v.add(code, field, msg)
	}
}

func (v *validator) rate(r decimal.Decimal) {
	if !r.IsPositive() || r.GreaterThan(hundred) {
		v.add(InvalidCommissionRate, "commission_rate", "commission rate must be greater than 0 and at most 100")
	}
}

func (v *validator) basis(b CommissionBasis, required bool) {
	switch {
	case b == "" && required:
		v.add(MissingCommissionBasis, "commission_basis", "commission basis is required (revenue, sessions or custom)")
	case b != "" && !b.Valid():
		v.add(MissingCommissionBasis, "commission_basis", "commission basis must be revenue, sessions or custom, got "+string(b))
	}
}

func (v *validator) studentRange(lo, hi *decimal.Decimal) {
	if lo != nil && lo.IsNegative() {
		v.add(InvalidStudentRange, "min_students", "minimum students cannot be negative")
	}
	if hi != nil && hi.IsNegative() {
		v.add(InvalidStudentRange, "max_students", "maximum students cannot be negative")
	}
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		v.add(InvalidStudentRange, "min_students", "minimum students cannot exceed maximum students")
	}
}

func (v *validator) bounds(b Bounds, floor *decimal.Decimal) {
	if b.MinimumGuaranteed != nil && !b.MinimumGuaranteed.IsPositive() {
		v.add(InvalidMinimumGuaranteed, "minimum_guaranteed", "minimum guaranteed amount must be greater than 0")
	}
	if b.MaximumAmount != nil && !b.MaximumAmount.IsPositive() {
		v.add(InvalidMaximumAmount, "maximum_amount", "maximum amount must be greater than 0")
	}
	if floor != nil && b.MaximumAmount != nil && b.MaximumAmount.IsPositive() && floor.GreaterThan(*b.MaximumAmount) {
		v.add(GuaranteeExceedsMaximum, "minimum_guaranteed", "minimum guaranteed amount cannot exceed maximum amount")
	}
}
