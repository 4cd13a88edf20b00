/*
Package salary provides the instructor salary calculation engine.

PURPOSE:
  Given an instructor's compensation policy and the performance figures of a
  reporting period, the engine computes a deterministic, auditable net salary.
  It is a pure transformation: no I/O, no clock, no shared state. Persisting
  policies or results is the caller's job (see store.go for the contracts the
  surrounding service implements).

KEY CONCEPTS IN THIS FILE (types.go):
  - Money helpers: decimal.Decimal everywhere, never float64
  - PeriodMetrics: the raw facts a calculator consumes
  - Period: a calendar month identifier (YYYY-MM)
  - Identifiers: type-safe tenant/policy/instructor IDs

PIPELINE:
  validate -> calculate -> clamp -> assemble

  Any validation failure short-circuits before calculation. There is no
  retry and no partial state.

SEE ALSO:
  - policy.go:    The seven policy variants
  - validate.go:  Structural and business-rule validation
  - tier.go:      Progressive bracket resolution
  - calculate.go: One calculator per policy variant
  - clamp.go:     Guarantee floor / maximum cap stage
  - engine.go:    Result assembly and the public entry point
*/
package salary

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type PolicyID string
type InstructorID string

// =============================================================================
// MONEY
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Won builds a whole-unit monetary amount.
func Won(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// Percent builds a rate expressed in percent (5 means 5%).
func Percent(p float64) decimal.Decimal { return decimal.NewFromFloat(p) }

// Ptr returns a pointer to d, for optional policy fields.
func Ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func applyRate(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred)
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// roundMoney rounds to the nearest whole currency unit, halves away from zero.
// Only cap adjustments are negative; everything else rounds half up.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// =============================================================================
// PERIOD METRICS - Raw facts for one instructor and one period
// =============================================================================

// PeriodMetrics bundles the performance figures of a reporting period.
// Which fields matter depends on the policy type.
type PeriodMetrics struct {
	Revenue  decimal.Decimal
	Sessions decimal.Decimal
	Hours    decimal.Decimal
	Students decimal.Decimal

	// SessionValue is the billable value of one session, used when a
	// commission is based on sessions.
	SessionValue decimal.Decimal

	// CustomAmount is a caller-computed commission base for the custom basis.
	CustomAmount decimal.Decimal
}

// Normalized floors every negative figure to zero. Metrics come from upstream
// aggregation; one bad figure must not block a payroll run.
func (m PeriodMetrics) Normalized() PeriodMetrics {
	return PeriodMetrics{
		Revenue:      floorZero(m.Revenue),
		Sessions:     floorZero(m.Sessions),
		Hours:        floorZero(m.Hours),
		Students:     floorZero(m.Students),
		SessionValue: floorZero(m.SessionValue),
		CustomAmount: floorZero(m.CustomAmount),
	}
}

// =============================================================================
// PERIOD - Calendar month identifier
// =============================================================================

const periodLayout = "2006-01"

type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }
