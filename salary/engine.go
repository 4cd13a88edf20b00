/*
engine.go - Result assembly and the public calculation entry point

REQUEST FLOW:
  1. Validate the policy (all problems at once, short-circuit on any)
  2. Run the calculator for the policy kind
  3. Apply the guarantee floor and maximum cap
  4. Assemble the result, rounding money once to whole currency units

The engine never reads the clock, never generates IDs and never persists.
Two calls with the same request yield identical results. Persisting a
non-preview result under (instructor, period) is the caller's job.

USAGE:
  resp, err := salary.Engine{}.Calculate(salary.Request{
      InstructorID: "inst-7",
      Period:       salary.MustParsePeriod("2025-03"),
      Policy:       policy,
      Metrics:      salary.PeriodMetrics{Revenue: salary.Won(12_000_000)},
      PreviewMode:  true,
  })
  var verr *salary.ValidationError
  if errors.As(err, &verr) {
      return verr.Messages() // 400
  }
*/
package salary

import "github.com/shopspring/decimal"

// =============================================================================
// CONTRACT
// =============================================================================

// Request is the engine input.
type Request struct {
	InstructorID InstructorID
	Period       Period
	Policy       Policy
	Metrics      PeriodMetrics
	PreviewMode  bool
}

// Result is the assembled calculation. All amounts are whole currency units.
type Result struct {
	InstructorID InstructorID
	TenantID     TenantID
	PolicyID     PolicyID
	PolicyName   string
	PolicyType   PolicyType
	Period       string
	Metrics      PeriodMetrics
	Components   []Component
	GrossSalary  decimal.Decimal
	Deductions   decimal.Decimal // placeholder for downstream deductions, always zero
	NetSalary    decimal.Decimal
	PreviewMode  bool
}

// Response pairs the result with the preview flag the caller asked for.
type Response struct {
	Calculation Result
	PreviewMode bool
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine is stateless; the zero value is ready to use and safe for
// concurrent calls.
type Engine struct{}

// Calculate runs validate -> calculate -> clamp -> assemble.
// Validation failures are returned as *ValidationError.
func (Engine) Calculate(req Request) (*Response, error) {
	if err := CheckPolicy(req.Policy); err != nil {
		return nil, err
	}

	breakdown, err := Compute(req.Policy, req.Metrics)
	if err != nil {
		return nil, err
	}
	breakdown = ApplyBounds(breakdown, req.Policy.Meta().Bounds)

	result := Assemble(req, breakdown)
	return &Response{Calculation: result, PreviewMode: req.PreviewMode}, nil
}

// Assemble packages a clamped breakdown into a Result. Rounding to the
// nearest whole unit (half up) happens here and only here: calculator
// components are rounded, gross is their sum, and the floor and cap are
// re-applied to that rounded gross so the components always add up to net.
func Assemble(req Request, b Breakdown) Result {
	meta := req.Policy.Meta()

	earned := make([]Component, 0, len(b.Components))
	for _, c := range b.Components {
		if c.isAdjustment() {
			continue
		}
		c.Amount = roundMoney(c.Amount)
		earned = append(earned, c)
	}
	rounded := newBreakdown(earned...)
	clamped := ApplyBounds(rounded, meta.Bounds)

	components := make([]Component, len(clamped.Components))
	net := decimal.Zero
	for i, c := range clamped.Components {
		if c.isAdjustment() {
			c.Amount = roundMoney(c.Amount)
		}
		components[i] = c
		net = net.Add(c.Amount)
	}

	period := ""
	if !req.Period.IsZero() {
		period = req.Period.String()
	}

	return Result{
		InstructorID: req.InstructorID,
		TenantID:     meta.TenantID,
		PolicyID:     meta.ID,
		PolicyName:   meta.Name,
		PolicyType:   req.Policy.Type(),
		Period:       period,
		Metrics:      req.Metrics.Normalized(),
		Components:   components,
		GrossSalary:  rounded.Gross,
		Deductions:   decimal.Zero,
		NetSalary:    net,
		PreviewMode:  req.PreviewMode,
	}
}
