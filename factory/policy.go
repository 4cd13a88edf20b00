/*
Package factory converts between stored/transported policy documents and
salary.Policy values.

PURPOSE:
  Policies are edited by academy administrators and stored as JSON. The
  factory turns that flat, snake_case document into the typed policy variant
  the engine expects, and back. YAML is accepted for files handed to the CLI.

JSON SCHEMA:
  {
    "id": "pol-tiered",
    "tenant_id": "academy-1",
    "name": "Sales tiers",
    "type": "tiered_commission",
    "is_active": true,
    "commission_basis": "revenue",
    "tiers": [
      {"id": "t1", "min_amount": 0, "max_amount": 5000000, "commission_rate": 10},
      {"id": "t2", "min_amount": 5000000, "commission_rate": 15}
    ],
    "minimum_guaranteed": 1000000,
    "maximum_amount": 5000000
  }

  Amounts may be JSON numbers or strings. ToJSON writes them as strings so
  no precision is lost on the way back.

DECODING RULES:
  - A missing type or name, or a malformed tier list, is reported as one
    *salary.ValidationError holding every problem found.
  - A type string that is not one of the seven kinds returns
    salary.ErrUnknownPolicyType.
  - Anything else (rates out of range, missing base amount, ...) is left to
    salary.Validate so both paths produce the same messages.

USAGE:
  p, err := factory.ParsePolicy(factory.HybridJSON("pol-1", "Base + 5%", 1_500_000, 5))
  if err != nil { ... }
  errs := salary.Validate(p)

SEE ALSO:
  - salary/policy.go: Policy variants
  - factory/presets.go: Ready-made policy documents
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/educanvas/salary-engine/salary"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the flat document form of every policy kind. Fields that do
// not apply to a kind are left empty.
type PolicyJSON struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsActive    *bool  `json:"is_active,omitempty"`
	Description string `json:"description,omitempty"`

	BaseAmount           *decimal.Decimal `json:"base_amount,omitempty"`
	HourlyRate           *decimal.Decimal `json:"hourly_rate,omitempty"`
	CommissionRate       *decimal.Decimal `json:"commission_rate,omitempty"`
	CommissionBasis      string           `json:"commission_basis,omitempty"`
	Tiers                []TierJSON       `json:"tiers,omitempty"`
	StudentRate          *decimal.Decimal `json:"student_rate,omitempty"`
	MinStudents          *decimal.Decimal `json:"min_students,omitempty"`
	MaxStudents          *decimal.Decimal `json:"max_students,omitempty"`
	PerformanceThreshold *decimal.Decimal `json:"performance_threshold,omitempty"`

	MinimumGuaranteed *decimal.Decimal `json:"minimum_guaranteed,omitempty"`
	MaximumAmount     *decimal.Decimal `json:"maximum_amount,omitempty"`
}

// TierJSON is one commission bracket. A missing max_amount means open-ended.
type TierJSON struct {
	ID             string           `json:"id,omitempty"`
	MinAmount      decimal.Decimal  `json:"min_amount"`
	MaxAmount      *decimal.Decimal `json:"max_amount,omitempty"`
	CommissionRate decimal.Decimal  `json:"commission_rate"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePolicy decodes a JSON document and converts it with FromJSON.
func ParsePolicy(jsonStr string) (salary.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return FromJSON(pj)
}

// ParsePolicyYAML accepts the same document written as YAML.
func ParsePolicyYAML(data []byte) (salary.Policy, error) {
	pj, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return FromJSON(pj)
}

// DecodeYAML reads a YAML policy document into its JSON form. Keys are the
// same snake_case names as the JSON schema.
func DecodeYAML(data []byte) (PolicyJSON, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return PolicyJSON{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	// Route through JSON so decimals and field names decode one way only.
	b, err := json.Marshal(raw)
	if err != nil {
		return PolicyJSON{}, fmt.Errorf("failed to convert policy YAML: %w", err)
	}
	var pj PolicyJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return PolicyJSON{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	return pj, nil
}

// FromJSON converts a document into the matching policy variant.
func FromJSON(pj PolicyJSON) (salary.Policy, error) {
	meta := salary.PolicyMeta{
		ID:          salary.PolicyID(pj.ID),
		TenantID:    salary.TenantID(pj.TenantID),
		Name:        pj.Name,
		Description: pj.Description,
		IsActive:    pj.IsActive == nil || *pj.IsActive,
		Bounds: salary.Bounds{
			MinimumGuaranteed: pj.MinimumGuaranteed,
			MaximumAmount:     pj.MaximumAmount,
		},
	}

	if strings.TrimSpace(pj.Type) == "" {
		problems := []salary.Problem{}
		if strings.TrimSpace(pj.Name) == "" {
			problems = append(problems, salary.Problem{
				Code: salary.MissingPolicyName, Field: "name", Message: "policy name is required",
			})
		}
		problems = append(problems, salary.Problem{
			Code: salary.MissingPolicyType, Field: "type", Message: "policy type is required",
		})
		return nil, &salary.ValidationError{PolicyID: meta.ID, Problems: problems}
	}

	typ, err := salary.ParsePolicyType(pj.Type)
	if err != nil {
		return nil, err
	}

	basis := salary.CommissionBasis(pj.CommissionBasis)
	switch typ {
	case salary.TypeFixedMonthly:
		return salary.FixedMonthly{PolicyMeta: meta, BaseAmount: value(pj.BaseAmount)}, nil

	case salary.TypeFixedHourly:
		return salary.FixedHourly{PolicyMeta: meta, HourlyRate: value(pj.HourlyRate)}, nil

	case salary.TypeCommission:
		return salary.Commission{PolicyMeta: meta, Rate: value(pj.CommissionRate), Basis: basis}, nil

	case salary.TypeTieredCommission:
		policy := salary.TieredCommission{PolicyMeta: meta, Basis: basis}
		if len(pj.Tiers) == 0 {
			return policy, nil
		}
		schedule, err := salary.NewTierSchedule(parseTiers(pj.Tiers))
		if err != nil {
			return nil, tierProblem(policy, err)
		}
		policy.Tiers = schedule
		return policy, nil

	case salary.TypeStudentBased:
		return salary.StudentBased{
			PolicyMeta:  meta,
			StudentRate: value(pj.StudentRate),
			MinStudents: pj.MinStudents,
			MaxStudents: pj.MaxStudents,
		}, nil

	case salary.TypeHybrid:
		return salary.Hybrid{
			PolicyMeta:           meta,
			BaseAmount:           value(pj.BaseAmount),
			Rate:                 value(pj.CommissionRate),
			Basis:                basis,
			PerformanceThreshold: pj.PerformanceThreshold,
		}, nil

	case salary.TypeGuaranteedMinimum:
		// minimum_guaranteed is the policy's own floor here, paid as a
		// top-up component rather than as a clamp adjustment.
		meta.Bounds.MinimumGuaranteed = nil
		return salary.GuaranteedMinimum{
			PolicyMeta:        meta,
			MinimumGuaranteed: value(pj.MinimumGuaranteed),
			Rate:              value(pj.CommissionRate),
			Basis:             basis,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", salary.ErrUnknownPolicyType, pj.Type)
}

// Messages decodes a document and returns every validation message for it,
// structural and semantic. Used by validate endpoints and the CLI.
func Messages(pj PolicyJSON) ([]string, error) {
	p, err := FromJSON(pj)
	var verr *salary.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Messages(), nil
	case err != nil:
		return nil, err
	}
	return salary.Validate(p), nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// ToJSON is the inverse of FromJSON.
func ToJSON(p salary.Policy) PolicyJSON {
	meta := p.Meta()
	active := meta.IsActive
	pj := PolicyJSON{
		ID:                string(meta.ID),
		TenantID:          string(meta.TenantID),
		Name:              meta.Name,
		Type:              string(p.Type()),
		IsActive:          &active,
		Description:       meta.Description,
		MinimumGuaranteed: meta.Bounds.MinimumGuaranteed,
		MaximumAmount:     meta.Bounds.MaximumAmount,
	}

	switch pol := p.(type) {
	case salary.FixedMonthly:
		pj.BaseAmount = nonZero(pol.BaseAmount)
	case salary.FixedHourly:
		pj.HourlyRate = nonZero(pol.HourlyRate)
	case salary.Commission:
		pj.CommissionRate = nonZero(pol.Rate)
		pj.CommissionBasis = string(pol.Basis)
	case salary.TieredCommission:
		pj.CommissionBasis = string(pol.Basis)
		for _, t := range pol.Tiers.Tiers() {
			pj.Tiers = append(pj.Tiers, TierJSON{
				ID:             t.ID,
				MinAmount:      t.MinAmount,
				MaxAmount:      t.MaxAmount,
				CommissionRate: t.Rate,
			})
		}
	case salary.StudentBased:
		pj.StudentRate = nonZero(pol.StudentRate)
		pj.MinStudents = pol.MinStudents
		pj.MaxStudents = pol.MaxStudents
	case salary.Hybrid:
		pj.BaseAmount = nonZero(pol.BaseAmount)
		pj.CommissionRate = nonZero(pol.Rate)
		pj.CommissionBasis = string(pol.Basis)
		pj.PerformanceThreshold = pol.PerformanceThreshold
	case salary.GuaranteedMinimum:
		pj.MinimumGuaranteed = nonZero(pol.MinimumGuaranteed)
		pj.CommissionRate = nonZero(pol.Rate)
		pj.CommissionBasis = string(pol.Basis)
	}
	return pj
}

// Marshal returns the JSON text of ToJSON(p).
func Marshal(p salary.Policy) (string, error) {
	b, err := json.Marshal(ToJSON(p))
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func value(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func nonZero(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return salary.Ptr(d)
}

func parseTiers(tj []TierJSON) []salary.Tier {
	tiers := make([]salary.Tier, len(tj))
	for i, t := range tj {
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("tier-%d", i+1)
		}
		tiers[i] = salary.Tier{
			ID:        id,
			MinAmount: t.MinAmount,
			MaxAmount: t.MaxAmount,
			Rate:      t.CommissionRate,
		}
	}
	return tiers
}

// tierProblem reports a malformed tier list together with the policy's other
// problems. MissingTiers is dropped since tiers were given.
func tierProblem(policy salary.TieredCommission, tierErr error) error {
	var problems []salary.Problem
	for _, p := range salary.Problems(policy) {
		if p.Code != salary.MissingTiers {
			problems = append(problems, p)
		}
	}
	msg := tierErr.Error()
	var cfgErr *salary.TierConfigError
	if errors.As(tierErr, &cfgErr) {
		msg = fmt.Sprintf("tier %d: %s", cfgErr.Index+1, cfgErr.Reason)
	}
	problems = append(problems, salary.Problem{
		Code:    salary.InvalidTierConfiguration,
		Field:   "tiers",
		Message: msg,
	})
	return &salary.ValidationError{PolicyID: policy.ID, Problems: problems}
}
