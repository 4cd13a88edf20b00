/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Salary amounts in responses are whole currency units encoded as JSON
  integers. Quantities and rates keep their decimal form and are encoded as
  strings.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON and MetricsJSON types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/educanvas/salary-engine/factory"
	"github.com/educanvas/salary-engine/salary"
)

// =============================================================================
// POLICIES
// =============================================================================

// PolicyDTO represents a stored policy in API responses.
type PolicyDTO struct {
	ID        string             `json:"id"`
	TenantID  string             `json:"tenant_id"`
	Name      string             `json:"name"`
	Type      string             `json:"type"`
	IsActive  bool               `json:"is_active"`
	Version   int                `json:"version"`
	Config    factory.PolicyJSON `json:"config"`
	CreatedAt string             `json:"created_at,omitempty"`
	UpdatedAt string             `json:"updated_at,omitempty"`
}

// ValidatePolicyResponse is returned by the dry-run validation endpoint.
type ValidatePolicyResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

type AssignPolicyRequest struct {
	PolicyID string `json:"policy_id"`
}

type AssignmentDTO struct {
	ID           string `json:"id"`
	InstructorID string `json:"instructor_id"`
	PolicyID     string `json:"policy_id"`
	PolicyName   string `json:"policy_name,omitempty"`
	AssignedAt   string `json:"assigned_at"`
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// CalculateRequest asks for one instructor's salary for one period. The
// policy is taken from PolicyID, else from the inline Policy, else from the
// instructor's assignment. PreviewMode defaults to true.
type CalculateRequest struct {
	InstructorID string              `json:"instructor_id"`
	Period       string              `json:"period"`
	PolicyID     string              `json:"policy_id,omitempty"`
	Policy       *factory.PolicyJSON `json:"policy,omitempty"`
	Metrics      factory.MetricsJSON `json:"metrics"`
	PreviewMode  *bool               `json:"preview_mode,omitempty"`
}

func (r CalculateRequest) preview() bool {
	return r.PreviewMode == nil || *r.PreviewMode
}

type ComponentDTO struct {
	Code     string           `json:"code"`
	Label    string           `json:"label"`
	Amount   int64            `json:"amount"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	TierID   string           `json:"tier_id,omitempty"`
}

// CalculationDTO is a SalaryCalculationResult on the wire. ID and
// CalculatedAt are set only for persisted calculations.
type CalculationDTO struct {
	ID           string              `json:"id,omitempty"`
	TenantID     string              `json:"tenant_id"`
	InstructorID string              `json:"instructor_id"`
	Period       string              `json:"period"`
	PolicyID     string              `json:"policy_id,omitempty"`
	PolicyName   string              `json:"policy_name,omitempty"`
	PolicyType   string              `json:"policy_type"`
	Metrics      factory.MetricsJSON `json:"metrics"`
	Components   []ComponentDTO      `json:"components"`
	GrossSalary  int64               `json:"gross_salary"`
	Deductions   int64               `json:"deductions"`
	NetSalary    int64               `json:"net_salary"`
	PreviewMode  bool                `json:"preview_mode"`
	CalculatedAt string              `json:"calculated_at,omitempty"`
}

type CalculateResponse struct {
	Calculation CalculationDTO `json:"calculation"`
	PreviewMode bool           `json:"preview_mode"`
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

// PayrollRunRequest calculates a whole period for several instructors, each
// paid by their assigned policy.
type PayrollRunRequest struct {
	Period      string         `json:"period"`
	PreviewMode *bool          `json:"preview_mode,omitempty"`
	Entries     []PayrollEntry `json:"entries"`
}

type PayrollEntry struct {
	InstructorID string              `json:"instructor_id"`
	Metrics      factory.MetricsJSON `json:"metrics"`
}

type PayrollFailure struct {
	InstructorID string   `json:"instructor_id"`
	Error        string   `json:"error"`
	Errors       []string `json:"errors,omitempty"`
}

type PayrollRunResponse struct {
	Period       string           `json:"period"`
	PreviewMode  bool             `json:"preview_mode"`
	Calculations []CalculationDTO `json:"calculations"`
	Failures     []PayrollFailure `json:"failures"`
	TotalNet     int64            `json:"total_net"`
}

// =============================================================================
// SCENARIOS / MISC
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type HealthDTO struct {
	Status string `json:"status"`
	Tenant string `json:"tenant"`
}

// ErrorResponse represents an error response. Errors lists every
// validation message when the failure is a validation failure.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPolicyDTO(rec salary.PolicyRecord, config factory.PolicyJSON) PolicyDTO {
	return PolicyDTO{
		ID:        string(rec.ID),
		TenantID:  string(rec.TenantID),
		Name:      rec.Name,
		Type:      string(rec.Type),
		IsActive:  rec.IsActive,
		Version:   rec.Version,
		Config:    config,
		CreatedAt: formatTime(rec.CreatedAt),
		UpdatedAt: formatTime(rec.UpdatedAt),
	}
}

func toCalculationDTO(res salary.Result) CalculationDTO {
	components := make([]ComponentDTO, len(res.Components))
	for i, c := range res.Components {
		components[i] = ComponentDTO{
			Code:     string(c.Code),
			Label:    c.Label,
			Amount:   c.Amount.IntPart(),
			Quantity: c.Quantity,
			Rate:     c.Rate,
			TierID:   c.TierID,
		}
	}
	return CalculationDTO{
		TenantID:     string(res.TenantID),
		InstructorID: string(res.InstructorID),
		Period:       res.Period,
		PolicyID:     string(res.PolicyID),
		PolicyName:   res.PolicyName,
		PolicyType:   string(res.PolicyType),
		Metrics:      factory.MetricsToJSON(res.Metrics),
		Components:   components,
		GrossSalary:  res.GrossSalary.IntPart(),
		Deductions:   res.Deductions.IntPart(),
		NetSalary:    res.NetSalary.IntPart(),
		PreviewMode:  res.PreviewMode,
	}
}

func toStoredCalculationDTO(rec salary.CalculationRecord) CalculationDTO {
	dto := toCalculationDTO(rec.Result)
	dto.ID = rec.ID
	dto.TenantID = string(rec.TenantID)
	dto.InstructorID = string(rec.InstructorID)
	dto.CalculatedAt = formatTime(rec.CalculatedAt)
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
