/*
handlers.go - HTTP API handlers for the salary service

PURPOSE:
  Exposes the salary engine via REST API. Handles HTTP request/response,
  JSON serialization, tenant scoping and persistence, and delegates every
  calculation to salary.Engine.

ENDPOINTS:
  Policies:
    GET    /api/policies                          List policies (?include_inactive=true)
    POST   /api/policies                          Create policy
    POST   /api/policies/validate                 Validate without saving
    GET    /api/policies/{id}                     Get policy
    PUT    /api/policies/{id}                     Update policy (version++)
    DELETE /api/policies/{id}                     Soft delete

  Instructors:
    GET    /api/instructors/{id}/assignment       Assigned policy
    POST   /api/instructors/{id}/assignment       Assign a policy
    GET    /api/instructors/{id}/calculations     Persisted calculations
    GET    /api/instructors/{id}/calculations/{period}

  Calculations:
    POST   /api/calculations                      Preview or persist one
    POST   /api/payroll/run                       Whole period (payroll.go)

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve tenant and policy
  3. salary.Engine.Calculate
  4. Persist when preview_mode is false
  5. Serialize response

ERROR HANDLING:
  - 400: Validation errors ({error, errors[]}), malformed input
  - 404: Policy, assignment or calculation not found
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/educanvas/salary-engine/factory"
	"github.com/educanvas/salary-engine/salary"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         salary.Store
	Engine        salary.Engine
	Logger        *zap.Logger
	DefaultTenant string

	// PayrollWorkers bounds concurrent calculations in a payroll run.
	PayrollWorkers int

	now func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store salary.Store, logger *zap.Logger, defaultTenant string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:          store,
		Logger:         logger,
		DefaultTenant:  defaultTenant,
		PayrollWorkers: 4,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// requestError is a malformed request that is not a policy validation failure.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns the tenant's policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	tenant := TenantFrom(r.Context())
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	records, err := h.Store.ListPolicies(r.Context(), tenant, includeInactive)
	if err != nil {
		h.fail(w, r, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, 0, len(records))
	for _, rec := range records {
		var config factory.PolicyJSON
		if err := json.Unmarshal([]byte(rec.ConfigJSON), &config); err != nil {
			h.Logger.Warn("skipping unreadable policy", zap.String("policy_id", string(rec.ID)), zap.Error(err))
			continue
		}
		dtos = append(dtos, toPolicyDTO(rec, config))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreatePolicy validates and stores a new policy. An empty id is generated.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var pj factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if pj.ID == "" {
		pj.ID = uuid.New().String()
	}

	dto, err := h.savePolicy(r.Context(), pj)
	if err != nil {
		h.fail(w, r, "Failed to create policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// UpdatePolicy replaces an existing policy and bumps its version.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var pj factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	existing, err := h.Store.GetPolicy(r.Context(), TenantFrom(r.Context()), salary.PolicyID(id))
	if err != nil {
		h.fail(w, r, "Failed to update policy", err)
		return
	}
	pj.ID = id
	// An edit that omits is_active keeps the stored state.
	if pj.IsActive == nil {
		active := existing.IsActive
		pj.IsActive = &active
	}

	dto, err := h.savePolicy(r.Context(), pj)
	if err != nil {
		h.fail(w, r, "Failed to update policy", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetPolicy returns a single policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetPolicy(r.Context(), TenantFrom(r.Context()), salary.PolicyID(id))
	if err != nil {
		h.fail(w, r, "Failed to get policy", err)
		return
	}

	var config factory.PolicyJSON
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &config); err != nil {
		h.fail(w, r, "Failed to get policy", eris.Wrapf(err, "decode stored policy %s", id))
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(*rec, config))
}

// DeletePolicy soft-deletes a policy.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeletePolicy(r.Context(), TenantFrom(r.Context()), salary.PolicyID(id)); err != nil {
		h.fail(w, r, "Failed to delete policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidatePolicy returns every validation message without saving anything.
func (h *Handler) ValidatePolicy(w http.ResponseWriter, r *http.Request) {
	var pj factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	msgs, err := factory.Messages(pj)
	if err != nil {
		msgs = []string{err.Error()}
	}
	writeJSON(w, http.StatusOK, ValidatePolicyResponse{Valid: len(msgs) == 0, Errors: msgs})
}

func (h *Handler) savePolicy(ctx context.Context, pj factory.PolicyJSON) (PolicyDTO, error) {
	pj.TenantID = string(TenantFrom(ctx))

	policy, err := factory.FromJSON(pj)
	if err != nil {
		return PolicyDTO{}, err
	}
	if err := salary.CheckPolicy(policy); err != nil {
		return PolicyDTO{}, err
	}
	config, err := factory.Marshal(policy)
	if err != nil {
		return PolicyDTO{}, err
	}

	meta := policy.Meta()
	rec := salary.PolicyRecord{
		ID:         meta.ID,
		TenantID:   meta.TenantID,
		Name:       meta.Name,
		Type:       policy.Type(),
		ConfigJSON: config,
		IsActive:   meta.IsActive,
	}
	if err := h.Store.SavePolicy(ctx, rec); err != nil {
		return PolicyDTO{}, err
	}

	saved, err := h.Store.GetPolicy(ctx, rec.TenantID, rec.ID)
	if err != nil {
		return PolicyDTO{}, err
	}
	h.Logger.Info("policy saved",
		zap.String("tenant_id", string(rec.TenantID)),
		zap.String("policy_id", string(rec.ID)),
		zap.String("type", string(rec.Type)),
		zap.Int("version", saved.Version),
	)
	return toPolicyDTO(*saved, factory.ToJSON(policy)), nil
}

// loadPolicy reads a stored policy and decodes it into its variant.
func (h *Handler) loadPolicy(ctx context.Context, tenant salary.TenantID, id salary.PolicyID) (salary.Policy, error) {
	rec, err := h.Store.GetPolicy(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	policy, err := factory.ParsePolicy(rec.ConfigJSON)
	if err != nil {
		return nil, eris.Wrapf(err, "decode stored policy %s", id)
	}
	return policy, nil
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// AssignPolicy sets the policy that pays an instructor, replacing any
// previous assignment.
func (h *Handler) AssignPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := TenantFrom(ctx)
	instructorID := salary.InstructorID(chi.URLParam(r, "id"))

	var req AssignPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PolicyID == "" {
		writeError(w, http.StatusBadRequest, "policy_id is required", nil)
		return
	}

	policy, err := h.Store.GetPolicy(ctx, tenant, salary.PolicyID(req.PolicyID))
	if err != nil {
		h.fail(w, r, "Failed to assign policy", err)
		return
	}

	rec := salary.AssignmentRecord{
		ID:           uuid.New().String(),
		TenantID:     tenant,
		InstructorID: instructorID,
		PolicyID:     policy.ID,
		AssignedAt:   h.now(),
	}
	if err := h.Store.AssignPolicy(ctx, rec); err != nil {
		h.fail(w, r, "Failed to assign policy", err)
		return
	}

	writeJSON(w, http.StatusOK, AssignmentDTO{
		ID:           rec.ID,
		InstructorID: string(rec.InstructorID),
		PolicyID:     string(rec.PolicyID),
		PolicyName:   policy.Name,
		AssignedAt:   formatTime(rec.AssignedAt),
	})
}

// GetAssignment returns the instructor's assigned policy.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := TenantFrom(ctx)

	rec, err := h.Store.GetAssignment(ctx, tenant, salary.InstructorID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get assignment", err)
		return
	}

	dto := AssignmentDTO{
		ID:           rec.ID,
		InstructorID: string(rec.InstructorID),
		PolicyID:     string(rec.PolicyID),
		AssignedAt:   formatTime(rec.AssignedAt),
	}
	if policy, err := h.Store.GetPolicy(ctx, tenant, rec.PolicyID); err == nil {
		dto.PolicyName = policy.Name
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs the engine for one instructor and period. Non-preview
// results are persisted, replacing any earlier result for the period.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := TenantFrom(ctx)

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := salary.ParsePeriod(req.Period)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	preview := req.preview()
	instructorID := salary.InstructorID(req.InstructorID)
	if !preview && instructorID == "" {
		writeError(w, http.StatusBadRequest, "instructor_id is required to persist a calculation", nil)
		return
	}

	policy, err := h.resolvePolicy(ctx, tenant, instructorID, req.PolicyID, req.Policy, preview)
	if err != nil {
		h.fail(w, r, "Failed to resolve policy", err)
		return
	}

	dto, err := h.calculate(ctx, tenant, salary.Request{
		InstructorID: instructorID,
		Period:       period,
		Policy:       policy,
		Metrics:      req.Metrics.Metrics(),
		PreviewMode:  preview,
	})
	if err != nil {
		h.fail(w, r, "Calculation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{Calculation: dto, PreviewMode: preview})
}

// calculate runs the engine and persists the result unless it is a preview.
func (h *Handler) calculate(ctx context.Context, tenant salary.TenantID, req salary.Request) (CalculationDTO, error) {
	resp, err := h.Engine.Calculate(req)
	if err != nil {
		return CalculationDTO{}, err
	}
	if req.PreviewMode {
		return toCalculationDTO(resp.Calculation), nil
	}

	rec, err := h.persist(ctx, tenant, resp.Calculation)
	if err != nil {
		return CalculationDTO{}, err
	}
	h.Logger.Info("calculation saved",
		zap.String("tenant_id", string(tenant)),
		zap.String("instructor_id", string(rec.InstructorID)),
		zap.String("period", rec.Period),
		zap.String("net_salary", rec.Result.NetSalary.String()),
	)
	return toStoredCalculationDTO(rec), nil
}

func (h *Handler) persist(ctx context.Context, tenant salary.TenantID, res salary.Result) (salary.CalculationRecord, error) {
	rec := salary.CalculationRecord{
		ID:           uuid.New().String(),
		TenantID:     tenant,
		InstructorID: res.InstructorID,
		Period:       res.Period,
		Result:       res,
		CalculatedAt: h.now(),
	}
	// Recalculating a period keeps the original record ID.
	existing, err := h.Store.GetCalculation(ctx, tenant, res.InstructorID, res.Period)
	switch {
	case err == nil:
		rec.ID = existing.ID
	case !errors.Is(err, salary.ErrCalculationNotFound):
		return rec, err
	}

	if err := h.Store.SaveCalculation(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// resolvePolicy picks the policy by id, else the inline document, else the
// instructor's assignment. Official runs refuse inactive policies.
func (h *Handler) resolvePolicy(ctx context.Context, tenant salary.TenantID, instructorID salary.InstructorID, policyID string, inline *factory.PolicyJSON, preview bool) (salary.Policy, error) {
	var (
		policy salary.Policy
		err    error
	)
	switch {
	case policyID != "":
		policy, err = h.loadPolicy(ctx, tenant, salary.PolicyID(policyID))
	case inline != nil:
		pj := *inline
		pj.TenantID = string(tenant)
		policy, err = factory.FromJSON(pj)
	case instructorID != "":
		var a *salary.AssignmentRecord
		a, err = h.Store.GetAssignment(ctx, tenant, instructorID)
		if err == nil {
			policy, err = h.loadPolicy(ctx, tenant, a.PolicyID)
		}
	default:
		return nil, badRequest("policy_id, policy or an assigned instructor_id is required")
	}
	if err != nil {
		return nil, err
	}

	if !preview && !policy.Meta().IsActive {
		return nil, fmt.Errorf("%w: %s", salary.ErrPolicyInactive, policy.Meta().ID)
	}
	return policy, nil
}

// ListCalculations returns an instructor's persisted calculations, newest first.
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.Store.ListCalculations(ctx, TenantFrom(ctx), salary.InstructorID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to list calculations", err)
		return
	}

	dtos := make([]CalculationDTO, len(records))
	for i, rec := range records {
		dtos[i] = toStoredCalculationDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCalculation returns the persisted calculation for one period.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period, err := salary.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	rec, err := h.Store.GetCalculation(ctx, TenantFrom(ctx), salary.InstructorID(chi.URLParam(r, "id")), period.String())
	if err != nil {
		h.fail(w, r, "Failed to get calculation", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoredCalculationDTO(*rec))
}

// Health reports liveness and the tenant the request resolved to.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Tenant: string(TenantFrom(r.Context()))})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps err onto a status code. Validation failures list every message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	var (
		verr   *salary.ValidationError
		reqErr *requestError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Policy validation failed", Errors: verr.Messages()})
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.msg, nil)
	case salary.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case salary.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("tenant_id", string(TenantFrom(r.Context()))),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}
