/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built academies that populate the store with realistic
	policies, assignments and official calculations for demos and UI work.

AVAILABLE SCENARIOS:

	academy-basics:   One instructor per policy kind, March payroll run
	sales-team:       Tiered and hybrid plans with floors, caps and a threshold
	inactive-policy:  A retired policy that still previews but cannot pay

HOW SCENARIOS WORK:
 1. Reset the store (clear all data, every tenant)
 2. Create policies through the same path as POST /api/policies
 3. Assign each instructor a policy
 4. Run an official payroll for the seeded period

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "sales-team"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.
	Data is loaded into the tenant of the request.

SEE ALSO:
  - payroll.go: runPayroll, used to seed calculations
  - factory/presets.go: Policy JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/educanvas/salary-engine/factory"
	"github.com/educanvas/salary-engine/salary"
)

// ScenarioPeriod is the payroll month seeded by every scenario.
const ScenarioPeriod = "2025-03"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "academy-basics",
		Name:        "Academy Basics",
		Description: "Seven instructors, one per policy kind, with a March payroll run",
		Category:    "policies",
	},
	{
		ID:          "sales-team",
		Name:        "Sales Team",
		Description: "Tiered and hybrid commission with guaranteed floors, caps and a performance threshold",
		Category:    "commission",
	},
	{
		ID:          "inactive-policy",
		Name:        "Inactive Policy",
		Description: "A retired policy that can be previewed but not used for official runs",
		Category:    "lifecycle",
	},
}

var scenarioLoaders = map[string]func(*Handler, context.Context) error{
	"academy-basics":  (*Handler).loadAcademyBasicsScenario,
	"sales-team":      (*Handler).loadSalesTeamScenario,
	"inactive-policy": (*Handler).loadInactivePolicyScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx); err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded",
		zap.String("scenario", req.ScenarioID),
		zap.String("tenant_id", string(TenantFrom(ctx))),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadAcademyBasicsScenario(ctx context.Context) error {
	policies := []string{
		factory.FixedMonthlyJSON("pol-fixed", "Full-time Staff", 3_000_000),
		factory.HourlyJSON("pol-hourly", "Weekend Tutor", 25_000),
		factory.CommissionJSON("pol-commission", "Revenue Share 30%", 30, "revenue"),
		factory.TieredCommissionJSON("pol-tiered", "Tiered Revenue Share", []factory.TierJSON{
			{ID: "bronze", MinAmount: decimal.Zero, MaxAmount: won(1_000_000), CommissionRate: decimal.NewFromInt(10)},
			{ID: "silver", MinAmount: decimal.NewFromInt(1_000_000), MaxAmount: won(3_000_000), CommissionRate: decimal.NewFromInt(15)},
			{ID: "gold", MinAmount: decimal.NewFromInt(3_000_000), CommissionRate: decimal.NewFromInt(20)},
		}),
		factory.StudentBasedJSON("pol-students", "Per Student", 50_000, 10, 30),
		factory.HybridJSON("pol-hybrid", "Base + 10%", 1_500_000, 10),
		factory.GuaranteedMinimumJSON("pol-guaranteed", "Guaranteed 1.5M", 1_500_000, 25),
	}
	for _, doc := range policies {
		if err := h.createPolicyFromJSON(ctx, doc); err != nil {
			return err
		}
	}

	entries := []struct {
		instructor string
		policy     string
		metrics    factory.MetricsJSON
	}{
		{"inst-kim", "pol-fixed", factory.MetricsJSON{}},
		{"inst-lee", "pol-hourly", factory.MetricsJSON{Hours: decimal.NewFromInt(64)}},
		{"inst-park", "pol-commission", factory.MetricsJSON{Revenue: decimal.NewFromInt(8_000_000)}},
		{"inst-choi", "pol-tiered", factory.MetricsJSON{Revenue: decimal.NewFromInt(4_500_000)}},
		{"inst-jung", "pol-students", factory.MetricsJSON{Students: decimal.NewFromInt(24)}},
		{"inst-kang", "pol-hybrid", factory.MetricsJSON{Revenue: decimal.NewFromInt(6_000_000)}},
		{"inst-yoon", "pol-guaranteed", factory.MetricsJSON{Revenue: decimal.NewFromInt(3_000_000)}},
	}

	payroll := make([]PayrollEntry, len(entries))
	for i, e := range entries {
		if err := h.assign(ctx, e.instructor, e.policy); err != nil {
			return err
		}
		payroll[i] = PayrollEntry{InstructorID: e.instructor, Metrics: e.metrics}
	}
	return h.seedPayroll(ctx, payroll)
}

func (h *Handler) loadSalesTeamScenario(ctx context.Context) error {
	tiered := factory.PolicyJSON{
		ID:              "pol-sales-tiered",
		Name:            "Sales Ladder",
		Type:            string(salary.TypeTieredCommission),
		CommissionBasis: string(salary.BasisRevenue),
		Tiers: []factory.TierJSON{
			{ID: "starter", MinAmount: decimal.Zero, MaxAmount: won(2_000_000), CommissionRate: decimal.NewFromInt(10)},
			{ID: "closer", MinAmount: decimal.NewFromInt(2_000_000), MaxAmount: won(5_000_000), CommissionRate: decimal.NewFromInt(15)},
			{ID: "rainmaker", MinAmount: decimal.NewFromInt(5_000_000), CommissionRate: decimal.NewFromInt(20)},
		},
		MinimumGuaranteed: won(500_000),
		MaximumAmount:     won(2_000_000),
	}
	hybrid := factory.PolicyJSON{
		ID:                   "pol-sales-hybrid",
		Name:                 "Base + Bonus Above Target",
		Type:                 string(salary.TypeHybrid),
		BaseAmount:           won(1_000_000),
		CommissionRate:       pct(20),
		CommissionBasis:      string(salary.BasisRevenue),
		PerformanceThreshold: won(3_000_000),
		MaximumAmount:        won(2_500_000),
	}
	sessions := factory.PolicyJSON{
		ID:              "pol-sales-sessions",
		Name:            "Session Commission",
		Type:            string(salary.TypeCommission),
		CommissionRate:  pct(40),
		CommissionBasis: string(salary.BasisSessions),
	}
	for _, pj := range []factory.PolicyJSON{tiered, hybrid, sessions} {
		if _, err := h.savePolicy(ctx, pj); err != nil {
			return err
		}
	}

	assignments := map[string]string{
		"inst-han":  "pol-sales-tiered",
		"inst-seo":  "pol-sales-tiered",
		"inst-oh":   "pol-sales-hybrid",
		"inst-shin": "pol-sales-hybrid",
		"inst-moon": "pol-sales-sessions",
	}
	for instructor, policy := range assignments {
		if err := h.assign(ctx, instructor, policy); err != nil {
			return err
		}
	}

	return h.seedPayroll(ctx, []PayrollEntry{
		// Below the floor: paid the guaranteed 500,000.
		{InstructorID: "inst-han", Metrics: factory.MetricsJSON{Revenue: decimal.NewFromInt(1_500_000)}},
		// Far above the cap: paid 2,000,000.
		{InstructorID: "inst-seo", Metrics: factory.MetricsJSON{Revenue: decimal.NewFromInt(12_000_000)}},
		// Under target: base only.
		{InstructorID: "inst-oh", Metrics: factory.MetricsJSON{Revenue: decimal.NewFromInt(2_500_000)}},
		{InstructorID: "inst-shin", Metrics: factory.MetricsJSON{Revenue: decimal.NewFromInt(7_000_000)}},
		{InstructorID: "inst-moon", Metrics: factory.MetricsJSON{
			Sessions:     decimal.NewFromInt(40),
			SessionValue: decimal.NewFromInt(60_000),
		}},
	})
}

func (h *Handler) loadInactivePolicyScenario(ctx context.Context) error {
	if err := h.createPolicyFromJSON(ctx, factory.HybridJSON("pol-current", "Current Plan", 2_000_000, 5)); err != nil {
		return err
	}

	inactive := false
	retired := factory.PolicyJSON{
		ID:              "pol-retired",
		Name:            "Legacy Revenue Share",
		Type:            string(salary.TypeCommission),
		IsActive:        &inactive,
		CommissionRate:  pct(35),
		CommissionBasis: string(salary.BasisRevenue),
	}
	if _, err := h.savePolicy(ctx, retired); err != nil {
		return err
	}

	if err := h.assign(ctx, "inst-baek", "pol-current"); err != nil {
		return err
	}
	if err := h.assign(ctx, "inst-nam", "pol-retired"); err != nil {
		return err
	}

	// inst-nam appears in the failures of the seeded run.
	return h.seedPayroll(ctx, []PayrollEntry{
		{InstructorID: "inst-baek", Metrics: factory.MetricsJSON{Revenue: decimal.NewFromInt(5_000_000)}},
		{InstructorID: "inst-nam", Metrics: factory.MetricsJSON{Revenue: decimal.NewFromInt(5_000_000)}},
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createPolicyFromJSON(ctx context.Context, jsonStr string) error {
	var pj factory.PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	_, err := h.savePolicy(ctx, pj)
	return err
}

func (h *Handler) assign(ctx context.Context, instructorID, policyID string) error {
	return h.Store.AssignPolicy(ctx, salary.AssignmentRecord{
		ID:           uuid.New().String(),
		TenantID:     TenantFrom(ctx),
		InstructorID: salary.InstructorID(instructorID),
		PolicyID:     salary.PolicyID(policyID),
		AssignedAt:   h.now(),
	})
}

func (h *Handler) seedPayroll(ctx context.Context, entries []PayrollEntry) error {
	_, err := h.runPayroll(ctx, TenantFrom(ctx), salary.MustParsePeriod(ScenarioPeriod), false, entries)
	return err
}

func won(n int64) *decimal.Decimal {
	return salary.Ptr(decimal.NewFromInt(n))
}

func pct(p float64) *decimal.Decimal {
	return salary.Ptr(salary.Percent(p))
}
