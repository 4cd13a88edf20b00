// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/educanvas/salary-engine/salary"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	policies     map[policyKey]salary.PolicyRecord
	assignments  map[instructorKey]salary.AssignmentRecord
	calculations map[calculationKey]salary.CalculationRecord

	now func() time.Time
}

type policyKey struct {
	TenantID salary.TenantID
	ID       salary.PolicyID
}

type instructorKey struct {
	TenantID     salary.TenantID
	InstructorID salary.InstructorID
}

type calculationKey struct {
	instructorKey
	Period string
}

var _ salary.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		policies:     make(map[policyKey]salary.PolicyRecord),
		assignments:  make(map[instructorKey]salary.AssignmentRecord),
		calculations: make(map[calculationKey]salary.CalculationRecord),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// POLICIES
// =============================================================================

func (m *Memory) SavePolicy(_ context.Context, rec salary.PolicyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := policyKey{TenantID: rec.TenantID, ID: rec.ID}
	now := m.now()
	if existing, ok := m.policies[k]; ok && existing.DeletedAt == nil {
		rec.Version = existing.Version + 1
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.Version = 1
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.DeletedAt = nil
	m.policies[k] = rec
	return nil
}

func (m *Memory) GetPolicy(_ context.Context, tenantID salary.TenantID, id salary.PolicyID) (*salary.PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.policies[policyKey{TenantID: tenantID, ID: id}]
	if !ok || rec.DeletedAt != nil {
		return nil, salary.ErrPolicyNotFound
	}
	return &rec, nil
}

func (m *Memory) ListPolicies(_ context.Context, tenantID salary.TenantID, includeInactive bool) ([]salary.PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []salary.PolicyRecord
	for k, rec := range m.policies {
		if k.TenantID != tenantID || rec.DeletedAt != nil {
			continue
		}
		if !includeInactive && !rec.IsActive {
			continue
		}
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DeletePolicy soft-deletes a policy.
func (m *Memory) DeletePolicy(_ context.Context, tenantID salary.TenantID, id salary.PolicyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := policyKey{TenantID: tenantID, ID: id}
	rec, ok := m.policies[k]
	if !ok || rec.DeletedAt != nil {
		return salary.ErrPolicyNotFound
	}
	now := m.now()
	rec.DeletedAt = &now
	rec.IsActive = false
	rec.UpdatedAt = now
	m.policies[k] = rec
	return nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) AssignPolicy(_ context.Context, rec salary.AssignmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.AssignedAt.IsZero() {
		rec.AssignedAt = m.now()
	}
	m.assignments[instructorKey{TenantID: rec.TenantID, InstructorID: rec.InstructorID}] = rec
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, tenantID salary.TenantID, instructorID salary.InstructorID) (*salary.AssignmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.assignments[instructorKey{TenantID: tenantID, InstructorID: instructorID}]
	if !ok {
		return nil, salary.ErrAssignmentNotFound
	}
	return &rec, nil
}

// =============================================================================
// CALCULATIONS
// =============================================================================

func (m *Memory) SaveCalculation(_ context.Context, rec salary.CalculationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.CalculatedAt.IsZero() {
		rec.CalculatedAt = m.now()
	}
	k := calculationKey{
		instructorKey: instructorKey{TenantID: rec.TenantID, InstructorID: rec.InstructorID},
		Period:        rec.Period,
	}
	m.calculations[k] = rec
	return nil
}

func (m *Memory) GetCalculation(_ context.Context, tenantID salary.TenantID, instructorID salary.InstructorID, period string) (*salary.CalculationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := calculationKey{
		instructorKey: instructorKey{TenantID: tenantID, InstructorID: instructorID},
		Period:        period,
	}
	rec, ok := m.calculations[k]
	if !ok {
		return nil, salary.ErrCalculationNotFound
	}
	return &rec, nil
}

func (m *Memory) ListCalculations(_ context.Context, tenantID salary.TenantID, instructorID salary.InstructorID) ([]salary.CalculationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []salary.CalculationRecord
	for k, rec := range m.calculations {
		if k.TenantID == tenantID && k.InstructorID == instructorID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period > result[j].Period })
	return result, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.policies = make(map[policyKey]salary.PolicyRecord)
	m.assignments = make(map[instructorKey]salary.AssignmentRecord)
	m.calculations = make(map[calculationKey]salary.CalculationRecord)
	return nil
}
