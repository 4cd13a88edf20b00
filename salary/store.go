/*
store.go - Persistence contracts used by the service around the engine

PURPOSE:
  The engine itself never touches storage. These interfaces describe what
  the surrounding service needs: policy CRUD with soft delete, the policy
  assigned to each instructor, and persisted (non-preview) calculations.

KEY INTERFACES:
  PolicyStore:      Versioned policy records, soft-deleted
  AssignmentStore:  Instructor -> policy mapping (one active per instructor)
  CalculationStore: Results keyed by (tenant, instructor, period)

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - salary/store/memory.go: In-memory for testing

Lookups that find nothing return ErrPolicyNotFound, ErrAssignmentNotFound or
ErrCalculationNotFound; check with errors.Is.
*/
package salary

import (
	"context"
	"time"
)

// =============================================================================
// RECORDS
// =============================================================================

// PolicyRecord is a stored policy. ConfigJSON is the factory's JSON form.
type PolicyRecord struct {
	ID         PolicyID
	TenantID   TenantID
	Name       string
	Type       PolicyType
	ConfigJSON string
	IsActive   bool
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// AssignmentRecord links an instructor to the policy that pays them.
type AssignmentRecord struct {
	ID           string
	TenantID     TenantID
	InstructorID InstructorID
	PolicyID     PolicyID
	AssignedAt   time.Time
}

// CalculationRecord is a persisted, official calculation.
type CalculationRecord struct {
	ID           string
	TenantID     TenantID
	InstructorID InstructorID
	Period       string
	Result       Result
	CalculatedAt time.Time
}

// =============================================================================
// INTERFACES
// =============================================================================

type PolicyStore interface {
	// SavePolicy inserts or updates; updates bump Version.
	SavePolicy(ctx context.Context, rec PolicyRecord) error

	// GetPolicy returns the policy unless it was soft-deleted.
	GetPolicy(ctx context.Context, tenantID TenantID, id PolicyID) (*PolicyRecord, error)

	// ListPolicies returns non-deleted policies ordered by name.
	ListPolicies(ctx context.Context, tenantID TenantID, includeInactive bool) ([]PolicyRecord, error)

	// DeletePolicy soft-deletes: the record stays but is no longer returned.
	DeletePolicy(ctx context.Context, tenantID TenantID, id PolicyID) error
}

type AssignmentStore interface {
	// AssignPolicy replaces any previous assignment for the instructor.
	AssignPolicy(ctx context.Context, rec AssignmentRecord) error
	GetAssignment(ctx context.Context, tenantID TenantID, instructorID InstructorID) (*AssignmentRecord, error)
}

type CalculationStore interface {
	// SaveCalculation upserts on (tenant, instructor, period).
	SaveCalculation(ctx context.Context, rec CalculationRecord) error
	GetCalculation(ctx context.Context, tenantID TenantID, instructorID InstructorID, period string) (*CalculationRecord, error)

	// ListCalculations returns an instructor's calculations, newest period first.
	ListCalculations(ctx context.Context, tenantID TenantID, instructorID InstructorID) ([]CalculationRecord, error)
}

// Store bundles everything the HTTP layer needs.
type Store interface {
	PolicyStore
	AssignmentStore
	CalculationStore

	// Reset wipes all data. Used by demo scenarios.
	Reset(ctx context.Context) error
}
