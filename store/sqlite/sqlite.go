/*
Package sqlite provides a SQLite-backed implementation of salary.Store.

PURPOSE:
  Persists salary policies, instructor assignments and official (non-preview)
  calculations. Everything is scoped by tenant: every query filters on
  tenant_id and every uniqueness constraint includes it.

KEY TABLES:
  salary_policies:       Policy documents (versioned, soft-deleted)
  policy_assignments:    One row per (tenant, instructor)
  salary_calculations:   One row per (tenant, instructor, period)

SOFT DELETE:
  DeletePolicy sets deleted_at and clears is_active. The row stays so past
  calculations can still be traced to the policy that produced them. Saving
  a policy with the same ID afterwards revives it as version 1.

INDEXES:
  - idx_policies_tenant_active: Policy list (hot path for the admin UI)
  - idx_calculations_tenant_instructor_period: Upsert key and history lookups

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode.

USAGE:
  store, err := sqlite.New("./data/salary.db")
  if err != nil {
      return err
  }
  defer store.Close()

SEE ALSO:
  - salary/store.go: Interface definitions
  - salary/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/educanvas/salary-engine/salary"
)

// Store implements salary.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	now func() time.Time
}

var _ salary.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS salary_policies (
	tenant_id   TEXT NOT NULL,
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	policy_type TEXT NOT NULL,
	config_json TEXT NOT NULL,
	is_active   INTEGER NOT NULL DEFAULT 1,
	version     INTEGER NOT NULL DEFAULT 1,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	deleted_at  TEXT,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_policies_tenant_active
	ON salary_policies(tenant_id, is_active) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS policy_assignments (
	id            TEXT NOT NULL,
	tenant_id     TEXT NOT NULL,
	instructor_id TEXT NOT NULL,
	policy_id     TEXT NOT NULL,
	assigned_at   TEXT NOT NULL,
	PRIMARY KEY (tenant_id, instructor_id)
);

CREATE TABLE IF NOT EXISTS salary_calculations (
	id            TEXT NOT NULL,
	tenant_id     TEXT NOT NULL,
	instructor_id TEXT NOT NULL,
	period        TEXT NOT NULL,
	policy_id     TEXT,
	gross_salary  TEXT NOT NULL,
	net_salary    TEXT NOT NULL,
	result_json   TEXT NOT NULL,
	calculated_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_calculations_tenant_instructor_period
	ON salary_calculations(tenant_id, instructor_id, period);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return eris.Wrap(err, "sqlite: migrate")
}

// =============================================================================
// POLICIES
// =============================================================================

// SavePolicy inserts or updates a policy. Updating a live policy bumps its
// version; saving over a soft-deleted one starts again at version 1.
func (s *Store) SavePolicy(ctx context.Context, rec salary.PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO salary_policies
			(tenant_id, id, name, policy_type, config_json, is_active, version, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, NULL)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name = excluded.name,
			policy_type = excluded.policy_type,
			config_json = excluded.config_json,
			is_active = excluded.is_active,
			version = CASE WHEN salary_policies.deleted_at IS NULL THEN salary_policies.version + 1 ELSE 1 END,
			created_at = CASE WHEN salary_policies.deleted_at IS NULL THEN salary_policies.created_at ELSE excluded.created_at END,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, query,
		string(rec.TenantID), string(rec.ID), rec.Name, string(rec.Type), rec.ConfigJSON,
		rec.IsActive, now, now,
	)
	return eris.Wrapf(err, "sqlite: save policy %s", rec.ID)
}

// GetPolicy retrieves a live policy by ID.
func (s *Store) GetPolicy(ctx context.Context, tenantID salary.TenantID, id salary.PolicyID) (*salary.PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, id, name, policy_type, config_json, is_active, version, created_at, updated_at, deleted_at
		FROM salary_policies
		WHERE tenant_id = ? AND id = ? AND deleted_at IS NULL`,
		string(tenantID), string(id),
	)
	rec, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, salary.ErrPolicyNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get policy %s", id)
	}
	return &rec, nil
}

// ListPolicies returns live policies ordered by name.
func (s *Store) ListPolicies(ctx context.Context, tenantID salary.TenantID, includeInactive bool) ([]salary.PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT tenant_id, id, name, policy_type, config_json, is_active, version, created_at, updated_at, deleted_at
		FROM salary_policies
		WHERE tenant_id = ? AND deleted_at IS NULL`
	if !includeInactive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, string(tenantID))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list policies")
	}
	defer rows.Close()

	var policies []salary.PolicyRecord
	for rows.Next() {
		rec, err := scanPolicy(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan policy")
		}
		policies = append(policies, rec)
	}
	return policies, eris.Wrap(rows.Err(), "sqlite: list policies")
}

// DeletePolicy soft-deletes a policy.
func (s *Store) DeletePolicy(ctx context.Context, tenantID salary.TenantID, id salary.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(s.now())
	res, err := s.db.ExecContext(ctx, `
		UPDATE salary_policies
		SET deleted_at = ?, is_active = 0, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND deleted_at IS NULL`,
		now, now, string(tenantID), string(id),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete policy %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return salary.ErrPolicyNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (salary.PolicyRecord, error) {
	var (
		rec                  salary.PolicyRecord
		tenantID, id, typ    string
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	err := row.Scan(&tenantID, &id, &rec.Name, &typ, &rec.ConfigJSON, &rec.IsActive,
		&rec.Version, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return rec, err
	}
	rec.TenantID = salary.TenantID(tenantID)
	rec.ID = salary.PolicyID(id)
	rec.Type = salary.PolicyType(typ)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	if deletedAt.Valid {
		t := parseTime(deletedAt.String)
		rec.DeletedAt = &t
	}
	return rec, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// AssignPolicy replaces any previous assignment for the instructor.
func (s *Store) AssignPolicy(ctx context.Context, rec salary.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.AssignedAt.IsZero() {
		rec.AssignedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_assignments (id, tenant_id, instructor_id, policy_id, assigned_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, instructor_id) DO UPDATE SET
			id = excluded.id,
			policy_id = excluded.policy_id,
			assigned_at = excluded.assigned_at`,
		rec.ID, string(rec.TenantID), string(rec.InstructorID), string(rec.PolicyID), formatTime(rec.AssignedAt),
	)
	return eris.Wrapf(err, "sqlite: assign policy to %s", rec.InstructorID)
}

func (s *Store) GetAssignment(ctx context.Context, tenantID salary.TenantID, instructorID salary.InstructorID) (*salary.AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec                          salary.AssignmentRecord
		tenant, instructor, policyID string
		assignedAt                   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, instructor_id, policy_id, assigned_at
		FROM policy_assignments
		WHERE tenant_id = ? AND instructor_id = ?`,
		string(tenantID), string(instructorID),
	).Scan(&rec.ID, &tenant, &instructor, &policyID, &assignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, salary.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assignment %s", instructorID)
	}

	rec.TenantID = salary.TenantID(tenant)
	rec.InstructorID = salary.InstructorID(instructor)
	rec.PolicyID = salary.PolicyID(policyID)
	rec.AssignedAt = parseTime(assignedAt)
	return &rec, nil
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// SaveCalculation upserts on (tenant, instructor, period). A recalculation
// keeps the original row ID.
func (s *Store) SaveCalculation(ctx context.Context, rec salary.CalculationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CalculatedAt.IsZero() {
		rec.CalculatedAt = s.now()
	}

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal calculation")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO salary_calculations
			(id, tenant_id, instructor_id, period, policy_id, gross_salary, net_salary, result_json, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, instructor_id, period) DO UPDATE SET
			policy_id = excluded.policy_id,
			gross_salary = excluded.gross_salary,
			net_salary = excluded.net_salary,
			result_json = excluded.result_json,
			calculated_at = excluded.calculated_at`,
		rec.ID, string(rec.TenantID), string(rec.InstructorID), rec.Period,
		nullString(string(rec.Result.PolicyID)),
		rec.Result.GrossSalary.String(), rec.Result.NetSalary.String(),
		string(resultJSON), formatTime(rec.CalculatedAt),
	)
	return eris.Wrapf(err, "sqlite: save calculation %s/%s", rec.InstructorID, rec.Period)
}

func (s *Store) GetCalculation(ctx context.Context, tenantID salary.TenantID, instructorID salary.InstructorID, period string) (*salary.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, instructor_id, period, result_json, calculated_at
		FROM salary_calculations
		WHERE tenant_id = ? AND instructor_id = ? AND period = ?`,
		string(tenantID), string(instructorID), period,
	)
	rec, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, salary.ErrCalculationNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get calculation %s/%s", instructorID, period)
	}
	return &rec, nil
}

// ListCalculations returns an instructor's calculations, newest period first.
func (s *Store) ListCalculations(ctx context.Context, tenantID salary.TenantID, instructorID salary.InstructorID) ([]salary.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, instructor_id, period, result_json, calculated_at
		FROM salary_calculations
		WHERE tenant_id = ? AND instructor_id = ?
		ORDER BY period DESC`,
		string(tenantID), string(instructorID),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list calculations")
	}
	defer rows.Close()

	var out []salary.CalculationRecord
	for rows.Next() {
		rec, err := scanCalculation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan calculation")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list calculations")
}

func scanCalculation(row rowScanner) (salary.CalculationRecord, error) {
	var (
		rec                      salary.CalculationRecord
		tenantID, instructorID   string
		resultJSON, calculatedAt string
	)
	if err := row.Scan(&rec.ID, &tenantID, &instructorID, &rec.Period, &resultJSON, &calculatedAt); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return rec, eris.Wrap(err, "sqlite: decode calculation result")
	}
	rec.TenantID = salary.TenantID(tenantID)
	rec.InstructorID = salary.InstructorID(instructorID)
	rec.CalculatedAt = parseTime(calculatedAt)
	return rec, nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data. Used when loading demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"salary_calculations", "policy_assignments", "salary_policies"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return eris.Wrapf(err, "sqlite: reset %s", table)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
