/*
errors.go - Centralized error types for the salary engine

ERROR CATEGORIES:
  1. Structural - a required field is missing or malformed for the declared
     policy type. Reported as Problems inside a ValidationError.
  2. Configuration - inconsistent tier brackets or a guarantee above the cap.
     Also reported as Problems; never raised mid-calculation.
  3. Contract - an unknown policy type tag. Indicates a caller bug, not bad data.
  4. Store - lookups performed by the surrounding service.

Negative metrics are NOT errors: they are floored to zero (see
PeriodMetrics.Normalized).
*/
package salary

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("policy validation failed")

	// ErrInvalidTierConfiguration is returned when brackets overlap, leave a
	// gap, are out of order or lack a single open-ended top bracket.
	ErrInvalidTierConfiguration = errors.New("invalid tier configuration")

	// ErrUnknownPolicyType is returned when a type tag is not one of the seven
	// known kinds. This is a contract violation rather than a data problem.
	ErrUnknownPolicyType = errors.New("unknown policy type")

	ErrInvalidPeriod = errors.New("invalid period: expected YYYY-MM")

	ErrPolicyNotFound      = errors.New("policy not found")
	ErrPolicyInactive      = errors.New("policy is not active")
	ErrAssignmentNotFound  = errors.New("no policy assigned to instructor")
	ErrCalculationNotFound = errors.New("calculation not found")
)

// =============================================================================
// PROBLEM CODES
// =============================================================================

type ProblemCode string

const (
	MissingPolicyName           ProblemCode = "MissingPolicyName"
	MissingPolicyType           ProblemCode = "MissingPolicyType"
	MissingBaseAmount           ProblemCode = "MissingBaseAmount"
	MissingHourlyRate           ProblemCode = "MissingHourlyRate"
	InvalidCommissionRate       ProblemCode = "InvalidCommissionRate"
	MissingCommissionBasis      ProblemCode = "MissingCommissionBasis"
	MissingStudentRate          ProblemCode = "MissingStudentRate"
	InvalidStudentRange         ProblemCode = "InvalidStudentRange"
	MissingMinimumGuaranteed    ProblemCode = "MissingMinimumGuaranteed"
	MissingTiers                ProblemCode = "MissingTiers"
	InvalidTierConfiguration    ProblemCode = "InvalidTierConfiguration"
	GuaranteeExceedsMaximum     ProblemCode = "GuaranteeExceedsMaximum"
	InvalidMaximumAmount        ProblemCode = "InvalidMaximumAmount"
	InvalidMinimumGuaranteed    ProblemCode = "InvalidMinimumGuaranteed"
	InvalidPerformanceThreshold ProblemCode = "InvalidPerformanceThreshold"
)

// Problem is one field-level validation failure.
type Problem struct {
	Code    ProblemCode
	Field   string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Code, p.Message)
}

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError carries every problem found in one pass.
type ValidationError struct {
	PolicyID PolicyID
	Problems []Problem
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Messages(), "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Messages returns the human-readable form of every problem, in order.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.String()
	}
	return out
}

// TierConfigError pinpoints the bracket that broke the contiguity invariant.
type TierConfigError struct {
	Index  int
	Reason string
}

func (e *TierConfigError) Error() string {
	return fmt.Sprintf("%s: tier %d: %s", ErrInvalidTierConfiguration, e.Index, e.Reason)
}

func (e *TierConfigError) Unwrap() error { return ErrInvalidTierConfiguration }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTierConfiguration) ||
		errors.Is(err, ErrUnknownPolicyType) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrPolicyInactive)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrCalculationNotFound)
}
