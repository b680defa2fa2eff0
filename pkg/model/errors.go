package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the scheduler surface.
var (
	// ErrEmptyTaskID rejects submissions without an id.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")

	// ErrZeroPriority aborts a batch drain when a zero-priority task is
	// popped. Admission does not enforce this, so the error surfaces only
	// from the drain path.
	ErrZeroPriority = errors.New("zero priority tasks are not allowed")
)

// DuplicateTaskError is returned when a task id is resubmitted while the
// original is still pending or queued.
type DuplicateTaskError struct {
	ID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task ID %s already exists", e.ID)
}

// DuplicateRobotError is returned when a robot id is registered twice.
type DuplicateRobotError struct {
	ID string
}

func (e *DuplicateRobotError) Error() string {
	return fmt.Sprintf("robot %s already registered", e.ID)
}

// UnknownRobotError is returned when a task targets, or a lookup names, a
// robot the registry has never seen.
type UnknownRobotError struct {
	ID string
}

func (e *UnknownRobotError) Error() string {
	return fmt.Sprintf("unknown robot: %s", e.ID)
}

// CapabilityError is returned when a task's target robot does not declare
// every required capability. Missing lists the gaps in the order the task
// required them.
type CapabilityError struct {
	RobotID string
	Missing []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("robot %s lacks required capabilities: %v", e.RobotID, e.Missing)
}

// PayloadSizeError is returned when a task payload is not exactly
// PayloadSize parameters long.
type PayloadSizeError struct {
	Got int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("task payload must have exactly %d parameters, got %d", PayloadSize, e.Got)
}

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the fleetd API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}
