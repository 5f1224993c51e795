// Package apperrors defines the error taxonomy shared by the registry, the
// alert pipeline and the HTTP layer. Handlers attach these to the gin
// context; the error middleware maps each kind to a uniform response body.
package apperrors

import (
	"fmt"
	"strings"

	"github.com/lifeline-dev/lifeline/internal/types"
)

// ValidationError carries a field -> message map for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError names the resource and identifier that could not be
// resolved.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// DuplicateError signals that a quarantine code already exists.
type DuplicateError struct {
	Code string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("quarantine with code %s already exists", e.Code)
}

// NonInterruptibleError signals a termination blocked by protocol.
type NonInterruptibleError struct {
	Code     string
	Protocol types.EmergencyProtocol
}

func (e *NonInterruptibleError) Error() string {
	return fmt.Sprintf("quarantine %s cannot be interrupted due to protocol %s", e.Code, e.Protocol)
}

// ConflictError signals an optimistic-lock version mismatch. Callers may
// retry; the registry never retries on its own.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of %s %s, retry the operation", e.Resource, e.ID)
}

// DeliveryError signals that the alert channel was unavailable at publish
// time. Whether it is fatal to the triggering request depends on the
// configured delivery profile.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("alert delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// InternalError is the catch-all for unexpected failures.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
