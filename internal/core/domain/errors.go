package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every typed error below unwraps to exactly one of these, so
// callers can branch with errors.Is and read details with errors.As.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ValidationCode identifies why input was rejected.
type ValidationCode string

const (
	CodeBlankName              ValidationCode = "blank_name"
	CodeMissingDocument        ValidationCode = "missing_document"
	CodeLeadScoreOutOfRange    ValidationCode = "lead_score_out_of_range"
	CodeMissingClientRef       ValidationCode = "missing_client_ref"
	CodeMissingOwnerRef        ValidationCode = "missing_owner_ref"
	CodeNegativeEstimatedValue ValidationCode = "negative_estimated_value"
	CodeUnknownStatus          ValidationCode = "unknown_status"
	CodeUnknownDocumentKind    ValidationCode = "unknown_document_kind"
	CodeBlankRole              ValidationCode = "blank_role"
	CodeBlankEmail             ValidationCode = "blank_email"
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Code   ValidationCode
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return string(e.Code)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictCode identifies the kind of conflict.
type ConflictCode string

const (
	CodeDuplicateField        ConflictCode = "duplicate_field"
	CodeBothDocumentsProvided ConflictCode = "both_documents_provided"
)

// ConflictError reports input that collides with stored state or with itself.
type ConflictError struct {
	Code  ConflictCode
	Field UniqueField
}

func (e *ConflictError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Field)
	}
	return string(e.Code)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// DuplicateField builds the conflict returned when a unique value is taken.
func DuplicateField(field UniqueField) *ConflictError {
	return &ConflictError{Code: CodeDuplicateField, Field: field}
}

// Entity names a record type in errors.
type Entity string

const (
	EntityClient      Entity = "client"
	EntityOpportunity Entity = "opportunity"
	EntityUser        Entity = "user"
)

// NotFoundError reports that a record, or a record it references, does not exist.
type NotFoundError struct {
	Entity Entity
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity Entity, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IllegalTransitionError reports a status change the lifecycle does not allow.
type IllegalTransitionError struct {
	From OpportunityStatus
	To   OpportunityStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }
