package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrTenantRequired        = errors.New("tenant context is required")
	ErrValidation            = errors.New("validation failed")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInsufficientMaterials = errors.New("insufficient materials")
	ErrConcurrencyConflict   = errors.New("concurrency conflict")
	ErrDeletionBlocked       = errors.New("deletion blocked")
)

// ============ VALIDATION ============
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ============ STOCK ============
type InsufficientStockError struct {
	MaterialID   uuid.UUID
	MaterialName string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %s (%s): available %s, requested %s",
		e.MaterialName, e.MaterialID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// MaterialShortage is one line of a failed sufficiency check.
type MaterialShortage struct {
	ComponentID  uuid.UUID       `json:"component_id"`
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Shortage     decimal.Decimal `json:"shortage"`
}

type InsufficientMaterialsError struct {
	RecipeID  uuid.UUID
	Quantity  int64
	Shortages []MaterialShortage
}

func (e *InsufficientMaterialsError) Error() string {
	names := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		names = append(names, fmt.Sprintf("%s short by %s", s.MaterialName, s.Shortage))
	}
	return fmt.Sprintf("insufficient materials to produce %d of recipe %s: %s",
		e.Quantity, e.RecipeID, strings.Join(names, ", "))
}

func (e *InsufficientMaterialsError) Is(target error) bool { return target == ErrInsufficientMaterials }

// ============ STORAGE ============
// ConcurrencyConflictError is returned when a lock or serialization failure
// aborted the unit of work. Callers may retry.
type ConcurrencyConflictError struct {
	Op  string
	Err error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Err == nil {
		return "concurrency conflict during " + e.Op
	}
	return fmt.Sprintf("concurrency conflict during %s: %v", e.Op, e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }

func (e *ConcurrencyConflictError) Is(target error) bool { return target == ErrConcurrencyConflict }

// ============ LIFECYCLE ============
type DeletionBlockedError struct {
	Entity string
	ID     uuid.UUID
	Reason string
}

func (e *DeletionBlockedError) Error() string {
	return fmt.Sprintf("%s %s cannot be removed: %s", e.Entity, e.ID, e.Reason)
}

func (e *DeletionBlockedError) Is(target error) bool { return target == ErrDeletionBlocked }
