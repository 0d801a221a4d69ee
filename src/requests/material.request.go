package requests

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============ MATERIAL ============
type CreateMaterialRequest struct {
	Name     string `json:"name" binding:"required"`
	SKU      string `json:"sku" binding:"required"`
	Category string `json:"category"`
	Unit     string `json:"unit" binding:"required"`

	// Optional numbers default to zero
	InitialStock *decimal.Decimal `json:"initial_stock,omitempty"`
	ReorderLevel *decimal.Decimal `json:"reorder_level,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
}

type UpdateMaterialRequest struct {
	Name     string `json:"name" binding:"required"`
	SKU      string `json:"sku" binding:"required"`
	Category string `json:"category"`
	Unit     string `json:"unit" binding:"required"`

	ReorderLevel *decimal.Decimal `json:"reorder_level,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ============ STOCK ============
type AdjustStockRequest struct {
	Type     string          `json:"type" binding:"required,oneof=adjustment deduction restock"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" binding:"required"`
	Notes    *string         `json:"notes,omitempty"`

	ReferenceType string     `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
}

// DecimalOr returns *d, or def when d is nil.
func DecimalOr(d *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if d == nil {
		return def
	}
	return *d
}
