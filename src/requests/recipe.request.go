package requests

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============ COMPONENT ============
type ComponentRequest struct {
	MaterialID       uuid.UUID        `json:"material_id" binding:"required"`
	QuantityRequired decimal.Decimal  `json:"quantity_required"`
	WastePercentage  *decimal.Decimal `json:"waste_percentage,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

// ============ RECIPE ============
type CreateRecipeRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	IsActive  bool      `json:"is_active"`

	// Defaults to 1 when omitted
	YieldQuantity *decimal.Decimal `json:"yield_quantity,omitempty"`
	Notes         *string          `json:"notes,omitempty"`

	Components []ComponentRequest `json:"components" binding:"dive"`
}

type UpdateRecipeRequest struct {
	Name          string           `json:"name" binding:"required"`
	YieldQuantity *decimal.Decimal `json:"yield_quantity,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}
