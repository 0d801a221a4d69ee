package requests

import (
	"github.com/google/uuid"
)

// ============ PRODUCTION ============
type ProduceRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`

	ReferenceType string     `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
}

type FulfilOrderRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}
