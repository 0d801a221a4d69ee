package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============ ENUMS & TYPES ============
type TransactionType string

const (
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeDeduction  TransactionType = "deduction"
	TransactionTypeRestock    TransactionType = "restock"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeAdjustment, TransactionTypeDeduction, TransactionTypeRestock:
		return true
	default:
		return false
	}
}

type TransactionReason string

const (
	ReasonPurchase        TransactionReason = "purchase"
	ReasonWaste           TransactionReason = "waste"
	ReasonDamage          TransactionReason = "damage"
	ReasonCountAdjustment TransactionReason = "count_adjustment"
	ReasonProduction      TransactionReason = "production"
	ReasonSale            TransactionReason = "sale"
	ReasonOther           TransactionReason = "other"
)

func (r TransactionReason) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonWaste, ReasonDamage, ReasonCountAdjustment,
		ReasonProduction, ReasonSale, ReasonOther:
		return true
	default:
		return false
	}
}

// ============ INVENTORY TRANSACTION MODEL ============
// InventoryTransaction is one immutable ledger row. There is no UpdatedAt or
// DeletedAt: rows are only ever inserted.
type InventoryTransaction struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	TenantID   uuid.UUID `gorm:"type:uuid;not null;index:idx_txn_tenant_material" json:"tenant_id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index:idx_txn_tenant_material" json:"material_id"`
	Material   *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`

	Type           TransactionType   `gorm:"type:varchar(20);not null" json:"type"`
	QuantityBefore decimal.Decimal   `gorm:"type:numeric(18,4);not null" json:"quantity_before"`
	QuantityChange decimal.Decimal   `gorm:"type:numeric(18,4);not null" json:"quantity_change"`
	QuantityAfter  decimal.Decimal   `gorm:"type:numeric(18,4);not null" json:"quantity_after"`
	Reason         TransactionReason `gorm:"type:varchar(30);not null" json:"reason"`
	Notes          *string           `gorm:"type:text" json:"notes,omitempty"`

	// Audit trail
	UserID *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`

	// What triggered the mutation
	Reference Reference `gorm:"embedded;embeddedPrefix:reference_" json:"reference"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// Balanced reports whether before + change == after.
func (t InventoryTransaction) Balanced() bool {
	return t.QuantityBefore.Add(t.QuantityChange).Equal(t.QuantityAfter)
}
