package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============ ENUMS & TYPES ============
type StockStatus string

const (
	StockStatusNormal     StockStatus = "normal"
	StockStatusLow        StockStatus = "low"
	StockStatusCritical   StockStatus = "critical"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// QuantityScale is the number of fractional digits every stored quantity
// keeps. Waste percentages keep WasteScale.
const (
	QuantityScale int32 = 4
	WasteScale    int32 = 3
)

var criticalRatio = decimal.NewFromFloat(0.5)

// RoundQuantity rounds d half away from zero to QuantityScale, the same way
// PostgreSQL stores it in a numeric(18,4) column.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// HasScale reports whether d needs no more than places fractional digits.
func HasScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// ============ MATERIAL MODEL ============
type Material struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	// Tenant reference; (tenant_id, sku) is unique among live rows, see config.Migrate
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	Name     string `gorm:"type:varchar(200);not null" json:"name"`
	SKU      string `gorm:"type:varchar(64);not null" json:"sku"`
	Category string `gorm:"type:varchar(100)" json:"category"`
	Unit     string `gorm:"type:varchar(20);not null" json:"unit"`

	// Stock data
	StockQuantity decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"stock_quantity"`
	ReorderLevel  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"reorder_level"`
	UnitCost      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"unit_cost"`

	// Timestamps
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Material) TableName() string {
	return "materials"
}

// IsLowStock reports whether the balance sits under the reorder level.
func (m Material) IsLowStock() bool {
	return m.StockQuantity.LessThan(m.ReorderLevel)
}

// StockStatus classifies the balance against the reorder level. Critical
// means at or under half of the reorder level.
func (m Material) StockStatus() StockStatus {
	switch {
	case !m.StockQuantity.IsPositive():
		return StockStatusOutOfStock
	case m.ReorderLevel.IsPositive() && m.StockQuantity.LessThanOrEqual(m.ReorderLevel.Mul(criticalRatio)):
		return StockStatusCritical
	case m.IsLowStock():
		return StockStatusLow
	default:
		return StockStatusNormal
	}
}

// StockChange returns the signed change a ledger operation applies. Restock
// and deduction take the magnitude of quantity; adjustment keeps its sign.
// The change is rounded to QuantityScale so before + change = after holds
// for the stored row too.
func StockChange(txType TransactionType, quantity decimal.Decimal) (decimal.Decimal, error) {
	quantity = RoundQuantity(quantity)
	switch txType {
	case TransactionTypeRestock:
		return quantity.Abs(), nil
	case TransactionTypeDeduction:
		return quantity.Abs().Neg(), nil
	case TransactionTypeAdjustment:
		return quantity, nil
	default:
		return decimal.Zero, NewValidationError("type", "must be one of adjustment, deduction, restock")
	}
}

// ApplyStockChange computes the new balance for txType/quantity and moves
// the material to it. The material is left untouched when the result would
// be negative.
func (m *Material) ApplyStockChange(txType TransactionType, quantity decimal.Decimal) (before, change, after decimal.Decimal, err error) {
	change, err = StockChange(txType, quantity)
	if err != nil {
		return
	}

	before = m.StockQuantity
	after = before.Add(change)
	if after.IsNegative() {
		err = &InsufficientStockError{
			MaterialID:   m.ID,
			MaterialName: m.Name,
			Available:    before,
			Requested:    change.Neg(),
		}
		return
	}

	m.StockQuantity = after
	return
}

// MaterialView is the material shape returned to API clients.
type MaterialView struct {
	Material
	IsLowStock  bool        `json:"is_low_stock"`
	StockStatus StockStatus `json:"stock_status"`
}

func NewMaterialView(m Material) MaterialView {
	return MaterialView{
		Material:    m,
		IsLowStock:  m.IsLowStock(),
		StockStatus: m.StockStatus(),
	}
}
