package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// ============ RECIPE MODEL ============
type Recipe struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_recipe_tenant_product" json:"tenant_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_recipe_tenant_product" json:"product_id"`

	Name          string          `gorm:"type:varchar(200);not null" json:"name"`
	YieldQuantity decimal.Decimal `gorm:"type:numeric(18,4);not null;default:1" json:"yield_quantity"`
	IsActive      bool            `gorm:"not null;default:false" json:"is_active"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`

	Components []RecipeComponent `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"components"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// ============ RECIPE COMPONENT MODEL ============
type RecipeComponent struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RecipeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index" json:"material_id"`
	Material   *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`

	QuantityRequired decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity_required"`
	WastePercentage  decimal.Decimal `gorm:"type:numeric(7,3);not null;default:0" json:"waste_percentage"`
	Position         int             `gorm:"not null;default:0" json:"position"`
	Notes            *string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RecipeComponent) TableName() string {
	return "recipe_components"
}

// EffectiveQuantity is the real draw per produced unit once waste is added.
func (c RecipeComponent) EffectiveQuantity() decimal.Decimal {
	return c.QuantityRequired.Mul(decimal.NewFromInt(1).Add(c.WastePercentage.Div(hundred)))
}

// RequiredFor is the stock quantity units of output draw, rounded to the
// stored scale. Sufficiency checks and deductions both use it.
func (c RecipeComponent) RequiredFor(units int64) decimal.Decimal {
	return RoundQuantity(c.EffectiveQuantity().Mul(decimal.NewFromInt(units)))
}

func (c RecipeComponent) WasteAmount() decimal.Decimal {
	return c.QuantityRequired.Mul(c.WastePercentage.Div(hundred))
}

// TotalCost needs Material loaded; without it the cost is zero.
func (c RecipeComponent) TotalCost() decimal.Decimal {
	if c.Material == nil {
		return decimal.Zero
	}
	return c.EffectiveQuantity().Mul(c.Material.UnitCost)
}

func (c RecipeComponent) availableStock() decimal.Decimal {
	if c.Material == nil {
		return decimal.Zero
	}
	return c.Material.StockQuantity
}

// MaxProducible is how many units this component alone allows. Zero when the
// effective quantity is not positive.
func (c RecipeComponent) MaxProducible() int64 {
	eff := c.EffectiveQuantity()
	if !eff.IsPositive() {
		return 0
	}
	stock := c.availableStock()
	n := stock.Div(eff).Floor().IntPart()
	if n < 0 {
		n = 0
	}
	// The quotient is rounded; settle on the largest n whose draw fits.
	for n > 0 && c.RequiredFor(n).GreaterThan(stock) {
		n--
	}
	for c.RequiredFor(n + 1).LessThanOrEqual(stock) {
		n++
	}
	return n
}

// Validate checks the inputs a component is created or edited with.
func (c RecipeComponent) Validate() error {
	verr := &ValidationError{}
	if c.MaterialID == uuid.Nil {
		verr.Add("material_id", "is required")
	}
	if !c.QuantityRequired.IsPositive() {
		verr.Add("quantity_required", "must be greater than zero")
	} else if !HasScale(c.QuantityRequired, QuantityScale) {
		verr.Add("quantity_required", fmt.Sprintf("must have at most %d decimal places", QuantityScale))
	}
	if c.WastePercentage.IsNegative() {
		verr.Add("waste_percentage", "cannot be negative")
	} else if !HasScale(c.WastePercentage, WasteScale) {
		verr.Add("waste_percentage", fmt.Sprintf("must have at most %d decimal places", WasteScale))
	}
	return verr.OrNil()
}

// ============ COST ROLLUP ============
type ComponentCost struct {
	ComponentID       uuid.UUID       `json:"component_id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	MaterialName      string          `json:"material_name"`
	QuantityRequired  decimal.Decimal `json:"quantity_required"`
	WastePercentage   decimal.Decimal `json:"waste_percentage"`
	WasteAmount       decimal.Decimal `json:"waste_amount"`
	EffectiveQuantity decimal.Decimal `json:"effective_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

type RecipeCost struct {
	RecipeID      uuid.UUID       `json:"recipe_id"`
	YieldQuantity decimal.Decimal `json:"yield_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	Components    []ComponentCost `json:"components"`
}

// CalculateTotalCost sums component costs. Components must have Material loaded.
func (r Recipe) CalculateTotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Components {
		total = total.Add(c.TotalCost())
	}
	return total
}

// CostPerUnit divides the total by the yield, returning zero for a
// non-positive yield.
func (r Recipe) CostPerUnit() decimal.Decimal {
	if !r.YieldQuantity.IsPositive() {
		return decimal.Zero
	}
	return r.CalculateTotalCost().Div(r.YieldQuantity)
}

func (r Recipe) CostBreakdown() RecipeCost {
	lines := make([]ComponentCost, 0, len(r.Components))
	for _, c := range r.Components {
		line := ComponentCost{
			ComponentID:       c.ID,
			MaterialID:        c.MaterialID,
			QuantityRequired:  c.QuantityRequired,
			WastePercentage:   c.WastePercentage,
			WasteAmount:       c.WasteAmount(),
			EffectiveQuantity: c.EffectiveQuantity(),
			TotalCost:         c.TotalCost(),
		}
		if c.Material != nil {
			line.MaterialName = c.Material.Name
			line.UnitCost = c.Material.UnitCost
		}
		lines = append(lines, line)
	}
	return RecipeCost{
		RecipeID:      r.ID,
		YieldQuantity: r.YieldQuantity,
		TotalCost:     r.CalculateTotalCost(),
		CostPerUnit:   r.CostPerUnit(),
		Components:    lines,
	}
}
