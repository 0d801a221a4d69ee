package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgNoComponents    = "recipe has no components"
	msgNoLimitingInput = "recipe has no component with a positive effective quantity"
	msgOutOfMaterials  = "not enough stock to produce a single unit"
)

// MaterialAvailability is the per-component line of a capacity report.
type MaterialAvailability struct {
	ComponentID       uuid.UUID       `json:"component_id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	QuantityRequired  decimal.Decimal `json:"quantity_required"`
	EffectiveQuantity decimal.Decimal `json:"effective_quantity"`
	AvailableStock    decimal.Decimal `json:"available_stock"`
	IsSufficient      bool            `json:"is_sufficient"`
	MaxProducible     int64           `json:"max_producible"`
}

type ProductionCapacity struct {
	RecipeID         uuid.UUID              `json:"recipe_id"`
	MaxQuantity      int64                  `json:"max_quantity"`
	CanProduce       bool                   `json:"can_produce"`
	LimitingMaterial *MaterialAvailability  `json:"limiting_material"`
	Materials        []MaterialAvailability `json:"all_materials_availability"`
	Message          string                 `json:"message,omitempty"`
}

type SufficiencyResult struct {
	RecipeID              uuid.UUID          `json:"recipe_id"`
	Quantity              int64              `json:"quantity"`
	Sufficient            bool               `json:"sufficient"`
	InsufficientMaterials []MaterialShortage `json:"insufficient_materials"`
}

func availabilityOf(c RecipeComponent) MaterialAvailability {
	eff := c.EffectiveQuantity()
	line := MaterialAvailability{
		ComponentID:       c.ID,
		MaterialID:        c.MaterialID,
		QuantityRequired:  c.QuantityRequired,
		EffectiveQuantity: eff,
		AvailableStock:    c.availableStock(),
		MaxProducible:     c.MaxProducible(),
	}
	line.IsSufficient = line.AvailableStock.GreaterThanOrEqual(c.RequiredFor(1))
	if c.Material != nil {
		line.MaterialName = c.Material.Name
		line.Unit = c.Material.Unit
	}
	return line
}

// CalculateMaxProducibleQuantity finds the bottleneck over the components in
// stored order. Components with a non-positive effective quantity never
// limit. On ties the first component wins.
func (r Recipe) CalculateMaxProducibleQuantity() ProductionCapacity {
	result := ProductionCapacity{
		RecipeID:  r.ID,
		Materials: make([]MaterialAvailability, 0, len(r.Components)),
	}
	if len(r.Components) == 0 {
		result.Message = msgNoComponents
		return result
	}

	limiting := -1
	for i, c := range r.Components {
		line := availabilityOf(c)
		result.Materials = append(result.Materials, line)
		if !line.EffectiveQuantity.IsPositive() {
			continue
		}
		if limiting < 0 || line.MaxProducible < result.Materials[limiting].MaxProducible {
			limiting = i
		}
	}

	if limiting < 0 {
		result.Message = msgNoLimitingInput
		return result
	}

	bottleneck := result.Materials[limiting]
	result.LimitingMaterial = &bottleneck
	result.MaxQuantity = bottleneck.MaxProducible
	result.CanProduce = result.MaxQuantity > 0
	if !result.CanProduce {
		result.Message = msgOutOfMaterials
	}
	return result
}

// CheckSufficiency lists every component whose stock cannot cover quantity
// units. It never stops at the first shortage.
func (r Recipe) CheckSufficiency(quantity int64) SufficiencyResult {
	result := SufficiencyResult{
		RecipeID:              r.ID,
		Quantity:              quantity,
		Sufficient:            true,
		InsufficientMaterials: []MaterialShortage{},
	}
	for _, c := range r.Components {
		required := c.RequiredFor(quantity)
		available := c.availableStock()
		if available.GreaterThanOrEqual(required) {
			continue
		}
		shortage := MaterialShortage{
			ComponentID: c.ID,
			MaterialID:  c.MaterialID,
			Required:    required,
			Available:   available,
			Shortage:    required.Sub(available),
		}
		if c.Material != nil {
			shortage.MaterialName = c.Material.Name
			shortage.Unit = c.Material.Unit
		}
		result.InsufficientMaterials = append(result.InsufficientMaterials, shortage)
		result.Sufficient = false
	}
	return result
}
