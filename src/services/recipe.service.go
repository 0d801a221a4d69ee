package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

// ============ REQUEST STRUCTS ============
type ComponentRequest struct {
	MaterialID       uuid.UUID       `json:"material_id" validate:"required"`
	QuantityRequired decimal.Decimal `json:"quantity_required" validate:"gt=0,scale=4"`
	WastePercentage  decimal.Decimal `json:"waste_percentage" validate:"gte=0,scale=3"`
	Notes            *string         `json:"notes"`
}

type CreateRecipeRequest struct {
	ProductID     uuid.UUID          `json:"product_id" validate:"required"`
	Name          string             `json:"name" validate:"required,max=200"`
	YieldQuantity decimal.Decimal    `json:"yield_quantity" validate:"gt=0,scale=4"`
	IsActive      bool               `json:"is_active"`
	Notes         *string            `json:"notes"`
	Components    []ComponentRequest `json:"components" validate:"dive"`
}

type UpdateRecipeRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	YieldQuantity decimal.Decimal `json:"yield_quantity" validate:"gt=0,scale=4"`
	Notes         *string         `json:"notes"`
}

// ============ RECIPE SERVICE ============
type RecipeService struct {
	Store  repositories.Store
	Logger *logrus.Logger
}

// ============ PUBLIC METHODS ============

// CreateRecipe - Create a recipe with its components. An active recipe
// replaces the product's current one in the same transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, tenantID uuid.UUID, req CreateRecipeRequest) (*models.Recipe, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ProductID:     req.ProductID,
		Name:          req.Name,
		YieldQuantity: req.YieldQuantity,
		IsActive:      req.IsActive,
		Notes:         req.Notes,
	}

	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		for i, c := range req.Components {
			if err := ensureMaterial(ctx, tx, tenantID, c.MaterialID, fmt.Sprintf("components[%d].material_id", i)); err != nil {
				return err
			}
			recipe.Components = append(recipe.Components, models.RecipeComponent{
				TenantID:         tenantID,
				MaterialID:       c.MaterialID,
				QuantityRequired: c.QuantityRequired,
				WastePercentage:  c.WastePercentage,
				Position:         i,
				Notes:            c.Notes,
			})
		}

		// Siblings go first so the active-recipe index never sees two rows.
		if recipe.IsActive {
			if _, err := tx.Recipes().DeactivateSiblings(ctx, tenantID, recipe.ProductID, recipe.ID); err != nil {
				return err
			}
		}
		return tx.Recipes().Create(ctx, recipe)
	})
	if err != nil {
		s.logFailure("CreateRecipe", "create recipe", req.Name, err)
		return nil, err
	}
	return s.Store.Recipes().FindByID(ctx, tenantID, recipe.ID)
}

// UpdateRecipe - Update name, yield and notes
func (s *RecipeService) UpdateRecipe(ctx context.Context, tenantID, id uuid.UUID, req UpdateRecipeRequest) (*models.Recipe, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		ID:            id,
		TenantID:      tenantID,
		Name:          req.Name,
		YieldQuantity: req.YieldQuantity,
		Notes:         req.Notes,
	}
	if err := s.Store.Recipes().Update(ctx, recipe); err != nil {
		s.logFailure("UpdateRecipe", "update recipe", id, err)
		return nil, err
	}
	return s.Store.Recipes().FindByID(ctx, tenantID, id)
}

// ActivateRecipe - Make a recipe the product's only active one; returns how
// many siblings were deactivated
func (s *RecipeService) ActivateRecipe(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}

	var deactivated int64
	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		recipe, err := tx.Recipes().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		deactivated, err = tx.Recipes().DeactivateSiblings(ctx, tenantID, recipe.ProductID, recipe.ID)
		if err != nil {
			return err
		}
		return tx.Recipes().SetActive(ctx, tenantID, recipe.ID, true)
	})
	if err != nil {
		s.logFailure("ActivateRecipe", "activate recipe", id, err)
		return 0, err
	}

	loggerOr(s.Logger).WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"recipe_id":   id,
		"deactivated": deactivated,
	}).Info("recipe activated")
	return deactivated, nil
}

// DeactivateRecipe - Clear the active flag
func (s *RecipeService) DeactivateRecipe(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.Store.Recipes().SetActive(ctx, tenantID, id, false)
	if err != nil {
		s.logFailure("DeactivateRecipe", "deactivate recipe", id, err)
	}
	return err
}

// DeleteRecipe - Soft delete an inactive recipe and drop its components
func (s *RecipeService) DeleteRecipe(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		recipe, err := tx.Recipes().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if recipe.IsActive {
			return &models.DeletionBlockedError{
				Entity: "recipe",
				ID:     id,
				Reason: "recipe is active, deactivate it first",
			}
		}
		return tx.Recipes().Delete(ctx, tenantID, id)
	})
	if err != nil {
		s.logFailure("DeleteRecipe", "delete recipe", id, err)
	}
	return err
}

// GetRecipe - Get a recipe with components and materials
func (s *RecipeService) GetRecipe(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.Store.Recipes().FindByID(ctx, tenantID, id)
}

func (s *RecipeService) ListRecipes(ctx context.Context, tenantID uuid.UUID, f repositories.RecipeFilter) ([]models.Recipe, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}
	return s.Store.Recipes().List(ctx, tenantID, f)
}

func (s *RecipeService) ActiveRecipeForProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Recipe, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.Store.Recipes().FindActiveByProduct(ctx, tenantID, productID)
}

// ============ COMPONENTS ============

// AddComponent - Append a component after the existing ones
func (s *RecipeService) AddComponent(ctx context.Context, tenantID, recipeID uuid.UUID, req ComponentRequest) (*models.RecipeComponent, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	component := &models.RecipeComponent{
		TenantID:         tenantID,
		RecipeID:         recipeID,
		MaterialID:       req.MaterialID,
		QuantityRequired: req.QuantityRequired,
		WastePercentage:  req.WastePercentage,
		Notes:            req.Notes,
	}
	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Recipes().FindByID(ctx, tenantID, recipeID); err != nil {
			return err
		}
		if err := ensureMaterial(ctx, tx, tenantID, req.MaterialID, "material_id"); err != nil {
			return err
		}
		pos, err := tx.Recipes().NextComponentPosition(ctx, tenantID, recipeID)
		if err != nil {
			return err
		}
		component.Position = pos
		return tx.Recipes().AddComponent(ctx, component)
	})
	if err != nil {
		s.logFailure("AddComponent", "add component", recipeID, err)
		return nil, err
	}
	return s.Store.Recipes().FindComponent(ctx, tenantID, recipeID, component.ID)
}

// UpdateComponent - Change material, quantity or waste of a component; its
// position is kept
func (s *RecipeService) UpdateComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID, req ComponentRequest) (*models.RecipeComponent, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		current, err := tx.Recipes().FindComponent(ctx, tenantID, recipeID, componentID)
		if err != nil {
			return err
		}
		if err := ensureMaterial(ctx, tx, tenantID, req.MaterialID, "material_id"); err != nil {
			return err
		}
		current.MaterialID = req.MaterialID
		current.QuantityRequired = req.QuantityRequired
		current.WastePercentage = req.WastePercentage
		current.Notes = req.Notes
		current.Material = nil
		return tx.Recipes().UpdateComponent(ctx, current)
	})
	if err != nil {
		s.logFailure("UpdateComponent", "update component", componentID, err)
		return nil, err
	}
	return s.Store.Recipes().FindComponent(ctx, tenantID, recipeID, componentID)
}

func (s *RecipeService) RemoveComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.Store.Recipes().DeleteComponent(ctx, tenantID, recipeID, componentID)
	if err != nil {
		s.logFailure("RemoveComponent", "remove component", componentID, err)
	}
	return err
}

// ============ CALCULATIONS ============

// RecipeCost - Cost rollup at current unit costs
func (s *RecipeService) RecipeCost(ctx context.Context, tenantID, id uuid.UUID) (*models.RecipeCost, error) {
	recipe, err := s.GetRecipe(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	cost := recipe.CostBreakdown()
	return &cost, nil
}

// MaxProducible - Capacity at current stock. Reads are not locked, so the
// answer is advisory.
func (s *RecipeService) MaxProducible(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductionCapacity, error) {
	recipe, err := s.GetRecipe(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	capacity := recipe.CalculateMaxProducibleQuantity()
	return &capacity, nil
}

func (s *RecipeService) CheckSufficiency(ctx context.Context, tenantID, id uuid.UUID, quantity int64) (*models.SufficiencyResult, error) {
	if quantity <= 0 {
		return nil, models.NewValidationError("quantity", "must be greater than 0")
	}
	recipe, err := s.GetRecipe(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	result := recipe.CheckSufficiency(quantity)
	return &result, nil
}

// ============ PRIVATE HELPERS ============
func (s *RecipeService) logFailure(funcName, context string, data any, err error) {
	logFailure(s.Logger, "RecipeService", funcName, context, data, err)
}

// ensureMaterial reports a missing material as a field error of the request.
func ensureMaterial(ctx context.Context, tx repositories.Store, tenantID, materialID uuid.UUID, field string) error {
	_, err := tx.Materials().FindByID(ctx, tenantID, materialID)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewValidationError(field, "material not found")
	}
	return err
}
