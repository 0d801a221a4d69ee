package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
	"pos-recipe-engine/src/services"
)

var (
	flourStock = decimal.NewFromInt(1050)
	sugarStock = decimal.NewFromInt(500)
)

// seedCake creates Flour and Sugar and an active Cake recipe that can be
// produced exactly ten times. Nothing is kept when any step fails.
func seedCake(ctx context.Context, store repositories.Store, tenantID, productID uuid.UUID) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := store.WithinTransaction(ctx, func(tx repositories.Store) error {
		logger := config.GetLogger()
		materials := &services.MaterialService{Store: tx, Logger: logger}
		recipes := &services.RecipeService{Store: tx, Logger: logger}

		flour, err := materials.CreateMaterial(ctx, tenantID, services.CreateMaterialRequest{
			Name:         "Flour",
			SKU:          "FLOUR-001",
			Category:     "dry goods",
			Unit:         "g",
			InitialStock: flourStock,
			ReorderLevel: decimal.NewFromInt(500),
			UnitCost:     decimal.RequireFromString("0.002"),
		})
		if err != nil {
			return err
		}
		sugar, err := materials.CreateMaterial(ctx, tenantID, services.CreateMaterialRequest{
			Name:         "Sugar",
			SKU:          "SUGAR-001",
			Category:     "dry goods",
			Unit:         "g",
			InitialStock: sugarStock,
			ReorderLevel: decimal.NewFromInt(200),
			UnitCost:     decimal.RequireFromString("0.003"),
		})
		if err != nil {
			return err
		}

		notes := "sample recipe"
		recipe, err = recipes.CreateRecipe(ctx, tenantID, services.CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Cake",
			YieldQuantity: decimal.NewFromInt(1),
			IsActive:      true,
			Notes:         &notes,
			Components: []services.ComponentRequest{
				{MaterialID: flour.ID, QuantityRequired: decimal.NewFromInt(100), WastePercentage: decimal.NewFromInt(5)},
				{MaterialID: sugar.ID, QuantityRequired: decimal.NewFromInt(50)},
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}
