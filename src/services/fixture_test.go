package services

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories/memory"
)

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	tenantID   uuid.UUID
	userID     uuid.UUID
	materials  *MaterialService
	recipes    *RecipeService
	production *ProductionService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := quietLogger()
	return &fixture{
		ctx:        context.Background(),
		store:      store,
		tenantID:   uuid.New(),
		userID:     uuid.New(),
		materials:  &MaterialService{Store: store, Logger: logger},
		recipes:    &RecipeService{Store: store, Logger: logger},
		production: &ProductionService{Store: store, Logger: logger},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) material(t *testing.T, sku, stock, unitCost string) *models.Material {
	t.Helper()
	m, err := f.materials.CreateMaterial(f.ctx, f.tenantID, CreateMaterialRequest{
		Name:         sku,
		SKU:          sku,
		Unit:         "g",
		InitialStock: dec(stock),
		UnitCost:     dec(unitCost),
		UserID:       &f.userID,
	})
	require.NoError(t, err)
	return m
}

// cake is 100 g flour at 5% waste and 50 g sugar per unit. Both materials
// cover exactly ten units.
func (f *fixture) cake(t *testing.T) (*models.Recipe, *models.Material, *models.Material) {
	t.Helper()
	flour := f.material(t, "FLOUR-001", "1050", "0.002")
	sugar := f.material(t, "SUGAR-001", "500", "0.003")
	recipe, err := f.recipes.CreateRecipe(f.ctx, f.tenantID, CreateRecipeRequest{
		ProductID:     uuid.New(),
		Name:          "Cake",
		YieldQuantity: decimal.NewFromInt(1),
		IsActive:      true,
		Components: []ComponentRequest{
			{MaterialID: flour.ID, QuantityRequired: dec("100"), WastePercentage: dec("5")},
			{MaterialID: sugar.ID, QuantityRequired: dec("50")},
		},
	})
	require.NoError(t, err)
	return recipe, flour, sugar
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	m, err := f.materials.GetMaterial(f.ctx, f.tenantID, id)
	require.NoError(t, err)
	return m.StockQuantity
}
