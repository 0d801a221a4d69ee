package services_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
	"pos-recipe-engine/src/services"
)

// Run with INTEGRATION_TESTS=1 and TEST_DATABASE_DSN pointing at a
// disposable PostgreSQL database.
var (
	testDB         *gorm.DB
	testTenant1ID  uuid.UUID
	testTenant2ID  uuid.UUID
	testMaterials  *services.MaterialService
	testRecipes    *services.RecipeService
	testProduction *services.ProductionService
)

func setupTestDB(dsn string) *gorm.DB {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		panic("failed to connect database")
	}
	if err := config.Migrate(db); err != nil {
		panic(fmt.Sprintf("failed to migrate: %v", err))
	}
	return db
}

func cleanupTestDB(db *gorm.DB) {
	db.Exec("TRUNCATE inventory_transactions, recipe_components, recipes, materials CASCADE")
}

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if os.Getenv("INTEGRATION_TESTS") != "1" || dsn == "" {
		os.Exit(m.Run())
	}

	fmt.Println("Setting up test database...")
	testDB = setupTestDB(dsn)
	cleanupTestDB(testDB)

	testTenant1ID = uuid.New()
	testTenant2ID = uuid.New()

	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)
	store := repositories.NewGormStore(testDB, 2*time.Second)
	testMaterials = &services.MaterialService{Store: store, Logger: quiet}
	testRecipes = &services.RecipeService{Store: store, Logger: quiet}
	testProduction = &services.ProductionService{Store: store, Logger: quiet}

	code := m.Run()

	cleanupTestDB(testDB)
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("set INTEGRATION_TESTS=1 and TEST_DATABASE_DSN to run against PostgreSQL")
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createMaterial(t *testing.T, tenantID uuid.UUID, sku, stock string) *models.Material {
	t.Helper()
	m, err := testMaterials.CreateMaterial(context.Background(), tenantID, services.CreateMaterialRequest{
		Name:         sku,
		SKU:          sku,
		Unit:         "g",
		InitialStock: mustDecimal(stock),
		UnitCost:     mustDecimal("0.002"),
	})
	require.NoError(t, err)
	return m
}

func createCake(t *testing.T, tenantID uuid.UUID, suffix string) (*models.Recipe, *models.Material, *models.Material) {
	t.Helper()
	flour := createMaterial(t, tenantID, "FLOUR-"+suffix, "1050")
	sugar := createMaterial(t, tenantID, "SUGAR-"+suffix, "500")
	recipe, err := testRecipes.CreateRecipe(context.Background(), tenantID, services.CreateRecipeRequest{
		ProductID:     uuid.New(),
		Name:          "Cake " + suffix,
		YieldQuantity: decimal.NewFromInt(1),
		IsActive:      true,
		Components: []services.ComponentRequest{
			{MaterialID: flour.ID, QuantityRequired: mustDecimal("100"), WastePercentage: mustDecimal("5")},
			{MaterialID: sugar.ID, QuantityRequired: mustDecimal("50")},
		},
	})
	require.NoError(t, err)
	return recipe, flour, sugar
}

func currentStock(t *testing.T, tenantID, materialID uuid.UUID) decimal.Decimal {
	t.Helper()
	m, err := testMaterials.GetMaterial(context.Background(), tenantID, materialID)
	require.NoError(t, err)
	return m.StockQuantity
}

// ============ TEST SCENARIO 1: PRODUCTION FLOW ============
func TestProductionFlow(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	recipe, flour, sugar := createCake(t, testTenant1ID, "SC1")

	t.Run("SC1: Capacity is limited by the first tied component", func(t *testing.T) {
		capacity, err := testRecipes.MaxProducible(ctx, testTenant1ID, recipe.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), capacity.MaxQuantity)
		assert.Equal(t, flour.ID, capacity.LimitingMaterial.MaterialID)
	})

	t.Run("SC2: Over-capacity run is rejected without side effects", func(t *testing.T) {
		_, err := testProduction.Produce(ctx, testTenant1ID, recipe.ID, services.ProductionRequest{Quantity: 11})
		assert.ErrorIs(t, err, models.ErrInsufficientMaterials)
		assert.True(t, currentStock(t, testTenant1ID, flour.ID).Equal(mustDecimal("1050")))
		assert.True(t, currentStock(t, testTenant1ID, sugar.ID).Equal(mustDecimal("500")))
	})

	t.Run("SC3: Full run drains both materials", func(t *testing.T) {
		orderID := uuid.New()
		result, err := testProduction.Produce(ctx, testTenant1ID, recipe.ID, services.ProductionRequest{
			Quantity:  10,
			Reference: models.OrderRef(orderID),
		})
		require.NoError(t, err)
		assert.Len(t, result.Transactions, 2)
		assert.True(t, currentStock(t, testTenant1ID, flour.ID).IsZero())
		assert.True(t, currentStock(t, testTenant1ID, sugar.ID).IsZero())

		rows, err := testMaterials.TransactionsByReference(ctx, testTenant1ID, models.OrderRef(orderID))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

// ============ TEST SCENARIO 2: TENANT ISOLATION ============
func TestTenantIsolation(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	recipe, flour, _ := createCake(t, testTenant1ID, "SC4")

	t.Run("SC4: Other tenant cannot read or produce", func(t *testing.T) {
		_, err := testMaterials.GetMaterial(ctx, testTenant2ID, flour.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = testProduction.Produce(ctx, testTenant2ID, recipe.ID, services.ProductionRequest{Quantity: 1})
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.True(t, currentStock(t, testTenant1ID, flour.ID).Equal(mustDecimal("1050")))
	})

	t.Run("SC5: Same SKU is allowed in another tenant", func(t *testing.T) {
		other := createMaterial(t, testTenant2ID, "FLOUR-SC4", "10")
		assert.NotEqual(t, flour.ID, other.ID)
	})
}

// ============ TEST SCENARIO 3: CONCURRENCY ============
func TestConcurrentProduction(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	recipe, flour, sugar := createCake(t, testTenant1ID, "SC6")

	t.Run("SC6: Parallel runs never overdraw", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 15; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := testProduction.Produce(ctx, testTenant1ID, recipe.ID, services.ProductionRequest{Quantity: 1})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, succeeded)
		assert.False(t, currentStock(t, testTenant1ID, flour.ID).IsNegative())
		assert.True(t, currentStock(t, testTenant1ID, sugar.ID).IsZero())
	})
}

// ============ TEST SCENARIO 4: DATA INTEGRITY ============
func TestLedgerIntegrity(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	recipe, flour, _ := createCake(t, testTenant1ID, "SC7")

	t.Run("SC7: Ledger replays to the stored balance", func(t *testing.T) {
		for _, qty := range []int64{2, 3} {
			_, err := testProduction.Produce(ctx, testTenant1ID, recipe.ID, services.ProductionRequest{Quantity: qty})
			require.NoError(t, err)
		}
		_, err := testMaterials.AdjustStock(ctx, testTenant1ID, flour.ID, services.AdjustStockRequest{
			Type:     models.TransactionTypeAdjustment,
			Quantity: mustDecimal("-0.5"),
			Reason:   models.ReasonCountAdjustment,
		})
		require.NoError(t, err)

		rows, total, err := testMaterials.ListTransactions(ctx, testTenant1ID, flour.ID, repositories.TransactionFilter{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)

		sum := decimal.Zero
		for _, row := range rows {
			assert.True(t, row.Balanced(), "row %s is not balanced", row.ID)
			sum = sum.Add(row.QuantityChange)
		}
		assert.True(t, sum.Equal(currentStock(t, testTenant1ID, flour.ID)))
	})

	t.Run("SC8: Material used by an active recipe cannot be deleted", func(t *testing.T) {
		err := testMaterials.DeleteMaterial(ctx, testTenant1ID, flour.ID)
		assert.ErrorIs(t, err, models.ErrDeletionBlocked)
	})
}

// ============ TEST SCENARIO 5: STORED SCALE ============
func TestStoredScale(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	t.Run("SC9: Fractional waste persists balanced rows", func(t *testing.T) {
		yeast := createMaterial(t, testTenant1ID, "YEAST-SC9", "1")
		recipe, err := testRecipes.CreateRecipe(ctx, testTenant1ID, services.CreateRecipeRequest{
			ProductID:     uuid.New(),
			Name:          "Bread SC9",
			YieldQuantity: decimal.NewFromInt(1),
			Components: []services.ComponentRequest{
				{MaterialID: yeast.ID, QuantityRequired: mustDecimal("0.1"), WastePercentage: mustDecimal("0.15")},
			},
		})
		require.NoError(t, err)

		_, err = testProduction.Produce(ctx, testTenant1ID, recipe.ID, services.ProductionRequest{Quantity: 9})
		require.NoError(t, err)

		rows, _, err := testMaterials.ListTransactions(ctx, testTenant1ID, yeast.ID, repositories.TransactionFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, row := range rows {
			assert.True(t, row.Balanced(), "stored row %s: %s %s %s", row.ID, row.QuantityBefore, row.QuantityChange, row.QuantityAfter)
		}
		assert.True(t, rows[0].QuantityChange.Equal(mustDecimal("-0.9014")))
		assert.True(t, currentStock(t, testTenant1ID, yeast.ID).Equal(mustDecimal("0.0986")))
	})

	t.Run("SC10: A deleted material frees its SKU", func(t *testing.T) {
		old := createMaterial(t, testTenant1ID, "SALT-SC10", "0")
		require.NoError(t, testMaterials.DeleteMaterial(ctx, testTenant1ID, old.ID))

		again := createMaterial(t, testTenant1ID, "SALT-SC10", "5")
		assert.NotEqual(t, old.ID, again.ID)

		_, err := testMaterials.CreateMaterial(ctx, testTenant1ID, services.CreateMaterialRequest{
			Name: "Salt", SKU: "SALT-SC10", Unit: "g",
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}
