package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
	// acquired runs once the lock is granted, before the run starts.
	acquired func()
}

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	if l.acquired != nil && l.err == nil {
		defer l.acquired()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

func (f *fixture) ledger(t *testing.T, materialID uuid.UUID) []models.InventoryTransaction {
	t.Helper()
	rows, _, err := f.materials.ListTransactions(f.ctx, f.tenantID, materialID, repositories.TransactionFilter{Limit: repositories.MaxPageSize})
	require.NoError(t, err)
	return rows
}

func TestProduce(t *testing.T) {
	t.Run("SC1: Produce the full capacity", func(t *testing.T) {
		f := newFixture(t)
		recipe, flour, sugar := f.cake(t)
		orderID := uuid.New()

		result, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{
			Quantity:  10,
			UserID:    &f.userID,
			Reference: models.OrderRef(orderID),
		})
		require.NoError(t, err)
		require.Len(t, result.Transactions, 2)

		for i, want := range []*models.Material{flour, sugar} {
			txn := result.Transactions[i]
			assert.Equal(t, want.ID, txn.MaterialID)
			assert.Equal(t, models.TransactionTypeDeduction, txn.Type)
			assert.Equal(t, models.ReasonProduction, txn.Reason)
			assert.True(t, txn.QuantityAfter.IsZero())
			assert.True(t, txn.Balanced())
			assert.Equal(t, models.OrderRef(orderID), txn.Reference)
			require.NotNil(t, txn.Notes)
			assert.Contains(t, *txn.Notes, "production of 10 x Cake")
		}
		assert.True(t, result.Transactions[0].QuantityChange.Equal(dec("-1050")))
		assert.True(t, result.Transactions[1].QuantityChange.Equal(dec("-500")))

		assert.True(t, f.stock(t, flour.ID).IsZero())
		assert.True(t, f.stock(t, sugar.ID).IsZero())

		capacity, err := f.recipes.MaxProducible(f.ctx, f.tenantID, recipe.ID)
		require.NoError(t, err)
		assert.Zero(t, capacity.MaxQuantity)
		assert.False(t, capacity.CanProduce)
	})

	t.Run("SC2: Insufficient run changes nothing", func(t *testing.T) {
		f := newFixture(t)
		recipe, flour, sugar := f.cake(t)

		_, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 11})
		var shortErr *models.InsufficientMaterialsError
		require.ErrorAs(t, err, &shortErr)
		require.Len(t, shortErr.Shortages, 2)
		assert.True(t, shortErr.Shortages[0].Shortage.Equal(dec("105")))
		assert.True(t, shortErr.Shortages[1].Shortage.Equal(dec("50")))

		assert.True(t, f.stock(t, flour.ID).Equal(dec("1050")))
		assert.True(t, f.stock(t, sugar.ID).Equal(dec("500")))
		// only the initial stock rows
		assert.Len(t, f.ledger(t, flour.ID), 1)
		assert.Len(t, f.ledger(t, sugar.ID), 1)
	})

	t.Run("SC3: Ledger replays to the stock balance", func(t *testing.T) {
		f := newFixture(t)
		recipe, flour, _ := f.cake(t)

		for _, qty := range []int64{3, 2, 4} {
			_, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: qty})
			require.NoError(t, err)
		}
		_, err := f.materials.AdjustStock(f.ctx, f.tenantID, flour.ID, AdjustStockRequest{
			Type: models.TransactionTypeRestock, Quantity: dec("200"), Reason: models.ReasonPurchase,
		})
		require.NoError(t, err)

		sum := decimal.Zero
		for _, txn := range f.ledger(t, flour.ID) {
			assert.True(t, txn.Balanced())
			sum = sum.Add(txn.QuantityChange)
		}
		// 1050 - 9 x 105 + 200
		assert.True(t, sum.Equal(dec("305")), sum.String())
		assert.True(t, f.stock(t, flour.ID).Equal(sum))
	})

	t.Run("SC4: Material listed twice rolls back on the second deduction", func(t *testing.T) {
		f := newFixture(t)
		flour := f.material(t, "FLOUR-001", "150", "0.002")
		recipe, err := f.recipes.CreateRecipe(f.ctx, f.tenantID, CreateRecipeRequest{
			ProductID:     uuid.New(),
			Name:          "Double flour",
			YieldQuantity: decimal.NewFromInt(1),
			Components: []ComponentRequest{
				{MaterialID: flour.ID, QuantityRequired: dec("100")},
				{MaterialID: flour.ID, QuantityRequired: dec("100")},
			},
		})
		require.NoError(t, err)

		_, err = f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 1})
		assert.ErrorIs(t, err, models.ErrInsufficientStock)
		assert.True(t, f.stock(t, flour.ID).Equal(dec("150")))
		assert.Len(t, f.ledger(t, flour.ID), 1)
	})

	t.Run("SC5: Empty recipe produces nothing", func(t *testing.T) {
		f := newFixture(t)
		recipe, err := f.recipes.CreateRecipe(f.ctx, f.tenantID, CreateRecipeRequest{
			ProductID:     uuid.New(),
			Name:          "Air",
			YieldQuantity: decimal.NewFromInt(1),
		})
		require.NoError(t, err)

		result, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 5})
		require.NoError(t, err)
		assert.Empty(t, result.Transactions)
	})

	t.Run("SC6: Bad input", func(t *testing.T) {
		f := newFixture(t)
		recipe, _, _ := f.cake(t)

		_, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 0})
		assert.ErrorIs(t, err, models.ErrValidation)

		_, err = f.production.Produce(f.ctx, uuid.Nil, recipe.ID, ProductionRequest{Quantity: 1})
		assert.ErrorIs(t, err, models.ErrTenantRequired)

		_, err = f.production.Produce(f.ctx, uuid.New(), recipe.ID, ProductionRequest{Quantity: 1})
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = f.production.Produce(f.ctx, f.tenantID, uuid.New(), ProductionRequest{Quantity: 1})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestConcurrentProduction(t *testing.T) {
	f := newFixture(t)
	recipe, flour, sugar := f.cake(t)

	const workers = 15
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, models.ErrInsufficientMaterials):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 5, rejected)
	assert.True(t, f.stock(t, flour.ID).IsZero())
	assert.True(t, f.stock(t, sugar.ID).IsZero())
	assert.Len(t, f.ledger(t, flour.ID), 11)
}

func TestProduceForOrder(t *testing.T) {
	f := newFixture(t)
	recipe, flour, _ := f.cake(t)
	orderID := uuid.New()

	result, err := f.production.ProduceForOrder(f.ctx, f.tenantID, recipe.ProductID, orderID, 2, &f.userID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, result.RecipeID)

	rows, err := f.materials.TransactionsByReference(f.ctx, f.tenantID, models.OrderRef(orderID))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.True(t, f.stock(t, flour.ID).Equal(dec("840")))

	_, err = f.production.ProduceForOrder(f.ctx, f.tenantID, uuid.New(), orderID, 1, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.production.ProduceForOrder(f.ctx, f.tenantID, recipe.ProductID, uuid.Nil, 1, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestProduceForOrderRechecksActiveRecipe(t *testing.T) {
	f := newFixture(t)
	recipe, flour, sugar := f.cake(t)
	replacement, err := f.recipes.CreateRecipe(f.ctx, f.tenantID, CreateRecipeRequest{
		ProductID:     recipe.ProductID,
		Name:          "Cake, less sugar",
		YieldQuantity: dec("1"),
		Components: []ComponentRequest{
			{MaterialID: flour.ID, QuantityRequired: dec("100"), WastePercentage: dec("5")},
			{MaterialID: sugar.ID, QuantityRequired: dec("25")},
		},
	})
	require.NoError(t, err)

	locker := &fakeLocker{}
	locker.acquired = func() {
		_, err := f.recipes.ActivateRecipe(f.ctx, f.tenantID, replacement.ID)
		require.NoError(t, err)
	}
	f.production.Locker = locker

	_, err = f.production.ProduceForOrder(f.ctx, f.tenantID, recipe.ProductID, uuid.New(), 1, nil)
	require.ErrorIs(t, err, models.ErrConcurrencyConflict)
	assert.True(t, f.stock(t, flour.ID).Equal(dec("1050")))
	assert.True(t, f.stock(t, sugar.ID).Equal(dec("500")))

	locker.acquired = nil
	result, err := f.production.ProduceForOrder(f.ctx, f.tenantID, recipe.ProductID, uuid.New(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, result.RecipeID)
	assert.True(t, f.stock(t, sugar.ID).Equal(dec("475")))

	// Produce by id does not care which recipe is active.
	_, err = f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 1})
	assert.NoError(t, err)
}

func TestProduceRoundsFractionalDraws(t *testing.T) {
	f := newFixture(t)
	yeast := f.material(t, "YEAST-001", "1", "0")
	recipe, err := f.recipes.CreateRecipe(f.ctx, f.tenantID, CreateRecipeRequest{
		ProductID:     uuid.New(),
		Name:          "Bread",
		YieldQuantity: dec("1"),
		Components: []ComponentRequest{
			{MaterialID: yeast.ID, QuantityRequired: dec("0.1"), WastePercentage: dec("0.15")},
		},
	})
	require.NoError(t, err)

	capacity, err := f.recipes.MaxProducible(f.ctx, f.tenantID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), capacity.MaxQuantity)

	result, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 9})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	txn := result.Transactions[0]
	assert.True(t, txn.QuantityChange.Equal(dec("-0.9014")), "change %s", txn.QuantityChange)
	assert.True(t, txn.QuantityAfter.Equal(dec("0.0986")), "after %s", txn.QuantityAfter)
	assert.True(t, txn.Balanced())
	assert.True(t, f.stock(t, yeast.ID).Equal(txn.QuantityAfter))

	_, err = f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 1})
	assert.ErrorIs(t, err, models.ErrInsufficientMaterials)
}

func TestProduceUsesLocker(t *testing.T) {
	f := newFixture(t)
	recipe, flour, _ := f.cake(t)

	locker := &fakeLocker{}
	f.production.Locker = locker
	_, err := f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{productionLockKey(f.tenantID, recipe.ID)}, locker.keys)
	assert.Equal(t, 1, locker.released)

	locker.err = &models.ConcurrencyConflictError{Op: "obtain lock"}
	_, err = f.production.Produce(f.ctx, f.tenantID, recipe.ID, ProductionRequest{Quantity: 1})
	assert.ErrorIs(t, err, models.ErrConcurrencyConflict)
	assert.True(t, f.stock(t, flour.ID).Equal(dec("945")))
}

func TestLockMaterialsLocksEachMaterialOnce(t *testing.T) {
	f := newFixture(t)
	a := f.material(t, "A-001", "1", "0")
	b := f.material(t, "B-001", "1", "0")
	missing := uuid.New()

	var locked map[uuid.UUID]*models.Material
	err := f.store.WithinTransaction(f.ctx, func(tx repositories.Store) error {
		var err error
		locked, err = lockMaterials(f.ctx, tx, f.tenantID, []models.RecipeComponent{
			{MaterialID: b.ID}, {MaterialID: a.ID}, {MaterialID: b.ID}, {MaterialID: missing},
		})
		return err
	})
	require.NoError(t, err)
	assert.Len(t, locked, 3)
	assert.Nil(t, locked[missing])
	require.NotNil(t, locked[b.ID])
	assert.Equal(t, "A-001", locked[a.ID].SKU)
}
