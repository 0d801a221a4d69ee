package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

// ============ REQUEST STRUCTS ============
type ProductionRequest struct {
	Quantity  int64            `json:"quantity" validate:"gt=0"`
	UserID    *uuid.UUID       `json:"-"`
	Reference models.Reference `json:"reference"`
}

type ProductionResult struct {
	RecipeID     uuid.UUID                     `json:"recipe_id"`
	Quantity     int64                         `json:"quantity"`
	Transactions []models.InventoryTransaction `json:"transactions"`
}

// ============ PRODUCTION SERVICE ============
type ProductionService struct {
	Store  repositories.Store
	Locker Locker
	Logger *logrus.Logger
}

// Produce - Deduct every component of a recipe for quantity units.
//
// The run holds one transaction. Material rows are locked in ascending id
// order, the sufficiency check is made against the locked rows and each
// component is then deducted in recipe order. Any failure rolls back every
// deduction of the run.
func (s *ProductionService) Produce(ctx context.Context, tenantID, recipeID uuid.UUID, req ProductionRequest) (*ProductionResult, error) {
	return s.produce(ctx, tenantID, recipeID, uuid.Nil, req)
}

// produce runs Produce. A non-nil productID also requires the recipe to still
// be that product's active recipe once it is locked.
func (s *ProductionService) produce(ctx context.Context, tenantID, recipeID, productID uuid.UUID, req ProductionRequest) (*ProductionResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	release, err := s.locker().Acquire(ctx, productionLockKey(tenantID, recipeID))
	if err != nil {
		s.logFailure("Produce", "obtain production lock", recipeID, err)
		return nil, err
	}
	defer release()

	result := &ProductionResult{RecipeID: recipeID, Quantity: req.Quantity}
	err = s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		recipe, err := tx.Recipes().FindForShare(ctx, tenantID, recipeID)
		if err != nil {
			return err
		}
		if productID != uuid.Nil && (!recipe.IsActive || recipe.ProductID != productID) {
			return &models.ConcurrencyConflictError{
				Op:  "produce for order",
				Err: fmt.Errorf("recipe %s is no longer the active recipe of product %s", recipe.ID, productID),
			}
		}

		locked, err := lockMaterials(ctx, tx, tenantID, recipe.Components)
		if err != nil {
			return err
		}
		for i := range recipe.Components {
			recipe.Components[i].Material = locked[recipe.Components[i].MaterialID]
		}

		check := recipe.CheckSufficiency(req.Quantity)
		if !check.Sufficient {
			return &models.InsufficientMaterialsError{
				RecipeID:  recipe.ID,
				Quantity:  req.Quantity,
				Shortages: check.InsufficientMaterials,
			}
		}

		notes := fmt.Sprintf("production of %d x %s (recipe %s)", req.Quantity, recipe.Name, recipe.ID)
		txs := make([]models.InventoryTransaction, 0, len(recipe.Components))
		for _, c := range recipe.Components {
			if c.Material == nil {
				return fmt.Errorf("material %s of component %s: %w", c.MaterialID, c.ID, models.ErrNotFound)
			}
			// Shared pointer: a material listed twice sees its first deduction.
			txn, err := applyStockChange(ctx, tx, c.Material, ledgerEntry{
				Type:      models.TransactionTypeDeduction,
				Quantity:  c.RequiredFor(req.Quantity),
				Reason:    models.ReasonProduction,
				Notes:     &notes,
				UserID:    req.UserID,
				Reference: req.Reference,
			})
			if err != nil {
				return err
			}
			txs = append(txs, *txn)
		}
		result.Transactions = txs
		return nil
	})
	if err != nil {
		s.logFailure("Produce", "deduct materials for production", logrus.Fields{
			"tenant_id": tenantID,
			"recipe_id": recipeID,
			"quantity":  req.Quantity,
			"reference": req.Reference.String(),
		}, err)
		return nil, err
	}

	loggerOr(s.Logger).WithFields(logrus.Fields{
		"tenant_id":    tenantID,
		"recipe_id":    recipeID,
		"quantity":     req.Quantity,
		"transactions": len(result.Transactions),
		"reference":    req.Reference.String(),
	}).Info("production committed")
	return result, nil
}

// ProduceForOrder - Produce with the product's active recipe for an order.
// An activation that lands between the lookup and the locked reload fails the
// run with a retryable ConcurrencyConflictError.
func (s *ProductionService) ProduceForOrder(ctx context.Context, tenantID, productID, orderID uuid.UUID, quantity int64, userID *uuid.UUID) (*ProductionResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, models.NewValidationError("order_id", "is required")
	}

	recipe, err := s.Store.Recipes().FindActiveByProduct(ctx, tenantID, productID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("no active recipe for product %s: %w", productID, err)
	}
	if err != nil {
		return nil, err
	}

	return s.produce(ctx, tenantID, recipe.ID, productID, ProductionRequest{
		Quantity:  quantity,
		UserID:    userID,
		Reference: models.OrderRef(orderID),
	})
}

// ============ PRIVATE HELPERS ============
func (s *ProductionService) locker() Locker {
	if s.Locker == nil {
		return noopLocker{}
	}
	return s.Locker
}

func (s *ProductionService) logFailure(funcName, context string, data any, err error) {
	logFailure(s.Logger, "ProductionService", funcName, context, data, err)
}

// lockMaterials locks each distinct material of components once, in
// ascending id order so concurrent runs never wait on each other in a cycle.
// A material that no longer exists maps to nil and counts as zero stock.
func lockMaterials(ctx context.Context, tx repositories.Store, tenantID uuid.UUID, components []models.RecipeComponent) (map[uuid.UUID]*models.Material, error) {
	ids := make([]uuid.UUID, 0, len(components))
	seen := make(map[uuid.UUID]bool, len(components))
	for _, c := range components {
		if !seen[c.MaterialID] {
			seen[c.MaterialID] = true
			ids = append(ids, c.MaterialID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*models.Material, len(ids))
	for _, id := range ids {
		m, err := tx.Materials().FindForUpdate(ctx, tenantID, id)
		if errors.Is(err, models.ErrNotFound) {
			locked[id] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = m
	}
	return locked, nil
}
