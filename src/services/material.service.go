package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pos-recipe-engine/src/exports"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

// ============ REQUEST STRUCTS ============
type CreateMaterialRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	SKU          string          `json:"sku" validate:"required,max=64"`
	Category     string          `json:"category" validate:"max=100"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	InitialStock decimal.Decimal `json:"initial_stock" validate:"gte=0,scale=4"`
	ReorderLevel decimal.Decimal `json:"reorder_level" validate:"gte=0,scale=4"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0,scale=4"`
	UserID       *uuid.UUID      `json:"-"`
}

// UpdateMaterialRequest replaces the descriptive fields. Stock only moves
// through AdjustStock.
type UpdateMaterialRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	SKU          string          `json:"sku" validate:"required,max=64"`
	Category     string          `json:"category" validate:"max=100"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	ReorderLevel decimal.Decimal `json:"reorder_level" validate:"gte=0,scale=4"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0,scale=4"`
}

type AdjustStockRequest struct {
	Type      models.TransactionType   `json:"type" validate:"required,oneof=adjustment deduction restock"`
	Quantity  decimal.Decimal          `json:"quantity" validate:"scale=4"`
	Reason    models.TransactionReason `json:"reason" validate:"required,oneof=purchase waste damage count_adjustment production sale other"`
	Notes     *string                  `json:"notes"`
	UserID    *uuid.UUID               `json:"-"`
	Reference models.Reference         `json:"reference"`
}

// ============ MATERIAL SERVICE ============
type MaterialService struct {
	Store  repositories.Store
	Logger *logrus.Logger
}

// ============ PUBLIC METHODS ============

// CreateMaterial - Create a material; initial stock is booked as a purchase restock
func (s *MaterialService) CreateMaterial(ctx context.Context, tenantID uuid.UUID, req CreateMaterialRequest) (*models.Material, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	material := &models.Material{
		TenantID:     tenantID,
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Unit:         req.Unit,
		ReorderLevel: req.ReorderLevel,
		UnitCost:     req.UnitCost,
	}

	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Materials().Create(ctx, material); err != nil {
			return err
		}
		if !req.InitialStock.IsPositive() {
			return nil
		}
		notes := "initial stock"
		_, err := applyStockChange(ctx, tx, material, ledgerEntry{
			Type:     models.TransactionTypeRestock,
			Quantity: req.InitialStock,
			Reason:   models.ReasonPurchase,
			Notes:    &notes,
			UserID:   req.UserID,
		})
		return err
	})
	if err != nil {
		s.logFailure("CreateMaterial", "create material", req.SKU, err)
		return nil, err
	}
	return material, nil
}

// UpdateMaterial - Update descriptive fields of a material
func (s *MaterialService) UpdateMaterial(ctx context.Context, tenantID, id uuid.UUID, req UpdateMaterialRequest) (*models.Material, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	material := &models.Material{
		ID:           id,
		TenantID:     tenantID,
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Unit:         req.Unit,
		ReorderLevel: req.ReorderLevel,
		UnitCost:     req.UnitCost,
	}
	if err := s.Store.Materials().Update(ctx, material); err != nil {
		s.logFailure("UpdateMaterial", "update material", id, err)
		return nil, err
	}
	return s.Store.Materials().FindByID(ctx, tenantID, id)
}

// GetMaterial - Get one material
func (s *MaterialService) GetMaterial(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	return s.Store.Materials().FindByID(ctx, tenantID, id)
}

// ListMaterials - Get paged materials
func (s *MaterialService) ListMaterials(ctx context.Context, tenantID uuid.UUID, f repositories.MaterialFilter) ([]models.Material, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}
	return s.Store.Materials().List(ctx, tenantID, f)
}

// LowStockMaterials - Get every material under its reorder level
func (s *MaterialService) LowStockMaterials(ctx context.Context, tenantID uuid.UUID) ([]models.Material, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	all := make([]models.Material, 0)
	for page := 1; ; page++ {
		rows, total, err := s.Store.Materials().List(ctx, tenantID, repositories.MaterialFilter{
			LowStockOnly: true,
			Page:         page,
			Limit:        repositories.MaxPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}

// DeleteMaterial - Soft delete a material no active recipe uses
func (s *MaterialService) DeleteMaterial(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Materials().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		n, err := tx.Recipes().CountActiveUsingMaterial(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &models.DeletionBlockedError{
				Entity: "material",
				ID:     id,
				Reason: fmt.Sprintf("used by %d active recipe(s)", n),
			}
		}
		return tx.Materials().Delete(ctx, tenantID, id)
	})
	if err != nil {
		s.logFailure("DeleteMaterial", "delete material", id, err)
	}
	return err
}

// AdjustStock - Apply one ledger entry to a locked material
func (s *MaterialService) AdjustStock(ctx context.Context, tenantID, materialID uuid.UUID, req AdjustStockRequest) (*models.InventoryTransaction, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Quantity.IsZero() {
		return nil, models.NewValidationError("quantity", "must not be zero")
	}

	var txn *models.InventoryTransaction
	err := s.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		material, err := tx.Materials().FindForUpdate(ctx, tenantID, materialID)
		if err != nil {
			return err
		}
		txn, err = applyStockChange(ctx, tx, material, ledgerEntry{
			Type:      req.Type,
			Quantity:  req.Quantity,
			Reason:    req.Reason,
			Notes:     req.Notes,
			UserID:    req.UserID,
			Reference: req.Reference,
		})
		return err
	})
	if err != nil {
		s.logFailure("AdjustStock", "adjust stock", logrus.Fields{
			"tenant_id":   tenantID,
			"material_id": materialID,
			"type":        req.Type,
			"quantity":    req.Quantity.String(),
		}, err)
		return nil, err
	}

	loggerOr(s.Logger).WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"material_id": materialID,
		"change":      txn.QuantityChange.String(),
		"after":       txn.QuantityAfter.String(),
	}).Info("stock adjusted")
	return txn, nil
}

// ListTransactions - Get the ledger of one material, newest first
func (s *MaterialService) ListTransactions(ctx context.Context, tenantID, materialID uuid.UUID, f repositories.TransactionFilter) ([]models.InventoryTransaction, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}
	if _, err := s.Store.Materials().FindByID(ctx, tenantID, materialID); err != nil {
		return nil, 0, err
	}
	return s.Store.Transactions().ListByMaterial(ctx, tenantID, materialID, f)
}

// TransactionsByReference - Get every ledger row caused by one entity
func (s *MaterialService) TransactionsByReference(ctx context.Context, tenantID uuid.UUID, ref models.Reference) ([]models.InventoryTransaction, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if ref.IsNone() {
		return nil, models.NewValidationError("reference_type", "is required")
	}
	return s.Store.Transactions().ListByReference(ctx, tenantID, ref)
}

// ExportTransactions - Write the filtered ledger of a material as a spreadsheet
func (s *MaterialService) ExportTransactions(ctx context.Context, tenantID, materialID uuid.UUID, f repositories.TransactionFilter, w io.Writer) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	material, err := s.Store.Materials().FindByID(ctx, tenantID, materialID)
	if err != nil {
		return err
	}

	rows := make([]models.InventoryTransaction, 0)
	f.Limit = repositories.MaxPageSize
	for f.Page = 1; ; f.Page++ {
		page, total, err := s.Store.Transactions().ListByMaterial(ctx, tenantID, materialID, f)
		if err != nil {
			return err
		}
		rows = append(rows, page...)
		if len(page) == 0 || int64(len(rows)) >= total {
			break
		}
	}
	return exports.WriteTransactionsXLSX(w, *material, rows)
}

// ============ PRIVATE HELPERS ============
func (s *MaterialService) logFailure(funcName, context string, data any, err error) {
	logFailure(s.Logger, "MaterialService", funcName, context, data, err)
}
