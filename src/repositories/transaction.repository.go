package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-recipe-engine/src/models"
)

type TransactionRepository struct {
	DB *gorm.DB
}

// Create - Append one ledger row
func (r *TransactionRepository) Create(ctx context.Context, t *models.InventoryTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(t).Error
	return translateError("create inventory transaction", err)
}

// ListByMaterial - Get ledger rows of a material, newest first
func (r *TransactionRepository) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, f TransactionFilter) ([]models.InventoryTransaction, int64, error) {
	var transactions []models.InventoryTransaction
	var total int64

	query := r.DB.WithContext(ctx).Model(&models.InventoryTransaction{}).
		Where("tenant_id = ? AND material_id = ?", tenantID, materialID)

	if !f.FromDate.IsZero() {
		query = query.Where("created_at >= ?", f.FromDate)
	}
	if !f.ToDate.IsZero() {
		query = query.Where("created_at <= ?", f.ToDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count inventory transactions", err)
	}

	_, limit, offset := Paging(f.Page, f.Limit)
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, translateError("list inventory transactions", err)
	}

	return transactions, total, nil
}

// ListByReference - Get every ledger row stamped with a reference
func (r *TransactionRepository) ListByReference(ctx context.Context, tenantID uuid.UUID, ref models.Reference) ([]models.InventoryTransaction, error) {
	var transactions []models.InventoryTransaction
	if ref.IsNone() || ref.EntityID == nil {
		return transactions, nil
	}
	err := r.DB.WithContext(ctx).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, ref.Type, *ref.EntityID).
		Order("created_at ASC, id ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, translateError("list inventory transactions by reference", err)
	}
	return transactions, nil
}
