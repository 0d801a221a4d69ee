package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-recipe-engine/src/models"
)

type MaterialRepository struct {
	DB *gorm.DB
}

// Create - Insert a new material
func (r *MaterialRepository) Create(ctx context.Context, m *models.Material) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return translateError("create material", r.DB.WithContext(ctx).Create(m).Error)
}

// Update - Save descriptive fields; stock only moves through UpdateStock
func (r *MaterialRepository) Update(ctx context.Context, m *models.Material) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Material{}).
		Where("tenant_id = ? AND id = ?", m.TenantID, m.ID).
		Updates(map[string]interface{}{
			"name":          m.Name,
			"sku":           m.SKU,
			"category":      m.Category,
			"unit":          m.Unit,
			"reorder_level": m.ReorderLevel,
			"unit_cost":     m.UnitCost,
		})
	if result.Error != nil {
		return translateError("update material", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateStock - Persist the stock balance of a locked material
func (r *MaterialRepository) UpdateStock(ctx context.Context, m *models.Material) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Material{}).
		Where("tenant_id = ? AND id = ?", m.TenantID, m.ID).
		Update("stock_quantity", m.StockQuantity)
	if result.Error != nil {
		return translateError("update stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FindByID - Get material by id within tenant
func (r *MaterialRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	err := r.DB.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&material).Error
	if err != nil {
		return nil, translateError("find material", err)
	}
	return &material, nil
}

// FindForUpdate - Get material and hold a row lock (SELECT ... FOR UPDATE)
func (r *MaterialRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&material).Error
	if err != nil {
		return nil, translateError("lock material", err)
	}
	return &material, nil
}

// List - Get materials with pagination
func (r *MaterialRepository) List(ctx context.Context, tenantID uuid.UUID, f MaterialFilter) ([]models.Material, int64, error) {
	var materials []models.Material
	var total int64

	query := r.DB.WithContext(ctx).Model(&models.Material{}).
		Where("tenant_id = ?", tenantID)

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", like, like)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.LowStockOnly {
		query = query.Where("stock_quantity < reorder_level")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count materials", err)
	}

	_, limit, offset := Paging(f.Page, f.Limit)
	err := query.
		Order("name ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&materials).Error
	if err != nil {
		return nil, 0, translateError("list materials", err)
	}

	return materials, total, nil
}

// Delete - Soft delete material
func (r *MaterialRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.DB.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Material{})
	if result.Error != nil {
		return translateError("delete material", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
