package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-recipe-engine/src/models"
)

type RecipeRepository struct {
	DB *gorm.DB
}

func orderedComponents(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

// Create - Insert recipe header, then its components in definition order
func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	db := r.DB.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(recipe).Error; err != nil {
		return translateError("create recipe", err)
	}
	for i := range recipe.Components {
		c := &recipe.Components[i]
		c.RecipeID = recipe.ID
		c.TenantID = recipe.TenantID
		if err := r.AddComponent(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Update - Save recipe header fields
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("tenant_id = ? AND id = ?", recipe.TenantID, recipe.ID).
		Updates(map[string]interface{}{
			"name":           recipe.Name,
			"yield_quantity": recipe.YieldQuantity,
			"notes":          recipe.Notes,
		})
	if result.Error != nil {
		return translateError("update recipe", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FindByID - Get recipe with components and their materials
func (r *RecipeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.DB.WithContext(ctx).
		Preload("Components", orderedComponents).
		Preload("Components.Material").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&recipe).Error
	if err != nil {
		return nil, translateError("find recipe", err)
	}
	return &recipe, nil
}

// FindForShare - Get recipe like FindByID under SELECT ... FOR SHARE
func (r *RecipeRepository) FindForShare(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Preload("Components", orderedComponents).
		Preload("Components.Material").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&recipe).Error
	if err != nil {
		return nil, translateError("lock recipe", err)
	}
	return &recipe, nil
}

// FindActiveByProduct - Get the active recipe of a product
func (r *RecipeRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.DB.WithContext(ctx).
		Preload("Components", orderedComponents).
		Preload("Components.Material").
		Where("tenant_id = ? AND product_id = ? AND is_active = ?", tenantID, productID, true).
		First(&recipe).Error
	if err != nil {
		return nil, translateError("find active recipe", err)
	}
	return &recipe, nil
}

// List - Get recipe headers with pagination
func (r *RecipeRepository) List(ctx context.Context, tenantID uuid.UUID, f RecipeFilter) ([]models.Recipe, int64, error) {
	var recipes []models.Recipe
	var total int64

	query := r.DB.WithContext(ctx).Model(&models.Recipe{}).
		Where("tenant_id = ?", tenantID)
	if f.ProductID != nil {
		query = query.Where("product_id = ?", *f.ProductID)
	}
	if f.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count recipes", err)
	}

	_, limit, offset := Paging(f.Page, f.Limit)
	err := query.
		Order("name ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, translateError("list recipes", err)
	}
	return recipes, total, nil
}

// SetActive - Flip the active flag of one recipe
func (r *RecipeRepository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("is_active", active)
	if result.Error != nil {
		return translateError("set recipe active", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeactivateSiblings - Deactivate every other active recipe of the product
func (r *RecipeRepository) DeactivateSiblings(ctx context.Context, tenantID, productID, exceptID uuid.UUID) (int64, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("tenant_id = ? AND product_id = ? AND id <> ? AND is_active = ?", tenantID, productID, exceptID, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, translateError("deactivate sibling recipes", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete - Remove components and soft delete the recipe
func (r *RecipeRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("tenant_id = ? AND recipe_id = ?", tenantID, id).
		Delete(&models.RecipeComponent{}).Error; err != nil {
		return translateError("delete recipe components", err)
	}
	result := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.Recipe{})
	if result.Error != nil {
		return translateError("delete recipe", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountActiveUsingMaterial - Count active recipes with a component on the material
func (r *RecipeRepository) CountActiveUsingMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.Recipe{}).
		Joins("JOIN recipe_components ON recipe_components.recipe_id = recipes.id").
		Where("recipes.tenant_id = ? AND recipes.is_active = ? AND recipe_components.material_id = ?",
			tenantID, true, materialID).
		Distinct("recipes.id").
		Count(&count).Error
	return count, translateError("count recipes using material", err)
}

// AddComponent - Insert one component
func (r *RecipeRepository) AddComponent(ctx context.Context, c *models.RecipeComponent) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(c).Error
	return translateError("add recipe component", err)
}

// FindComponent - Get one component of a recipe
func (r *RecipeRepository) FindComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID) (*models.RecipeComponent, error) {
	var component models.RecipeComponent
	err := r.DB.WithContext(ctx).
		Preload("Material").
		Where("tenant_id = ? AND recipe_id = ? AND id = ?", tenantID, recipeID, componentID).
		First(&component).Error
	if err != nil {
		return nil, translateError("find recipe component", err)
	}
	return &component, nil
}

// UpdateComponent - Save quantity, waste, material and notes
func (r *RecipeRepository) UpdateComponent(ctx context.Context, c *models.RecipeComponent) error {
	result := r.DB.WithContext(ctx).
		Model(&models.RecipeComponent{}).
		Where("tenant_id = ? AND recipe_id = ? AND id = ?", c.TenantID, c.RecipeID, c.ID).
		Updates(map[string]interface{}{
			"material_id":       c.MaterialID,
			"quantity_required": c.QuantityRequired,
			"waste_percentage":  c.WastePercentage,
			"notes":             c.Notes,
		})
	if result.Error != nil {
		return translateError("update recipe component", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteComponent - Remove one component
func (r *RecipeRepository) DeleteComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID) error {
	result := r.DB.WithContext(ctx).
		Where("tenant_id = ? AND recipe_id = ? AND id = ?", tenantID, recipeID, componentID).
		Delete(&models.RecipeComponent{})
	if result.Error != nil {
		return translateError("delete recipe component", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// NextComponentPosition - Position after the last component
func (r *RecipeRepository) NextComponentPosition(ctx context.Context, tenantID, recipeID uuid.UUID) (int, error) {
	var maxPos *int
	err := r.DB.WithContext(ctx).
		Model(&models.RecipeComponent{}).
		Select("MAX(position)").
		Where("tenant_id = ? AND recipe_id = ?", tenantID, recipeID).
		Scan(&maxPos).Error
	if err != nil {
		return 0, translateError("next component position", err)
	}
	if maxPos == nil {
		return 0, nil
	}
	return *maxPos + 1, nil
}
