package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pos-recipe-engine/src/models"
)

const (
	defaultPageLimit = 50
	MaxPageSize      = 200
)

// ============ FILTERS ============
type MaterialFilter struct {
	Search       string
	Category     string
	LowStockOnly bool
	Page         int
	Limit        int
}

type RecipeFilter struct {
	ProductID  *uuid.UUID
	ActiveOnly bool
	Page       int
	Limit      int
}

type TransactionFilter struct {
	FromDate time.Time
	ToDate   time.Time
	Page     int
	Limit    int
}

// Paging normalises page/limit and returns the offset to apply.
func Paging(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}

// ============ CONTRACTS ============
// Every method takes the tenant id explicitly and never returns rows of
// another tenant. Lookups that match nothing return models.ErrNotFound.

type Materials interface {
	Create(ctx context.Context, m *models.Material) error
	Update(ctx context.Context, m *models.Material) error
	UpdateStock(ctx context.Context, m *models.Material) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error)
	// FindForUpdate locks the row until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error)
	List(ctx context.Context, tenantID uuid.UUID, f MaterialFilter) ([]models.Material, int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type Recipes interface {
	// Create inserts the recipe and its components.
	Create(ctx context.Context, r *models.Recipe) error
	Update(ctx context.Context, r *models.Recipe) error
	// FindByID loads components in position order with their materials.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error)
	// FindForShare is FindByID plus a share lock on the recipe row, which
	// holds off activation changes until the surrounding transaction ends.
	FindForShare(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error)
	FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Recipe, error)
	List(ctx context.Context, tenantID uuid.UUID, f RecipeFilter) ([]models.Recipe, int64, error)
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error
	DeactivateSiblings(ctx context.Context, tenantID, productID, exceptID uuid.UUID) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	CountActiveUsingMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error)

	AddComponent(ctx context.Context, c *models.RecipeComponent) error
	FindComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID) (*models.RecipeComponent, error)
	UpdateComponent(ctx context.Context, c *models.RecipeComponent) error
	DeleteComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID) error
	NextComponentPosition(ctx context.Context, tenantID, recipeID uuid.UUID) (int, error)
}

// Transactions is append-only.
type Transactions interface {
	Create(ctx context.Context, t *models.InventoryTransaction) error
	ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, f TransactionFilter) ([]models.InventoryTransaction, int64, error)
	ListByReference(ctx context.Context, tenantID uuid.UUID, ref models.Reference) ([]models.InventoryTransaction, error)
}

type Store interface {
	Materials() Materials
	Recipes() Recipes
	Transactions() Transactions
	// WithinTransaction runs fn in one unit of work. Any error returned by fn
	// discards every write fn made.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}
