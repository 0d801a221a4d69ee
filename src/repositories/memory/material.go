package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

type materialRepo struct {
	s *Store
}

func (r *materialRepo) live(tenantID, id uuid.UUID) (models.Material, bool) {
	m, ok := r.s.state.materials[id]
	if !ok || m.TenantID != tenantID || m.DeletedAt.Valid {
		return models.Material{}, false
	}
	return m, true
}

func (r *materialRepo) skuTaken(m *models.Material) bool {
	for _, other := range r.s.state.materials {
		if other.ID != m.ID && other.TenantID == m.TenantID && other.SKU == m.SKU && !other.DeletedAt.Valid {
			return true
		}
	}
	return false
}

func (r *materialRepo) Create(_ context.Context, m *models.Material) error {
	defer r.s.lock()()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if r.skuTaken(m) {
		return models.NewValidationError("sku", "already exists")
	}
	now := r.s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	roundMaterial(m)
	r.s.state.materials[m.ID] = *m
	return nil
}

func (r *materialRepo) Update(_ context.Context, m *models.Material) error {
	defer r.s.lock()()
	current, ok := r.live(m.TenantID, m.ID)
	if !ok {
		return models.ErrNotFound
	}
	if r.skuTaken(m) {
		return models.NewValidationError("sku", "already exists")
	}
	current.Name = m.Name
	current.SKU = m.SKU
	current.Category = m.Category
	current.Unit = m.Unit
	current.ReorderLevel = m.ReorderLevel
	current.UnitCost = m.UnitCost
	current.UpdatedAt = r.s.now()
	roundMaterial(&current)
	r.s.state.materials[m.ID] = current
	return nil
}

func (r *materialRepo) UpdateStock(_ context.Context, m *models.Material) error {
	defer r.s.lock()()
	current, ok := r.live(m.TenantID, m.ID)
	if !ok {
		return models.ErrNotFound
	}
	current.StockQuantity = models.RoundQuantity(m.StockQuantity)
	current.UpdatedAt = r.s.now()
	r.s.state.materials[m.ID] = current
	return nil
}

func (r *materialRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	defer r.s.lock()()
	m, ok := r.live(tenantID, id)
	if !ok {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

// FindForUpdate relies on the transaction mutex for exclusion.
func (r *materialRepo) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *materialRepo) List(_ context.Context, tenantID uuid.UUID, f repositories.MaterialFilter) ([]models.Material, int64, error) {
	defer r.s.lock()()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	rows := make([]models.Material, 0)
	for _, m := range r.s.state.materials {
		if m.TenantID != tenantID || m.DeletedAt.Valid {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.SKU), search) {
			continue
		}
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.LowStockOnly && !m.IsLowStock() {
			continue
		}
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	return paginate(rows, f.Page, f.Limit), int64(len(rows)), nil
}

func (r *materialRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	defer r.s.lock()()
	m, ok := r.live(tenantID, id)
	if !ok {
		return models.ErrNotFound
	}
	m.DeletedAt = gorm.DeletedAt{Time: r.s.now(), Valid: true}
	r.s.state.materials[id] = m
	return nil
}
