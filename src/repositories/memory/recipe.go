package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

type recipeRepo struct {
	s *Store
}

func (r *recipeRepo) live(tenantID, id uuid.UUID) (models.Recipe, bool) {
	rec, ok := r.s.state.recipes[id]
	if !ok || rec.TenantID != tenantID || rec.DeletedAt.Valid {
		return models.Recipe{}, false
	}
	return rec, true
}

// withComponents attaches components in position order, each carrying a
// copy of its live material.
func (r *recipeRepo) withComponents(rec models.Recipe) models.Recipe {
	comps := make([]models.RecipeComponent, 0)
	for _, c := range r.s.state.components {
		if c.RecipeID != rec.ID {
			continue
		}
		if m, ok := r.s.state.materials[c.MaterialID]; ok && !m.DeletedAt.Valid {
			mat := m
			c.Material = &mat
		} else {
			c.Material = nil
		}
		comps = append(comps, c)
	}
	sort.SliceStable(comps, func(i, j int) bool {
		if comps[i].Position != comps[j].Position {
			return comps[i].Position < comps[j].Position
		}
		return comps[i].CreatedAt.Before(comps[j].CreatedAt)
	})
	rec.Components = comps
	return rec
}

func (r *recipeRepo) Create(ctx context.Context, rec *models.Recipe) error {
	defer r.s.lock()()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := r.s.now()
	rec.CreatedAt, rec.UpdatedAt = now, now

	header := *rec
	header.Components = nil
	r.s.state.recipes[rec.ID] = header

	for i := range rec.Components {
		c := &rec.Components[i]
		c.RecipeID = rec.ID
		c.TenantID = rec.TenantID
		r.insertComponent(c)
	}
	return nil
}

func (r *recipeRepo) insertComponent(c *models.RecipeComponent) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Material = nil
	r.s.state.components[c.ID] = stored
}

func (r *recipeRepo) Update(_ context.Context, rec *models.Recipe) error {
	defer r.s.lock()()
	current, ok := r.live(rec.TenantID, rec.ID)
	if !ok {
		return models.ErrNotFound
	}
	current.Name = rec.Name
	current.YieldQuantity = rec.YieldQuantity
	current.Notes = rec.Notes
	current.UpdatedAt = r.s.now()
	r.s.state.recipes[rec.ID] = current
	return nil
}

func (r *recipeRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*models.Recipe, error) {
	defer r.s.lock()()
	rec, ok := r.live(tenantID, id)
	if !ok {
		return nil, models.ErrNotFound
	}
	full := r.withComponents(rec)
	return &full, nil
}

// FindForShare relies on the transaction mutex for exclusion.
func (r *recipeRepo) FindForShare(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *recipeRepo) FindActiveByProduct(_ context.Context, tenantID, productID uuid.UUID) (*models.Recipe, error) {
	defer r.s.lock()()
	for _, rec := range r.s.state.recipes {
		if rec.TenantID == tenantID && rec.ProductID == productID && rec.IsActive && !rec.DeletedAt.Valid {
			full := r.withComponents(rec)
			return &full, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *recipeRepo) List(_ context.Context, tenantID uuid.UUID, f repositories.RecipeFilter) ([]models.Recipe, int64, error) {
	defer r.s.lock()()
	rows := make([]models.Recipe, 0)
	for _, rec := range r.s.state.recipes {
		if rec.TenantID != tenantID || rec.DeletedAt.Valid {
			continue
		}
		if f.ProductID != nil && rec.ProductID != *f.ProductID {
			continue
		}
		if f.ActiveOnly && !rec.IsActive {
			continue
		}
		rows = append(rows, rec)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	return paginate(rows, f.Page, f.Limit), int64(len(rows)), nil
}

func (r *recipeRepo) SetActive(_ context.Context, tenantID, id uuid.UUID, active bool) error {
	defer r.s.lock()()
	rec, ok := r.live(tenantID, id)
	if !ok {
		return models.ErrNotFound
	}
	rec.IsActive = active
	rec.UpdatedAt = r.s.now()
	r.s.state.recipes[id] = rec
	return nil
}

func (r *recipeRepo) DeactivateSiblings(_ context.Context, tenantID, productID, exceptID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, rec := range r.s.state.recipes {
		if id == exceptID || rec.TenantID != tenantID || rec.ProductID != productID ||
			!rec.IsActive || rec.DeletedAt.Valid {
			continue
		}
		rec.IsActive = false
		rec.UpdatedAt = r.s.now()
		r.s.state.recipes[id] = rec
		n++
	}
	return n, nil
}

func (r *recipeRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	defer r.s.lock()()
	rec, ok := r.live(tenantID, id)
	if !ok {
		return models.ErrNotFound
	}
	for cid, c := range r.s.state.components {
		if c.RecipeID == id {
			delete(r.s.state.components, cid)
		}
	}
	rec.DeletedAt = gorm.DeletedAt{Time: r.s.now(), Valid: true}
	r.s.state.recipes[id] = rec
	return nil
}

func (r *recipeRepo) CountActiveUsingMaterial(_ context.Context, tenantID, materialID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	seen := map[uuid.UUID]bool{}
	for _, c := range r.s.state.components {
		if c.TenantID != tenantID || c.MaterialID != materialID {
			continue
		}
		rec, ok := r.live(tenantID, c.RecipeID)
		if ok && rec.IsActive {
			seen[rec.ID] = true
		}
	}
	return int64(len(seen)), nil
}

func (r *recipeRepo) AddComponent(_ context.Context, c *models.RecipeComponent) error {
	defer r.s.lock()()
	if _, ok := r.live(c.TenantID, c.RecipeID); !ok {
		return models.ErrNotFound
	}
	r.insertComponent(c)
	return nil
}

func (r *recipeRepo) FindComponent(_ context.Context, tenantID, recipeID, componentID uuid.UUID) (*models.RecipeComponent, error) {
	defer r.s.lock()()
	c, ok := r.s.state.components[componentID]
	if !ok || c.TenantID != tenantID || c.RecipeID != recipeID {
		return nil, models.ErrNotFound
	}
	if m, ok := r.s.state.materials[c.MaterialID]; ok && !m.DeletedAt.Valid {
		c.Material = &m
	}
	return &c, nil
}

func (r *recipeRepo) UpdateComponent(_ context.Context, c *models.RecipeComponent) error {
	defer r.s.lock()()
	current, ok := r.s.state.components[c.ID]
	if !ok || current.TenantID != c.TenantID || current.RecipeID != c.RecipeID {
		return models.ErrNotFound
	}
	current.MaterialID = c.MaterialID
	current.QuantityRequired = c.QuantityRequired
	current.WastePercentage = c.WastePercentage
	current.Notes = c.Notes
	current.UpdatedAt = r.s.now()
	r.s.state.components[c.ID] = current
	return nil
}

func (r *recipeRepo) DeleteComponent(_ context.Context, tenantID, recipeID, componentID uuid.UUID) error {
	defer r.s.lock()()
	c, ok := r.s.state.components[componentID]
	if !ok || c.TenantID != tenantID || c.RecipeID != recipeID {
		return models.ErrNotFound
	}
	delete(r.s.state.components, componentID)
	return nil
}

func (r *recipeRepo) NextComponentPosition(_ context.Context, tenantID, recipeID uuid.UUID) (int, error) {
	defer r.s.lock()()
	next := 0
	for _, c := range r.s.state.components {
		if c.TenantID == tenantID && c.RecipeID == recipeID && c.Position >= next {
			next = c.Position + 1
		}
	}
	return next, nil
}
