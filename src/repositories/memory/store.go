// Package memory keeps every repository contract in process maps. A
// transaction holds the store mutex for its whole duration and restores a
// snapshot when its callback fails, which gives the same all-or-nothing and
// serialisation guarantees the PostgreSQL store gets from row locks.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

type state struct {
	materials    map[uuid.UUID]models.Material
	recipes      map[uuid.UUID]models.Recipe
	components   map[uuid.UUID]models.RecipeComponent
	transactions []models.InventoryTransaction
}

func newState() *state {
	return &state{
		materials:  map[uuid.UUID]models.Material{},
		recipes:    map[uuid.UUID]models.Recipe{},
		components: map[uuid.UUID]models.RecipeComponent{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.materials {
		c.materials[k] = v
	}
	for k, v := range s.recipes {
		c.recipes[k] = v
	}
	for k, v := range s.components {
		c.components[k] = v
	}
	c.transactions = append([]models.InventoryTransaction(nil), s.transactions...)
	return c
}

type Store struct {
	mu    *sync.Mutex
	state *state
	inTx  bool
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, state: newState(), now: time.Now}
}

// lock is a no-op inside a transaction, which already holds the mutex.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Materials() repositories.Materials {
	return &materialRepo{s}
}

func (s *Store) Recipes() repositories.Recipes {
	return &recipeRepo{s}
}

func (s *Store) Transactions() repositories.Transactions {
	return &transactionRepo{s}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &Store{mu: s.mu, state: s.state, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

// Quantities are kept at the scale of the numeric(18,4) columns.
func roundMaterial(m *models.Material) {
	m.StockQuantity = models.RoundQuantity(m.StockQuantity)
	m.ReorderLevel = models.RoundQuantity(m.ReorderLevel)
	m.UnitCost = models.RoundQuantity(m.UnitCost)
}

func roundTransaction(t *models.InventoryTransaction) {
	t.QuantityBefore = models.RoundQuantity(t.QuantityBefore)
	t.QuantityChange = models.RoundQuantity(t.QuantityChange)
	t.QuantityAfter = models.RoundQuantity(t.QuantityAfter)
}

func paginate[T any](rows []T, page, limit int) []T {
	_, limit, offset := repositories.Paging(page, limit)
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
