package memory

import (
	"context"

	"github.com/google/uuid"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) Create(_ context.Context, t *models.InventoryTransaction) error {
	defer r.s.lock()()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = r.s.now()
	roundTransaction(t)
	stored := *t
	stored.Material = nil
	r.s.state.transactions = append(r.s.state.transactions, stored)
	return nil
}

// ListByMaterial returns newest first, the same order as the SQL store.
func (r *transactionRepo) ListByMaterial(_ context.Context, tenantID, materialID uuid.UUID, f repositories.TransactionFilter) ([]models.InventoryTransaction, int64, error) {
	defer r.s.lock()()
	rows := make([]models.InventoryTransaction, 0)
	txs := r.s.state.transactions
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		if t.TenantID != tenantID || t.MaterialID != materialID {
			continue
		}
		if !f.FromDate.IsZero() && t.CreatedAt.Before(f.FromDate) {
			continue
		}
		if !f.ToDate.IsZero() && t.CreatedAt.After(f.ToDate) {
			continue
		}
		rows = append(rows, t)
	}
	return paginate(rows, f.Page, f.Limit), int64(len(rows)), nil
}

func (r *transactionRepo) ListByReference(_ context.Context, tenantID uuid.UUID, ref models.Reference) ([]models.InventoryTransaction, error) {
	defer r.s.lock()()
	rows := make([]models.InventoryTransaction, 0)
	if ref.IsNone() || ref.EntityID == nil {
		return rows, nil
	}
	for _, t := range r.s.state.transactions {
		if t.TenantID != tenantID || t.Reference.Type != ref.Type ||
			t.Reference.EntityID == nil || *t.Reference.EntityID != *ref.EntityID {
			continue
		}
		rows = append(rows, t)
	}
	return rows, nil
}
