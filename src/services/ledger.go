package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

type ledgerEntry struct {
	Type      models.TransactionType
	Quantity  decimal.Decimal
	Reason    models.TransactionReason
	Notes     *string
	UserID    *uuid.UUID
	Reference models.Reference
}

// applyStockChange moves m by one ledger entry inside tx: the new balance
// and the transaction row are written together or not at all. m must already
// be locked by the caller when it came from storage.
func applyStockChange(ctx context.Context, tx repositories.Store, m *models.Material, e ledgerEntry) (*models.InventoryTransaction, error) {
	before, change, after, err := m.ApplyStockChange(e.Type, e.Quantity)
	if err != nil {
		return nil, err
	}
	if err := tx.Materials().UpdateStock(ctx, m); err != nil {
		return nil, err
	}

	txn := &models.InventoryTransaction{
		TenantID:       m.TenantID,
		MaterialID:     m.ID,
		Type:           e.Type,
		QuantityBefore: before,
		QuantityChange: change,
		QuantityAfter:  after,
		Reason:         e.Reason,
		Notes:          e.Notes,
		UserID:         e.UserID,
		Reference:      e.Reference,
	}
	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
