package exports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pos-recipe-engine/src/models"
)

const ledgerSheet = "Sheet1"

var ledgerHeadings = []interface{}{
	"Date", "Type", "Reason", "Before", "Change", "After", "Unit", "Reference", "User", "Notes",
}

// WriteTransactionsXLSX writes one row per ledger entry under a heading row,
// with the material named in the first rows.
func WriteTransactionsXLSX(w io.Writer, material models.Material, txs []models.InventoryTransaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(ledgerSheet, "A1", &[]interface{}{"Material", material.Name, "SKU", material.SKU}); err != nil {
		return err
	}
	if err := f.SetSheetRow(ledgerSheet, "A2", &[]interface{}{"Current stock", material.StockQuantity.InexactFloat64(), "Unit", material.Unit}); err != nil {
		return err
	}
	if err := f.SetSheetRow(ledgerSheet, "A4", &ledgerHeadings); err != nil {
		return err
	}

	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+5)
		if err != nil {
			return err
		}
		row := []interface{}{
			t.CreatedAt.UTC().Format(time.RFC3339),
			string(t.Type),
			string(t.Reason),
			t.QuantityBefore.InexactFloat64(),
			t.QuantityChange.InexactFloat64(),
			t.QuantityAfter.InexactFloat64(),
			material.Unit,
			t.Reference.String(),
			deref(t.UserID),
			derefString(t.Notes),
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write ledger workbook: %w", err)
	}
	return nil
}

func deref[T fmt.Stringer](v *T) string {
	if v == nil {
		return ""
	}
	return (*v).String()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
