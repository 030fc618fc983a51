package sheets

import (
	"context"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const inventoryRange = "Inventory!A:I"

// InventoryExporter writes one row per converted batch.
type InventoryExporter struct {
	repo Repository
}

// NewInventoryExporter wraps repo.
func NewInventoryExporter(repo Repository) *InventoryExporter {
	return &InventoryExporter{repo: repo}
}

// ExportInventory appends rec to the Inventory sheet. Columns: created
// date, batch id, product, net kg, units, packaging, location, grade,
// expiry.
func (e *InventoryExporter) ExportInventory(ctx context.Context, rec models.InventoryRecord) error {
	expiry := ""
	if rec.ExpirationDate != nil {
		expiry = rec.ExpirationDate.Format("2006-01-02")
	}
	return e.repo.WriteRow(ctx, inventoryRange, []interface{}{
		rec.CreatedAt.Format("2006-01-02"),
		rec.BatchID,
		string(rec.ProductType),
		rec.NetWeightKg,
		rec.UnitsPacked,
		rec.PackagingType,
		rec.StorageLocation,
		rec.QualityGrade,
		expiry,
	})
}
