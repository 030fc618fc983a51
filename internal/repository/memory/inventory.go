package memory

import (
	"context"
	"time"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

func (s *Store) InsertInventory(_ context.Context, rec *models.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.inventory {
		if r.doc.BatchID == rec.BatchID {
			return duplicate("inventory record", "batchId", rec.BatchID)
		}
		if r.doc.ProcessingBatchRef == rec.ProcessingBatchRef {
			return duplicate("inventory record", "processingBatchRef", rec.ProcessingBatchRef)
		}
	}
	if rec.ID == "" {
		rec.ID = newID()
	}
	s.inventory[rec.ID] = row[models.InventoryRecord]{seq: s.next(), doc: *rec}
	return nil
}

func (s *Store) ListInventory(_ context.Context) ([]models.InventoryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := sortedRows(s.inventory, newestCreated(func(r models.InventoryRecord) time.Time { return r.CreatedAt }))
	views := make([]models.InventoryView, 0, len(records))
	for _, rec := range records {
		views = append(views, s.inventoryView(rec))
	}
	return views, nil
}

func (s *Store) AllInventory(_ context.Context) ([]models.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.InventoryRecord, 0, len(s.inventory))
	for _, r := range s.inventory {
		out = append(out, r.doc)
	}
	return out, nil
}

func (s *Store) GetInventory(_ context.Context, id string) (*models.InventoryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.inventory[id]
	if !ok {
		return nil, errs.NotFound("inventory record not found")
	}
	view := s.inventoryView(r.doc)
	return &view, nil
}

func (s *Store) UpdateInventory(_ context.Context, id string, set map[string]any) (*models.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.inventory[id]
	if !ok {
		return nil, errs.NotFound("inventory record not found")
	}
	if batchID, ok := set["batchId"].(string); ok {
		for otherID, other := range s.inventory {
			if otherID != id && other.doc.BatchID == batchID {
				return nil, duplicate("inventory record", "batchId", batchID)
			}
		}
	}
	doc, err := applySet(r.doc, withUpdatedAt(set, s.now()))
	if err != nil {
		return nil, err
	}
	r.doc = doc
	s.inventory[id] = r
	return &doc, nil
}

func (s *Store) DeleteInventory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inventory[id]; !ok {
		return errs.NotFound("inventory record not found")
	}
	delete(s.inventory, id)
	return nil
}

// inventoryView must be called with s.mu held.
func (s *Store) inventoryView(rec models.InventoryRecord) models.InventoryView {
	view := models.InventoryView{InventoryRecord: rec}
	if r, ok := s.batches[rec.ProcessingBatchRef]; ok {
		b := copyBatch(r.doc)
		view.ProcessingBatch = &b
	}
	return view
}
