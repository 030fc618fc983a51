package memory

import (
	"context"
	"slices"
	"time"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

func copyBatch(b models.ProcessingBatch) models.ProcessingBatch {
	b.StageLogs = append([]models.StageLogEntry{}, b.StageLogs...)
	return b
}

func (s *Store) InsertBatch(_ context.Context, batch *models.ProcessingBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.batches {
		if r.doc.BatchID == batch.BatchID {
			return duplicate("processing batch", "batchId", batch.BatchID)
		}
		if r.doc.NeeraRef == batch.NeeraRef {
			return duplicate("processing batch", "neeraRef", batch.NeeraRef)
		}
	}
	if batch.ID == "" {
		batch.ID = newID()
	}
	batch.Normalize()
	s.batches[batch.ID] = row[models.ProcessingBatch]{seq: s.next(), doc: copyBatch(*batch)}
	return nil
}

func (s *Store) ListBatches(_ context.Context) ([]models.BatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := sortedRows(s.batches, newestCreated(func(b models.ProcessingBatch) time.Time { return b.CreatedAt }))
	views := make([]models.BatchView, 0, len(batches))
	for _, b := range batches {
		view := models.BatchView{ProcessingBatch: copyBatch(b)}
		if r, ok := s.neera[b.NeeraRef]; ok {
			neera := r.doc
			view.Neera = &neera
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Store) AllBatches(_ context.Context) ([]models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ProcessingBatch, 0, len(s.batches))
	for _, r := range s.batches {
		out = append(out, copyBatch(r.doc))
	}
	return out, nil
}

func (s *Store) GetBatch(_ context.Context, id string) (*models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.batches[id]
	if !ok {
		return nil, errs.NotFound("processing batch not found")
	}
	b := copyBatch(r.doc)
	return &b, nil
}

func (s *Store) GetBatchByBatchID(_ context.Context, batchID string) (*models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, b, ok := s.findBatch(func(b models.ProcessingBatch) bool { return b.BatchID == batchID })
	if !ok {
		return nil, errs.NotFound("processing batch not found")
	}
	out := copyBatch(b)
	return &out, nil
}

func (s *Store) AppendStageLog(_ context.Context, batchID string, entry models.StageLogEntry, allowedFrom []models.Stage) (*models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBatch(func(b models.ProcessingBatch) bool {
		return b.BatchID == batchID && !b.IsCompleted && slices.Contains(allowedFrom, b.CurrentStage)
	}, func(b *models.ProcessingBatch) {
		b.StageLogs = append(b.StageLogs, entry)
		b.CurrentStage = entry.Stage
		if entry.Stage == models.StagePacking {
			b.StageCompleted = true
		}
	})
}

func (s *Store) MarkCompleted(_ context.Context, batchID string, at time.Time) (*models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBatch(func(b models.ProcessingBatch) bool {
		return b.BatchID == batchID && b.StageCompleted
	}, func(b *models.ProcessingBatch) {
		b.IsCompleted = true
		b.CurrentStage = models.StageCompleted
		b.CompletedAt = &at
	})
}

func (s *Store) SetInventoryStatus(_ context.Context, id string, added bool, at time.Time) (*models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBatch(func(b models.ProcessingBatch) bool {
		return b.ID == id
	}, inventoryFlag(added, at))
}

func (s *Store) ClaimForInventory(_ context.Context, id string, at time.Time) (*models.ProcessingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBatch(func(b models.ProcessingBatch) bool {
		return b.ID == id && b.IsCompleted && !b.AddedToInventory
	}, inventoryFlag(true, at))
}

func (s *Store) ReleaseInventoryClaim(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.updateBatch(func(b models.ProcessingBatch) bool {
		return b.ID == id && b.AddedToInventory
	}, inventoryFlag(false, time.Time{}))
	return err
}

func inventoryFlag(added bool, at time.Time) func(*models.ProcessingBatch) {
	return func(b *models.ProcessingBatch) {
		b.AddedToInventory = added
		if added {
			b.AddedToInventoryAt = &at
		} else {
			b.AddedToInventoryAt = nil
		}
	}
}

func (s *Store) findBatch(match func(models.ProcessingBatch) bool) (string, models.ProcessingBatch, bool) {
	for id, r := range s.batches {
		if match(r.doc) {
			return id, r.doc, true
		}
	}
	return "", models.ProcessingBatch{}, false
}

// updateBatch must be called with s.mu held.
func (s *Store) updateBatch(match func(models.ProcessingBatch) bool, mutate func(*models.ProcessingBatch)) (*models.ProcessingBatch, error) {
	id, b, ok := s.findBatch(match)
	if !ok {
		return nil, errs.NotFound("processing batch not found")
	}
	b = copyBatch(b)
	mutate(&b)
	b.UpdatedAt = s.now()
	r := s.batches[id]
	r.doc = b
	s.batches[id] = r
	out := copyBatch(b)
	return &out, nil
}
