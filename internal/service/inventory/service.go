package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

// Store persists inventory records.
type Store interface {
	InsertInventory(ctx context.Context, rec *models.InventoryRecord) error
	ListInventory(ctx context.Context) ([]models.InventoryView, error)
	GetInventory(ctx context.Context, id string) (*models.InventoryView, error)
	UpdateInventory(ctx context.Context, id string, set map[string]any) (*models.InventoryRecord, error)
	DeleteInventory(ctx context.Context, id string) error
}

// Batches exposes the conditional claim on a completed batch. A claim flips
// addedToInventory from false to true and returns NotFound when the batch is
// missing, not completed or already claimed.
type Batches interface {
	GetBatch(ctx context.Context, id string) (*models.ProcessingBatch, error)
	ClaimForInventory(ctx context.Context, id string, at time.Time) (*models.ProcessingBatch, error)
	ReleaseInventoryClaim(ctx context.Context, id string) error
}

// Exporter receives every record created by a conversion.
type Exporter interface {
	ExportInventory(ctx context.Context, rec models.InventoryRecord) error
}

// Service converts completed processing batches into inventory.
type Service struct {
	store    Store
	batches  Batches
	exporter Exporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the inventory conversion service. exporter may be nil.
func NewService(store Store, batches Batches, exporter Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, batches: batches, exporter: exporter, logger: logger, now: time.Now}
}

// NewBatchID suggests an inventory batch id for a processing batch.
func NewBatchID(processingBatchID string) (string, error) {
	processingBatchID = strings.TrimSpace(processingBatchID)
	if processingBatchID == "" {
		return "", errs.ValidationFields("missing required fields: processingBatchId",
			map[string]string{"processingBatchId": "required"})
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV-%s-%s", processingBatchID, suffix), nil
}

// CreateInventory converts a completed batch exactly once. The batch is
// claimed before the record is written; if the write fails the claim is
// released so the conversion can be retried.
func (s *Service) CreateInventory(ctx context.Context, in models.InventoryInput) (*models.InventoryRecord, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec, err := in.Record(now)
	if err != nil {
		return nil, err
	}

	batch, err := s.batches.GetBatch(ctx, in.ProcessingBatchRef)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.NotFound("processing batch %q not found", in.ProcessingBatchRef)
		}
		return nil, err
	}
	if err := convertible(batch); err != nil {
		return nil, err
	}

	if _, err := s.batches.ClaimForInventory(ctx, batch.ID, now); err != nil {
		if !errs.IsKind(err, errs.KindNotFound) {
			return nil, err
		}
		// Lost the race, or the batch changed since the read.
		current, gerr := s.batches.GetBatch(ctx, batch.ID)
		if gerr != nil {
			return nil, gerr
		}
		if cerr := convertible(current); cerr != nil {
			return nil, cerr
		}
		return nil, errs.Conflict("processing batch %q could not be claimed", batch.BatchID)
	}

	if err := s.store.InsertInventory(ctx, &rec); err != nil {
		if rerr := s.batches.ReleaseInventoryClaim(ctx, batch.ID); rerr != nil {
			s.logger.Error("failed to release inventory claim",
				zap.String("processing_batch", batch.ID), zap.Error(rerr))
		}
		if errs.IsKind(err, errs.KindDuplicateKey) {
			return nil, errs.DuplicateKey("inventory batch ID %q already exists", rec.BatchID)
		}
		return nil, err
	}

	s.logger.Info("inventory record created",
		zap.String("batch_id", rec.BatchID),
		zap.String("processing_batch", batch.BatchID),
		zap.Float64("net_weight_kg", rec.NetWeightKg))
	s.export(ctx, rec)
	return &rec, nil
}

func convertible(batch *models.ProcessingBatch) error {
	if batch.AddedToInventory {
		return errs.Conflict("processing batch %q is already added to inventory", batch.BatchID)
	}
	if !batch.IsCompleted {
		return errs.Conflict("processing batch %q is not completed", batch.BatchID)
	}
	return nil
}

func (s *Service) export(ctx context.Context, rec models.InventoryRecord) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.ExportInventory(ctx, rec); err != nil {
		s.logger.Warn("inventory export failed", zap.String("batch_id", rec.BatchID), zap.Error(err))
	}
}

// List returns every record newest first with its processing batch.
func (s *Service) List(ctx context.Context) ([]models.InventoryView, error) {
	return s.store.ListInventory(ctx)
}

// Get returns one record with its processing batch.
func (s *Service) Get(ctx context.Context, id string) (*models.InventoryView, error) {
	return s.store.GetInventory(ctx, id)
}

// Update applies a partial edit. The owning batch never changes.
func (s *Service) Update(ctx context.Context, id string, patch models.InventoryPatch) (*models.InventoryRecord, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}
	set, err := patch.Updates()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		view, err := s.store.GetInventory(ctx, id)
		if err != nil {
			return nil, err
		}
		return &view.InventoryRecord, nil
	}
	rec, err := s.store.UpdateInventory(ctx, id, set)
	if err != nil {
		return nil, err
	}
	s.logger.Info("inventory record updated", zap.String("id", id), zap.Int("fields", len(set)))
	return rec, nil
}

// Delete removes a record. The batch stays flagged as converted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteInventory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("inventory record deleted", zap.String("id", id))
	return nil
}
