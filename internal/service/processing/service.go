package processing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

// Store is the batch persistence the engine needs. Conditional updates
// (AppendStageLog, MarkCompleted) return NotFound when nothing matched.
type Store interface {
	InsertBatch(ctx context.Context, batch *models.ProcessingBatch) error
	ListBatches(ctx context.Context) ([]models.BatchView, error)
	GetBatch(ctx context.Context, id string) (*models.ProcessingBatch, error)
	GetBatchByBatchID(ctx context.Context, batchID string) (*models.ProcessingBatch, error)
	AppendStageLog(ctx context.Context, batchID string, entry models.StageLogEntry, allowedFrom []models.Stage) (*models.ProcessingBatch, error)
	MarkCompleted(ctx context.Context, batchID string, at time.Time) (*models.ProcessingBatch, error)
	SetInventoryStatus(ctx context.Context, id string, added bool, at time.Time) (*models.ProcessingBatch, error)
}

// Collections resolves and updates the collection record a batch owns.
type Collections interface {
	GetCollection(ctx context.Context, id string) (*models.CollectionRecord, error)
	UpdateCollection(ctx context.Context, id string, set map[string]any) (*models.CollectionRecord, error)
}

// Service drives processing batches through the stage sequence.
type Service struct {
	store       Store
	collections Collections
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires a new processing batch engine.
func NewService(store Store, collections Collections, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, collections: collections, logger: logger, now: time.Now}
}

// CreateBatch opens a batch for an existing collection record. The record
// may be owned by only one batch.
func (s *Service) CreateBatch(ctx context.Context, in models.BatchInput) (*models.ProcessingBatch, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.collections.GetCollection(ctx, in.NeeraRef); err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.NotFound("neera entry %q not found", in.NeeraRef)
		}
		return nil, err
	}

	now := s.now().UTC()
	batch := models.ProcessingBatch{
		BatchID:      in.BatchID,
		NeeraRef:     in.NeeraRef,
		CurrentStage: models.StageInitial,
		StageLogs:    []models.StageLogEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertBatch(ctx, &batch); err != nil {
		if errs.IsKind(err, errs.KindDuplicateKey) {
			return nil, errs.DuplicateKey("batch ID %q is taken or neera entry %q already has a batch", in.BatchID, in.NeeraRef)
		}
		return nil, err
	}

	s.syncCollectionStatus(ctx, in.NeeraRef, models.CollectionProcessing)
	s.logger.Info("processing batch created", zap.String("batch_id", batch.BatchID), zap.String("neera_ref", batch.NeeraRef))
	return &batch, nil
}

// ListBatches returns all batches newest first with their collection
// record resolved.
func (s *Service) ListBatches(ctx context.Context) ([]models.BatchView, error) {
	return s.store.ListBatches(ctx)
}

// AppendStageLog records a stage measurement. The caller is attributed as
// updatedBy, or "system" when anonymous. Logs that would move the batch
// backwards, or that target a completed batch, fail with Conflict.
func (s *Service) AppendStageLog(ctx context.Context, actor models.Actor, batchID string, in models.StageLogInput) (*models.ProcessingBatch, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	entry, err := in.Entry(actor.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	batch, err := s.store.AppendStageLog(ctx, batchID, entry, entry.Stage.Predecessors())
	if err != nil {
		if !errs.IsKind(err, errs.KindNotFound) {
			return nil, err
		}
		return nil, s.explainAppendMiss(ctx, batchID, entry.Stage)
	}

	s.logger.Info("stage log appended",
		zap.String("batch_id", batchID),
		zap.String("stage", string(entry.Stage)),
		zap.String("updated_by", entry.UpdatedBy),
		zap.Int("log_count", len(batch.StageLogs)))
	return batch, nil
}

func (s *Service) explainAppendMiss(ctx context.Context, batchID string, next models.Stage) error {
	current, err := s.store.GetBatchByBatchID(ctx, batchID)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return errs.NotFound("batch %q not found", batchID)
		}
		return err
	}
	if current.IsCompleted {
		return errs.Conflict("batch %q is completed and no longer accepts stage logs", batchID)
	}
	return errs.Conflict("batch %q is at stage %s and cannot move back to %s", batchID, current.CurrentStage, next)
}

// CompleteBatch closes a packed batch. Only managers may complete batches;
// repeating the call refreshes completedAt.
func (s *Service) CompleteBatch(ctx context.Context, actor models.Actor, batchID string) (*models.ProcessingBatch, error) {
	if !actor.IsManager() {
		return nil, errs.Forbidden("only managers can complete batches")
	}

	batch, err := s.store.MarkCompleted(ctx, batchID, s.now().UTC())
	if err != nil {
		if !errs.IsKind(err, errs.KindNotFound) {
			return nil, err
		}
		if _, gerr := s.store.GetBatchByBatchID(ctx, batchID); gerr != nil {
			if errs.IsKind(gerr, errs.KindNotFound) {
				return nil, errs.NotFound("batch %q not found", batchID)
			}
			return nil, gerr
		}
		return nil, errs.Conflict("batch %q has not reached %s", batchID, models.StagePacking)
	}

	s.syncCollectionStatus(ctx, batch.NeeraRef, models.CollectionCompleted)
	s.logger.Info("processing batch completed", zap.String("batch_id", batchID), zap.String("by", actor.ID))
	return batch, nil
}

// SetInventoryStatus sets or clears the converted flag by internal id.
func (s *Service) SetInventoryStatus(ctx context.Context, id string, added bool) (*models.ProcessingBatch, error) {
	batch, err := s.store.SetInventoryStatus(ctx, id, added, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("inventory status updated", zap.String("id", id), zap.Bool("added_to_inventory", added))
	return batch, nil
}

// syncCollectionStatus mirrors batch progress onto the collection record.
// Failures are logged and never fail the batch operation.
func (s *Service) syncCollectionStatus(ctx context.Context, neeraRef string, status models.CollectionStatus) {
	set, _ := models.StatusUpdates(string(status))
	if _, err := s.collections.UpdateCollection(ctx, neeraRef, set); err != nil {
		s.logger.Warn("failed to sync neera status",
			zap.String("neera_ref", neeraRef),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
