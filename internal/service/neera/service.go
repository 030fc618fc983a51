package neera

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

// Store is the persistence the collection ledger needs.
type Store interface {
	InsertCollection(ctx context.Context, rec *models.CollectionRecord) error
	ListCollections(ctx context.Context) ([]models.CollectionRecord, error)
	GetCollection(ctx context.Context, id string) (*models.CollectionRecord, error)
	UpdateCollection(ctx context.Context, id string, set map[string]any) (*models.CollectionRecord, error)
	DeleteCollection(ctx context.Context, id string) error
}

// Service records raw neera intake.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new collection ledger.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create validates and stores a collection record. A reused batchId fails
// with DuplicateKey.
func (s *Service) Create(ctx context.Context, in models.CollectionInput) (*models.CollectionRecord, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	rec, err := in.Record(s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertCollection(ctx, &rec); err != nil {
		if errs.IsKind(err, errs.KindDuplicateKey) {
			return nil, errs.DuplicateKey("a neera collection with batch ID %q already exists", in.BatchID)
		}
		return nil, err
	}

	s.logger.Info("neera collection recorded",
		zap.String("id", rec.ID),
		zap.String("batch_id", rec.BatchID),
		zap.Float64("liters", rec.QuantityLiters))
	return &rec, nil
}

// List returns all records, newest collection date first.
func (s *Service) List(ctx context.Context) ([]models.CollectionRecord, error) {
	return s.store.ListCollections(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.CollectionRecord, error) {
	return s.store.GetCollection(ctx, id)
}

// Update applies a partial edit.
func (s *Service) Update(ctx context.Context, id string, patch models.CollectionPatch) (*models.CollectionRecord, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}
	set, err := patch.Updates()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return s.store.GetCollection(ctx, id)
	}
	return s.store.UpdateCollection(ctx, id, set)
}

// UpdateStatus moves a record to one of the canonical statuses.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*models.CollectionRecord, error) {
	set, err := models.StatusUpdates(status)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.UpdateCollection(ctx, id, set)
	if err != nil {
		return nil, err
	}
	s.logger.Info("neera status updated", zap.String("id", id), zap.String("status", status))
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCollection(ctx, id); err != nil {
		return err
	}
	s.logger.Info("neera collection deleted", zap.String("id", id))
	return nil
}
