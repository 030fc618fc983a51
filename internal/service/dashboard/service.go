package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

// Source reads the full entity sets the summary is computed over.
type Source interface {
	ListCollections(ctx context.Context) ([]models.CollectionRecord, error)
	AllBatches(ctx context.Context) ([]models.ProcessingBatch, error)
	AllInventory(ctx context.Context) ([]models.InventoryRecord, error)
}

// Cache holds a recently computed summary. Load returns nil on a miss.
type Cache interface {
	Load(ctx context.Context) (*models.Summary, error)
	Store(ctx context.Context, summary models.Summary) error
}

// Snapshots persists summaries taken on a schedule.
type Snapshots interface {
	SaveSnapshot(ctx context.Context, snapshot *models.SummarySnapshot) error
	ListSnapshots(ctx context.Context, limit int) ([]models.SummarySnapshot, error)
}

// Service computes dashboard aggregates.
type Service struct {
	source    Source
	cache     Cache
	snapshots Snapshots
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the dashboard aggregator. cache may be nil.
func NewService(source Source, snapshots Snapshots, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, cache: cache, snapshots: snapshots, logger: logger, now: time.Now}
}

var hundred = decimal.NewFromInt(100)

// Summarize aggregates the three entity sets. Collections in status
// Collected count as pending batches.
func Summarize(neera []models.CollectionRecord, batches []models.ProcessingBatch, inventory []models.InventoryRecord) models.Summary {
	var (
		summary              models.Summary
		liters, out, wastage decimal.Decimal
		sugar                decimal.Decimal
	)
	for _, rec := range neera {
		liters = liters.Add(decimal.NewFromFloat(rec.QuantityLiters))
		if rec.Status == models.CollectionCollected {
			summary.PendingBatches++
		}
	}
	for _, b := range batches {
		summary.TotalBatches++
		if b.IsCompleted {
			summary.CompletedBatches++
		} else {
			summary.ProcessingBatches++
		}
		for _, entry := range b.StageLogs {
			if entry.OutputLiters != nil {
				out = out.Add(decimal.NewFromFloat(*entry.OutputLiters))
			}
			if entry.WastageLiters != nil {
				wastage = wastage.Add(decimal.NewFromFloat(*entry.WastageLiters))
			}
		}
	}
	for _, rec := range inventory {
		sugar = sugar.Add(decimal.NewFromFloat(rec.NetWeightKg))
	}

	summary.TotalNeeraLiters = liters.InexactFloat64()
	summary.TotalOutput = out.InexactFloat64()
	summary.TotalWastage = wastage.InexactFloat64()
	summary.TotalSugarKg = sugar.InexactFloat64()
	summary.WastagePercentage = "0.00"
	if !liters.IsZero() {
		summary.WastagePercentage = wastage.Div(liters).Mul(hundred).StringFixed(2)
	}
	return summary
}

// ComputeSummary recomputes the summary, serving a cached copy when one is
// fresh.
func (s *Service) ComputeSummary(ctx context.Context) (models.Summary, error) {
	if s.cache != nil {
		cached, err := s.cache.Load(ctx)
		if err != nil {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, summary); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *Service) compute(ctx context.Context) (models.Summary, error) {
	neera, err := s.source.ListCollections(ctx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("load collections: %w", err)
	}
	batches, err := s.source.AllBatches(ctx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("load batches: %w", err)
	}
	inventory, err := s.source.AllInventory(ctx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("load inventory: %w", err)
	}
	return Summarize(neera, batches, inventory), nil
}

// SnapshotSummary stores a freshly computed summary, bypassing the cache.
func (s *Service) SnapshotSummary(ctx context.Context) (*models.SummarySnapshot, error) {
	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := &models.SummarySnapshot{Summary: summary, TakenAt: s.now().UTC()}
	if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info("dashboard snapshot saved",
		zap.Float64("total_neera_liters", summary.TotalNeeraLiters),
		zap.Int("total_batches", summary.TotalBatches))
	return snapshot, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]models.SummarySnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.snapshots.ListSnapshots(ctx, limit)
}
