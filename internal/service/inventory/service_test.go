package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/repository/memory"
)

type recordingExporter struct {
	mu      sync.Mutex
	records []models.InventoryRecord
	err     error
}

func (e *recordingExporter) ExportInventory(_ context.Context, rec models.InventoryRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, rec)
	return e.err
}

// failingInsertStore fails the next InsertInventory with err.
type failingInsertStore struct {
	*memory.Store
	err error
}

func (s *failingInsertStore) InsertInventory(ctx context.Context, rec *models.InventoryRecord) error {
	if err := s.err; err != nil {
		s.err = nil
		return err
	}
	return s.Store.InsertInventory(ctx, rec)
}

func insertBatch(t *testing.T, store *memory.Store, batchID string, completed bool) *models.ProcessingBatch {
	t.Helper()
	batch := &models.ProcessingBatch{
		BatchID:        batchID,
		NeeraRef:       "neera-" + batchID,
		CurrentStage:   models.StagePacking,
		StageCompleted: true,
		IsCompleted:    completed,
	}
	if completed {
		batch.CurrentStage = models.StageCompleted
	}
	require.NoError(t, store.InsertBatch(context.Background(), batch))
	return batch
}

func input(batchRef, batchID string) models.InventoryInput {
	weight := models.Quantity(85)
	units := models.Count(170)
	return models.InventoryInput{
		BatchID:            batchID,
		ProductType:        string(models.ProductJaggeryBlock),
		NetWeightKg:        &weight,
		UnitsPacked:        &units,
		ProcessingBatchRef: batchRef,
		ExpirationDate:     "2027-01-31",
	}
}

func TestCreateInventoryClaimsBatch(t *testing.T) {
	store := memory.New()
	exporter := &recordingExporter{}
	svc := NewService(store, store, exporter, nil)
	ctx := context.Background()
	batch := insertBatch(t, store, "B1", true)

	rec, err := svc.CreateInventory(ctx, input(batch.ID, "INV-1"))
	require.NoError(t, err)
	assert.Equal(t, 85.0, rec.NetWeightKg)
	assert.Equal(t, 170, rec.UnitsPacked)
	require.NotNil(t, rec.ExpirationDate)
	assert.Equal(t, 2027, rec.ExpirationDate.Year())

	claimed, err := store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.True(t, claimed.AddedToInventory)
	assert.NotNil(t, claimed.AddedToInventoryAt)

	require.Len(t, exporter.records, 1)
	assert.Equal(t, "INV-1", exporter.records[0].BatchID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ProcessingBatch)
	assert.Equal(t, "B1", list[0].ProcessingBatch.BatchID)
}

func TestCreateInventoryRejectsSecondConversion(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)
	ctx := context.Background()
	batch := insertBatch(t, store, "B1", true)

	_, err := svc.CreateInventory(ctx, input(batch.ID, "INV-1"))
	require.NoError(t, err)

	_, err = svc.CreateInventory(ctx, input(batch.ID, "INV-2"))
	require.True(t, errs.IsKind(err, errs.KindConflict))
	assert.Contains(t, err.Error(), "already added to inventory")

	all, err := store.AllInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateInventoryRequiresCompletedBatch(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)
	batch := insertBatch(t, store, "B1", false)

	_, err := svc.CreateInventory(context.Background(), input(batch.ID, "INV-1"))
	require.True(t, errs.IsKind(err, errs.KindConflict))
	assert.Contains(t, err.Error(), "not completed")
}

func TestCreateInventoryUnknownBatch(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)

	_, err := svc.CreateInventory(context.Background(), input("missing", "INV-1"))
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestCreateInventoryValidation(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)

	_, err := svc.CreateInventory(context.Background(), models.InventoryInput{ProductType: "Jaggery Block"})
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindValidation, e.Kind)
	for _, field := range []string{"batchId", "netWeightKg", "unitsPacked", "processingBatchRef"} {
		assert.Equal(t, "required", e.Details[field], field)
		assert.Contains(t, e.Message, field)
	}

	bad := input("ref", "INV-1")
	bad.ProductType = "Toffee"
	_, err = svc.CreateInventory(context.Background(), bad)
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	zero := input("ref", "INV-1")
	w := models.Quantity(0)
	zero.NetWeightKg = &w
	_, err = svc.CreateInventory(context.Background(), zero)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestCreateInventoryReleasesClaimOnInsertFailure(t *testing.T) {
	store := memory.New()
	svc := NewService(&failingInsertStore{Store: store, err: errors.New("disk full")}, store, nil, nil)
	ctx := context.Background()
	batch := insertBatch(t, store, "B1", true)

	_, err := svc.CreateInventory(ctx, input(batch.ID, "INV-1"))
	require.Error(t, err)

	released, err := store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.False(t, released.AddedToInventory)
	assert.Nil(t, released.AddedToInventoryAt)

	_, err = svc.CreateInventory(ctx, input(batch.ID, "INV-1"))
	require.NoError(t, err, "retry succeeds after compensation")
}

func TestCreateInventoryDuplicateBatchIDReleasesClaim(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)
	ctx := context.Background()
	first := insertBatch(t, store, "B1", true)
	second := insertBatch(t, store, "B2", true)

	_, err := svc.CreateInventory(ctx, input(first.ID, "INV-1"))
	require.NoError(t, err)

	_, err = svc.CreateInventory(ctx, input(second.ID, "INV-1"))
	assert.True(t, errs.IsKind(err, errs.KindDuplicateKey))

	b, err := store.GetBatch(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, b.AddedToInventory)
}

func TestCreateInventoryExportFailureIsIgnored(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, &recordingExporter{err: errors.New("quota")}, nil)
	batch := insertBatch(t, store, "B1", true)

	_, err := svc.CreateInventory(context.Background(), input(batch.ID, "INV-1"))
	assert.NoError(t, err)
}

func TestCreateInventoryConcurrentConversionsYieldOneRecord(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)
	ctx := context.Background()
	batch := insertBatch(t, store, "B1", true)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateInventory(ctx, input(batch.ID, fmt.Sprintf("INV-%d", i)))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errs.IsKind(err, errs.KindConflict), "got %v", err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	all, err := store.AllInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateInventoryKeepsBatchRef(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)
	ctx := context.Background()
	batch := insertBatch(t, store, "B1", true)
	rec, err := svc.CreateInventory(ctx, input(batch.ID, "INV-1"))
	require.NoError(t, err)

	grade := "A"
	weight := models.Quantity(90)
	updated, err := svc.Update(ctx, rec.ID, models.InventoryPatch{QualityGrade: &grade, NetWeightKg: &weight})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.QualityGrade)
	assert.Equal(t, 90.0, updated.NetWeightKg)
	assert.Equal(t, batch.ID, updated.ProcessingBatchRef)

	bad := "Toffee"
	_, err = svc.Update(ctx, rec.ID, models.InventoryPatch{ProductType: &bad})
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	_, err = svc.Update(ctx, "missing", models.InventoryPatch{QualityGrade: &grade})
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestGetAndDeleteInventory(t *testing.T) {
	store := memory.New()
	svc := NewService(store, store, nil, nil)
	ctx := context.Background()
	batch := insertBatch(t, store, "B1", true)
	rec, err := svc.CreateInventory(ctx, input(batch.ID, "INV-1"))
	require.NoError(t, err)

	view, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", view.BatchID)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
	assert.True(t, errs.IsKind(svc.Delete(ctx, rec.ID), errs.KindNotFound))
}

func TestNewBatchID(t *testing.T) {
	id, err := NewBatchID("PB-7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "INV-PB-7-"), id)
	assert.Len(t, id, len("INV-PB-7-")+6)

	other, err := NewBatchID("PB-7")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	_, err = NewBatchID(" ")
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}
