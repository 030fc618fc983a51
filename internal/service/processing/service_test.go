package processing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/repository/memory"
)

var (
	manager  = models.Actor{ID: "mgr-1", Role: models.RoleManager}
	employee = models.Actor{ID: "emp-1", Role: models.RoleEmployee}
)

func newFixture(t *testing.T) (*Service, *memory.Store, *models.CollectionRecord) {
	t.Helper()
	store := memory.New()
	neera := &models.CollectionRecord{BatchID: "N1", QuantityLiters: 100, Status: models.CollectionCollected}
	require.NoError(t, store.InsertCollection(context.Background(), neera))
	return NewService(store, store, nil), store, neera
}

func stageLog(stage models.Stage) models.StageLogInput {
	return models.StageLogInput{
		Stage:     string(stage),
		StartTime: "2026-03-01T08:00",
		EndTime:   "2026-03-01T10:00",
	}
}

func quantity(v float64) *models.Quantity {
	q := models.Quantity(v)
	return &q
}

func TestCreateBatchStartsInitial(t *testing.T) {
	svc, store, neera := newFixture(t)
	ctx := context.Background()

	batch, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StageInitial, batch.CurrentStage)
	assert.Empty(t, batch.StageLogs)
	assert.False(t, batch.StageCompleted)
	assert.False(t, batch.IsCompleted)
	assert.False(t, batch.AddedToInventory)

	list, err := svc.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B1", list[0].BatchID)
	assert.Equal(t, models.StageInitial, list[0].CurrentStage)
	assert.NotNil(t, list[0].StageLogs)
	require.NotNil(t, list[0].Neera)
	assert.Equal(t, "N1", list[0].Neera.BatchID)

	rec, err := store.GetCollection(ctx, neera.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionProcessing, rec.Status)
}

func TestCreateBatchUnknownNeera(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.CreateBatch(context.Background(), models.BatchInput{BatchID: "B1", NeeraRef: "missing"})
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestCreateBatchDuplicates(t *testing.T) {
	svc, store, neera := newFixture(t)
	ctx := context.Background()
	other := &models.CollectionRecord{BatchID: "N2", QuantityLiters: 50}
	require.NoError(t, store.InsertCollection(ctx, other))

	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	_, err = svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: other.ID})
	assert.True(t, errs.IsKind(err, errs.KindDuplicateKey), "batch id reuse")

	_, err = svc.CreateBatch(ctx, models.BatchInput{BatchID: "B2", NeeraRef: neera.ID})
	assert.True(t, errs.IsKind(err, errs.KindDuplicateKey), "neera already owned")
}

func TestCreateBatchValidation(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.CreateBatch(context.Background(), models.BatchInput{})
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindValidation, e.Kind)
	assert.Contains(t, e.Details, "batchId")
	assert.Contains(t, e.Details, "neeraRef")
}

func TestListBatchesToleratesDeletedNeera(t *testing.T) {
	svc, store, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)
	require.NoError(t, store.DeleteCollection(ctx, neera.ID))

	list, err := svc.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Neera)
}

func TestAppendStageLogTracksCurrentStage(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	sequence := []models.Stage{models.StageBoiling, models.StageBoiling, models.StageCrystallization, models.StageDrying, models.StagePacking}
	for i, stage := range sequence {
		batch, err := svc.AppendStageLog(ctx, employee, "B1", stageLog(stage))
		require.NoError(t, err, "append %s", stage)
		assert.Equal(t, stage, batch.CurrentStage)
		require.Len(t, batch.StageLogs, i+1)
		assert.Equal(t, stage, batch.StageLogs[i].Stage)
		assert.Equal(t, employee.ID, batch.StageLogs[i].UpdatedBy)
		assert.Equal(t, stage == models.StagePacking, batch.StageCompleted)
	}
}

func TestAppendStageLogAnonymousIsSystem(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	batch, err := svc.AppendStageLog(ctx, models.Actor{}, "B1", stageLog(models.StageBoiling))
	require.NoError(t, err)
	assert.Equal(t, models.UpdatedBySystem, batch.StageLogs[0].UpdatedBy)
}

func TestAppendStageLogRejectsRegression(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)
	_, err = svc.AppendStageLog(ctx, employee, "B1", stageLog(models.StagePacking))
	require.NoError(t, err)

	_, err = svc.AppendStageLog(ctx, employee, "B1", stageLog(models.StageDrying))
	assert.True(t, errs.IsKind(err, errs.KindConflict))

	batch, err := svc.AppendStageLog(ctx, employee, "B1", stageLog(models.StagePacking))
	require.NoError(t, err)
	assert.True(t, batch.StageCompleted, "packing flag never resets")
	assert.Len(t, batch.StageLogs, 2)
}

func TestAppendStageLogValidation(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	cases := map[string]models.StageLogInput{
		"unknown stage":    {Stage: "Fermenting", StartTime: "2026-03-01T08:00", EndTime: "2026-03-01T09:00"},
		"initial stage":    {Stage: "Initial", StartTime: "2026-03-01T08:00", EndTime: "2026-03-01T09:00"},
		"missing times":    {Stage: "Boiling"},
		"negative output":  {Stage: "Boiling", StartTime: "2026-03-01T08:00", EndTime: "2026-03-01T09:00", OutputLiters: quantity(-1)},
		"end before start": {Stage: "Boiling", StartTime: "2026-03-01T10:00", EndTime: "2026-03-01T09:00"},
		"bad time":         {Stage: "Boiling", StartTime: "yesterday", EndTime: "2026-03-01T09:00"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AppendStageLog(ctx, employee, "B1", in)
			assert.True(t, errs.IsKind(err, errs.KindValidation), "got %v", err)
		})
	}
}

func TestAppendStageLogUnknownBatch(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.AppendStageLog(context.Background(), employee, "nope", stageLog(models.StageBoiling))
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestAppendStageLogConcurrentNoLoss(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := stageLog(models.StageBoiling)
			in.Notes = fmt.Sprintf("run %d", i)
			_, err := svc.AppendStageLog(ctx, employee, "B1", in)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := svc.ListBatches(ctx)
	require.NoError(t, err)
	assert.Len(t, list[0].StageLogs, writers)
}

func TestCompleteBatchRequiresManager(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)
	_, err = svc.AppendStageLog(ctx, employee, "B1", stageLog(models.StagePacking))
	require.NoError(t, err)

	for _, actor := range []models.Actor{employee, {}} {
		_, err = svc.CompleteBatch(ctx, actor, "B1")
		assert.True(t, errs.IsKind(err, errs.KindForbidden))
	}

	list, err := svc.ListBatches(ctx)
	require.NoError(t, err)
	assert.False(t, list[0].IsCompleted)
}

func TestCompleteBatch(t *testing.T) {
	svc, store, neera := newFixture(t)
	ctx := context.Background()
	_, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	_, err = svc.CompleteBatch(ctx, manager, "B1")
	assert.True(t, errs.IsKind(err, errs.KindConflict), "not packed yet")

	_, err = svc.AppendStageLog(ctx, employee, "B1", stageLog(models.StagePacking))
	require.NoError(t, err)

	batch, err := svc.CompleteBatch(ctx, manager, "B1")
	require.NoError(t, err)
	assert.True(t, batch.IsCompleted)
	assert.Equal(t, models.StageCompleted, batch.CurrentStage)
	require.NotNil(t, batch.CompletedAt)

	again, err := svc.CompleteBatch(ctx, manager, "B1")
	require.NoError(t, err)
	assert.True(t, again.IsCompleted)
	assert.Len(t, again.StageLogs, 1)

	_, err = svc.AppendStageLog(ctx, employee, "B1", stageLog(models.StagePacking))
	assert.True(t, errs.IsKind(err, errs.KindConflict), "completed batches are closed")

	rec, err := store.GetCollection(ctx, neera.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionCompleted, rec.Status)
	assert.True(t, rec.IsCompleted)

	_, err = svc.CompleteBatch(ctx, manager, "missing")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestSetInventoryStatus(t *testing.T) {
	svc, _, neera := newFixture(t)
	ctx := context.Background()
	created, err := svc.CreateBatch(ctx, models.BatchInput{BatchID: "B1", NeeraRef: neera.ID})
	require.NoError(t, err)

	batch, err := svc.SetInventoryStatus(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, batch.AddedToInventory)
	assert.NotNil(t, batch.AddedToInventoryAt)

	batch, err = svc.SetInventoryStatus(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, batch.AddedToInventory)
	assert.Nil(t, batch.AddedToInventoryAt)

	_, err = svc.SetInventoryStatus(ctx, "missing", true)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}
