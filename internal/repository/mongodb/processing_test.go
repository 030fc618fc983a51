package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

func TestAppendStageFilterAndUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	filter := appendStageFilter("B1", models.StageDrying.Predecessors())
	assert.Equal(t, bson.M{
		"batchId":     "B1",
		"isCompleted": false,
		"currentStage": bson.M{"$in": []models.Stage{
			models.StageInitial, models.StageBoiling, models.StageCrystallization, models.StageDrying,
		}},
	}, filter)

	entry := models.StageLogEntry{Stage: models.StageDrying, UpdatedBy: "u1"}
	update := appendStageUpdate(entry, now)
	assert.Equal(t, bson.M{"stageLogs": entry}, update["$push"])
	assert.Equal(t, bson.M{"currentStage": models.StageDrying, "updatedAt": now}, update["$set"])

	packing := appendStageUpdate(models.StageLogEntry{Stage: models.StagePacking}, now)
	assert.Equal(t, true, packing["$set"].(bson.M)["stageCompleted"])
}

func TestCompleteAndClaimFilters(t *testing.T) {
	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{"batchId": "B1", "stageCompleted": true}, completeFilter("B1"))
	set := completeUpdate(at, at)["$set"].(bson.M)
	assert.Equal(t, true, set["isCompleted"])
	assert.Equal(t, models.StageCompleted, set["currentStage"])
	assert.Equal(t, at, set["completedAt"])

	assert.Equal(t, bson.M{"_id": "b-1", "isCompleted": true, "addedToInventory": false}, claimFilter("b-1"))
	assert.Equal(t, bson.M{"_id": "b-1", "addedToInventory": true}, releaseFilter("b-1"))

	released := inventoryFlagUpdate(false, time.Time{}, at)
	assert.Equal(t, bson.M{"addedToInventoryAt": ""}, released["$unset"])
}

// newLiveRepository connects to MONGODB_URI with a throwaway database.
func newLiveRepository(t *testing.T) *MongoDBRepository {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, uri, fmt.Sprintf("palmtrack_test_%d", time.Now().UnixNano()), nil)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureIndexes(ctx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = repo.db.Drop(ctx)
		_ = repo.Close(ctx)
	})
	return repo
}

func TestLiveBatchLifecycle(t *testing.T) {
	repo := newLiveRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := &models.ProcessingBatch{BatchID: "B1", NeeraRef: "n-1", CurrentStage: models.StageInitial, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.InsertBatch(ctx, batch))

	log := func(stage models.Stage) (*models.ProcessingBatch, error) {
		entry := models.StageLogEntry{Stage: stage, UpdatedBy: "u1", Timestamp: now, StartTime: now, EndTime: now}
		return repo.AppendStageLog(ctx, "B1", entry, stage.Predecessors())
	}

	_, err := repo.MarkCompleted(ctx, "B1", now)
	assert.True(t, errs.IsKind(err, errs.KindNotFound), "not yet packed")

	got, err := log(models.StageDrying)
	require.NoError(t, err)
	assert.Equal(t, models.StageDrying, got.CurrentStage)
	assert.False(t, got.StageCompleted)

	_, err = log(models.StageBoiling)
	assert.True(t, errs.IsKind(err, errs.KindNotFound), "regression misses the filter")

	got, err = log(models.StagePacking)
	require.NoError(t, err)
	assert.True(t, got.StageCompleted)
	assert.Len(t, got.StageLogs, 2)

	_, err = repo.ClaimForInventory(ctx, batch.ID, now)
	assert.True(t, errs.IsKind(err, errs.KindNotFound), "open batch cannot be claimed")

	got, err = repo.MarkCompleted(ctx, "B1", now)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	_, err = log(models.StagePacking)
	assert.True(t, errs.IsKind(err, errs.KindNotFound), "completed batch takes no logs")

	got, err = repo.ClaimForInventory(ctx, batch.ID, now)
	require.NoError(t, err)
	assert.True(t, got.AddedToInventory)
	_, err = repo.ClaimForInventory(ctx, batch.ID, now)
	assert.True(t, errs.IsKind(err, errs.KindNotFound), "claim wins once")

	require.NoError(t, repo.ReleaseInventoryClaim(ctx, batch.ID))
	got, err = repo.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.False(t, got.AddedToInventory)
	assert.Nil(t, got.AddedToInventoryAt)
}
