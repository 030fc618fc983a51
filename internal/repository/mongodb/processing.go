package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const batchEntity = "processing batch"

// InsertBatch stores a new processing batch, assigning its id.
func (r *MongoDBRepository) InsertBatch(ctx context.Context, batch *models.ProcessingBatch) error {
	if batch.ID == "" {
		batch.ID = newID()
	}
	batch.Normalize()
	_, err := r.collection(batchCollection).InsertOne(ctx, batch)
	return translate(err, batchEntity)
}

// ListBatches returns all batches newest first, each joined with its
// collection record.
func (r *MongoDBRepository) ListBatches(ctx context.Context) ([]models.BatchView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOne(neeraCollection, "neeraRef", "neera")...)

	views, err := aggregateAll[models.BatchView](ctx, r.collection(batchCollection), pipeline)
	if err != nil {
		return nil, translate(err, batchEntity)
	}
	for i := range views {
		views[i].Normalize()
	}
	return views, nil
}

// AllBatches returns every batch without joins.
func (r *MongoDBRepository) AllBatches(ctx context.Context) ([]models.ProcessingBatch, error) {
	out, err := findAll[models.ProcessingBatch](ctx, r.collection(batchCollection), bson.M{})
	return out, translate(err, batchEntity)
}

// GetBatch loads a batch by internal id.
func (r *MongoDBRepository) GetBatch(ctx context.Context, id string) (*models.ProcessingBatch, error) {
	return r.findBatch(ctx, bson.M{"_id": id})
}

// GetBatchByBatchID loads a batch by its human batch id.
func (r *MongoDBRepository) GetBatchByBatchID(ctx context.Context, batchID string) (*models.ProcessingBatch, error) {
	return r.findBatch(ctx, bson.M{"batchId": batchID})
}

// AppendStageLog pushes entry onto the batch's log in a single update. The
// filter only matches an open batch whose current stage is in allowedFrom,
// so ordering holds under concurrent requests. A miss returns NotFound.
func (r *MongoDBRepository) AppendStageLog(ctx context.Context, batchID string, entry models.StageLogEntry, allowedFrom []models.Stage) (*models.ProcessingBatch, error) {
	return r.updateBatch(ctx, appendStageFilter(batchID, allowedFrom), appendStageUpdate(entry, r.now()))
}

// MarkCompleted closes a batch that has reached packing.
func (r *MongoDBRepository) MarkCompleted(ctx context.Context, batchID string, at time.Time) (*models.ProcessingBatch, error) {
	return r.updateBatch(ctx, completeFilter(batchID), completeUpdate(at, r.now()))
}

func appendStageFilter(batchID string, allowedFrom []models.Stage) bson.M {
	return bson.M{
		"batchId":      batchID,
		"isCompleted":  false,
		"currentStage": bson.M{"$in": allowedFrom},
	}
}

func appendStageUpdate(entry models.StageLogEntry, now time.Time) bson.M {
	set := bson.M{"currentStage": entry.Stage, "updatedAt": now}
	if entry.Stage == models.StagePacking {
		set["stageCompleted"] = true
	}
	return bson.M{
		"$push": bson.M{"stageLogs": entry},
		"$set":  set,
	}
}

func completeFilter(batchID string) bson.M {
	return bson.M{"batchId": batchID, "stageCompleted": true}
}

func completeUpdate(at, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"isCompleted":  true,
		"currentStage": models.StageCompleted,
		"completedAt":  at,
		"updatedAt":    now,
	}}
}

// SetInventoryStatus sets the converted flag unconditionally.
func (r *MongoDBRepository) SetInventoryStatus(ctx context.Context, id string, added bool, at time.Time) (*models.ProcessingBatch, error) {
	update := inventoryFlagUpdate(added, at, r.now())
	return r.updateBatch(ctx, bson.M{"_id": id}, update)
}

// ClaimForInventory flips addedToInventory from false to true on a
// completed batch. Only one concurrent caller can win the claim.
func (r *MongoDBRepository) ClaimForInventory(ctx context.Context, id string, at time.Time) (*models.ProcessingBatch, error) {
	return r.updateBatch(ctx, claimFilter(id), inventoryFlagUpdate(true, at, r.now()))
}

// ReleaseInventoryClaim undoes a claim whose inventory insert failed.
func (r *MongoDBRepository) ReleaseInventoryClaim(ctx context.Context, id string) error {
	_, err := r.updateBatch(ctx, releaseFilter(id), inventoryFlagUpdate(false, time.Time{}, r.now()))
	return err
}

func claimFilter(id string) bson.M {
	return bson.M{"_id": id, "isCompleted": true, "addedToInventory": false}
}

func releaseFilter(id string) bson.M {
	return bson.M{"_id": id, "addedToInventory": true}
}

func inventoryFlagUpdate(added bool, at, now time.Time) bson.M {
	if added {
		return bson.M{"$set": bson.M{"addedToInventory": true, "addedToInventoryAt": at, "updatedAt": now}}
	}
	return bson.M{
		"$set":   bson.M{"addedToInventory": false, "updatedAt": now},
		"$unset": bson.M{"addedToInventoryAt": ""},
	}
}

func (r *MongoDBRepository) findBatch(ctx context.Context, filter bson.M) (*models.ProcessingBatch, error) {
	var batch models.ProcessingBatch
	if err := r.collection(batchCollection).FindOne(ctx, filter).Decode(&batch); err != nil {
		return nil, translate(err, batchEntity)
	}
	batch.Normalize()
	return &batch, nil
}

func (r *MongoDBRepository) updateBatch(ctx context.Context, filter, update bson.M) (*models.ProcessingBatch, error) {
	var batch models.ProcessingBatch
	err := r.collection(batchCollection).FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&batch)
	if err != nil {
		return nil, translate(err, batchEntity)
	}
	batch.Normalize()
	return &batch, nil
}
