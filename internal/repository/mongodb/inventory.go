package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const inventoryEntity = "inventory record"

// InsertInventory stores a new inventory record, assigning its id. The
// unique processingBatchRef index rejects a second record for one batch.
func (r *MongoDBRepository) InsertInventory(ctx context.Context, rec *models.InventoryRecord) error {
	if rec.ID == "" {
		rec.ID = newID()
	}
	_, err := r.collection(inventoryCollection).InsertOne(ctx, rec)
	return translate(err, inventoryEntity)
}

// ListInventory returns all records newest first with their batch joined.
func (r *MongoDBRepository) ListInventory(ctx context.Context) ([]models.InventoryView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOne(batchCollection, "processingBatchRef", "processingBatch")...)

	views, err := aggregateAll[models.InventoryView](ctx, r.collection(inventoryCollection), pipeline)
	if err != nil {
		return nil, translate(err, inventoryEntity)
	}
	for i := range views {
		views[i].ProcessingBatch.Normalize()
	}
	return views, nil
}

// AllInventory returns every record without joins.
func (r *MongoDBRepository) AllInventory(ctx context.Context) ([]models.InventoryRecord, error) {
	out, err := findAll[models.InventoryRecord](ctx, r.collection(inventoryCollection), bson.M{})
	return out, translate(err, inventoryEntity)
}

// GetInventory loads one record by id with its batch joined.
func (r *MongoDBRepository) GetInventory(ctx context.Context, id string) (*models.InventoryView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, lookupOne(batchCollection, "processingBatchRef", "processingBatch")...)

	views, err := aggregateAll[models.InventoryView](ctx, r.collection(inventoryCollection), pipeline)
	if err != nil {
		return nil, translate(err, inventoryEntity)
	}
	if len(views) == 0 {
		return nil, translate(errNoDocuments, inventoryEntity)
	}
	views[0].ProcessingBatch.Normalize()
	return &views[0], nil
}

// UpdateInventory applies set to the record and returns the new version.
func (r *MongoDBRepository) UpdateInventory(ctx context.Context, id string, set map[string]any) (*models.InventoryRecord, error) {
	update := bson.M{"$set": withUpdatedAt(set, r.now())}

	var rec models.InventoryRecord
	err := r.collection(inventoryCollection).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&rec)
	if err != nil {
		return nil, translate(err, inventoryEntity)
	}
	return &rec, nil
}

// DeleteInventory removes a record. The batch flag is left as is.
func (r *MongoDBRepository) DeleteInventory(ctx context.Context, id string) error {
	res, err := r.collection(inventoryCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, inventoryEntity)
	}
	if res.DeletedCount == 0 {
		return translate(errNoDocuments, inventoryEntity)
	}
	return nil
}
