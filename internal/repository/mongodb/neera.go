package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const neeraEntity = "neera collection"

// InsertCollection stores a new collection record, assigning its id.
func (r *MongoDBRepository) InsertCollection(ctx context.Context, rec *models.CollectionRecord) error {
	if rec.ID == "" {
		rec.ID = newID()
	}
	_, err := r.collection(neeraCollection).InsertOne(ctx, rec)
	return translate(err, neeraEntity)
}

// ListCollections returns every collection record, newest collection date first.
func (r *MongoDBRepository) ListCollections(ctx context.Context) ([]models.CollectionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "collectionDate", Value: -1}, {Key: "createdAt", Value: -1}})
	out, err := findAll[models.CollectionRecord](ctx, r.collection(neeraCollection), bson.M{}, opts)
	return out, translate(err, neeraEntity)
}

// GetCollection loads one collection record by id.
func (r *MongoDBRepository) GetCollection(ctx context.Context, id string) (*models.CollectionRecord, error) {
	var rec models.CollectionRecord
	err := r.collection(neeraCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		return nil, translate(err, neeraEntity)
	}
	return &rec, nil
}

// UpdateCollection applies set to the record and returns the new version.
func (r *MongoDBRepository) UpdateCollection(ctx context.Context, id string, set map[string]any) (*models.CollectionRecord, error) {
	update := bson.M{"$set": withUpdatedAt(set, r.now())}

	var rec models.CollectionRecord
	err := r.collection(neeraCollection).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&rec)
	if err != nil {
		return nil, translate(err, neeraEntity)
	}
	return &rec, nil
}

// DeleteCollection removes a collection record.
func (r *MongoDBRepository) DeleteCollection(ctx context.Context, id string) error {
	res, err := r.collection(neeraCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, neeraEntity)
	}
	if res.DeletedCount == 0 {
		return translate(errNoDocuments, neeraEntity)
	}
	return nil
}
