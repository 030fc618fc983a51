package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

// SaveSnapshot saves a dashboard summary snapshot to the database.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot *models.SummarySnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = newID()
	}
	if _, err := r.collection(snapshotCollection).InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert summary snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (r *MongoDBRepository) ListSnapshots(ctx context.Context, limit int) ([]models.SummarySnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "takenAt", Value: -1}}).SetLimit(int64(limit))
	out, err := findAll[models.SummarySnapshot](ctx, r.collection(snapshotCollection), bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list summary snapshots: %w", err)
	}
	return out, nil
}
