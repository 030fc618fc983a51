package models

import "time"

// Summary is the dashboard aggregate over collections, batches and
// inventory.
type Summary struct {
	TotalNeeraLiters  float64 `bson:"totalNeeraLiters" json:"totalNeeraLiters"`
	TotalOutput       float64 `bson:"totalOutput" json:"totalOutput"`
	TotalWastage      float64 `bson:"totalWastage" json:"totalWastage"`
	TotalSugarKg      float64 `bson:"totalSugarKg" json:"totalSugarKg"`
	TotalBatches      int     `bson:"totalBatches" json:"totalBatches"`
	CompletedBatches  int     `bson:"completedBatches" json:"completedBatches"`
	ProcessingBatches int     `bson:"processingBatches" json:"processingBatches"`
	PendingBatches    int     `bson:"pendingBatches" json:"pendingBatches"`
	WastagePercentage string  `bson:"wastagePercentage" json:"wastagePercentage"`
}

// SummarySnapshot is a summary persisted at a point in time.
type SummarySnapshot struct {
	ID      string    `bson:"_id" json:"id"`
	Summary `bson:",inline"`
	TakenAt time.Time `bson:"takenAt" json:"takenAt"`
}

// ChatInput is a question for the dashboard assistant.
type ChatInput struct {
	Question string `json:"question" binding:"required"`
}
