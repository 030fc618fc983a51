package models

import (
	"time"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
)

// UpdatedBySystem attributes log entries appended without an authenticated caller.
const UpdatedBySystem = "system"

// StageLogEntry is one timestamped measurement appended to a batch.
type StageLogEntry struct {
	Stage              Stage     `bson:"stage" json:"stage"`
	Notes              string    `bson:"notes,omitempty" json:"notes,omitempty"`
	UpdatedBy          string    `bson:"updatedBy" json:"updatedBy"`
	Timestamp          time.Time `bson:"timestamp" json:"timestamp"`
	StartTime          time.Time `bson:"startTime" json:"startTime"`
	EndTime            time.Time `bson:"endTime" json:"endTime"`
	TemperatureCelsius *float64  `bson:"temperatureCelsius,omitempty" json:"temperatureCelsius,omitempty"`
	OutputLiters       *float64  `bson:"outputLiters,omitempty" json:"outputLiters,omitempty"`
	WastageLiters      *float64  `bson:"wastageLiters,omitempty" json:"wastageLiters,omitempty"`
}

// ProcessingBatch tracks one collection record through production.
type ProcessingBatch struct {
	ID                 string          `bson:"_id" json:"id"`
	BatchID            string          `bson:"batchId" json:"batchId"`
	NeeraRef           string          `bson:"neeraRef" json:"neeraRef"`
	CurrentStage       Stage           `bson:"currentStage" json:"currentStage"`
	StageLogs          []StageLogEntry `bson:"stageLogs" json:"stageLogs"`
	StageCompleted     bool            `bson:"stageCompleted" json:"stageCompleted"`
	IsCompleted        bool            `bson:"isCompleted" json:"isCompleted"`
	CompletedAt        *time.Time      `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	AddedToInventory   bool            `bson:"addedToInventory" json:"addedToInventory"`
	AddedToInventoryAt *time.Time      `bson:"addedToInventoryAt,omitempty" json:"addedToInventoryAt,omitempty"`
	CreatedAt          time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Normalize replaces a nil log slice so listings always render [].
func (b *ProcessingBatch) Normalize() {
	if b != nil && b.StageLogs == nil {
		b.StageLogs = []StageLogEntry{}
	}
}

// BatchView is a batch with its collection record resolved. Neera is nil
// when the referenced record no longer exists.
type BatchView struct {
	ProcessingBatch `bson:",inline"`
	Neera           *CollectionRecord `bson:"neera,omitempty" json:"neera"`
}

// BatchInput creates a processing batch.
type BatchInput struct {
	BatchID  string `json:"batchId" binding:"required"`
	NeeraRef string `json:"neeraRef" binding:"required"`
}

// StageLogInput is the body of a stage update.
type StageLogInput struct {
	Stage              string    `json:"stage" binding:"required,oneof=Boiling Crystallization Drying Packing"`
	Notes              string    `json:"notes"`
	StartTime          string    `json:"startTime" binding:"required"`
	EndTime            string    `json:"endTime" binding:"required"`
	TemperatureCelsius *Quantity `json:"temperatureCelsius" binding:"omitempty,gte=0"`
	OutputLiters       *Quantity `json:"outputLiters" binding:"omitempty,gte=0"`
	WastageLiters      *Quantity `json:"wastageLiters" binding:"omitempty,gte=0"`
}

// Entry converts the input into a log entry attributed to updatedBy.
func (in StageLogInput) Entry(updatedBy string, now time.Time) (StageLogEntry, error) {
	details := map[string]string{}
	start, err := ParseTime(in.StartTime)
	if err != nil {
		details["startTime"] = "datetime"
	}
	end, err := ParseTime(in.EndTime)
	if err != nil {
		details["endTime"] = "datetime"
	}
	if len(details) == 0 && end.Before(start) {
		details["endTime"] = "gtefield=startTime"
	}
	if len(details) > 0 {
		return StageLogEntry{}, errs.ValidationFields("invalid stage timing", details)
	}
	if updatedBy == "" {
		updatedBy = UpdatedBySystem
	}
	return StageLogEntry{
		Stage:              Stage(in.Stage),
		Notes:              in.Notes,
		UpdatedBy:          updatedBy,
		Timestamp:          now,
		StartTime:          start,
		EndTime:            end,
		TemperatureCelsius: QuantityPtr(in.TemperatureCelsius),
		OutputLiters:       QuantityPtr(in.OutputLiters),
		WastageLiters:      QuantityPtr(in.WastageLiters),
	}, nil
}

// InventoryStatusInput flags a batch as converted or not.
type InventoryStatusInput struct {
	AddedToInventory *bool `json:"addedToInventory" binding:"required"`
}
