package models

import (
	"fmt"
	"time"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
)

// CollectionStatus tracks a neera collection through the plant.
type CollectionStatus string

const (
	CollectionCollected  CollectionStatus = "Collected"
	CollectionProcessing CollectionStatus = "Processing"
	CollectionCompleted  CollectionStatus = "Completed"
)

// Valid reports whether s is one of the canonical statuses.
func (s CollectionStatus) Valid() bool {
	switch s {
	case CollectionCollected, CollectionProcessing, CollectionCompleted:
		return true
	}
	return false
}

// CollectionRecord is a logged intake of raw neera from a supplier.
type CollectionRecord struct {
	ID                 string           `bson:"_id" json:"id"`
	SupplierName       string           `bson:"supplierName" json:"supplierName"`
	CollectionDate     time.Time        `bson:"collectionDate" json:"collectionDate"`
	BatchID            string           `bson:"batchId" json:"batchId"`
	QuantityLiters     float64          `bson:"quantityLiters" json:"quantityLiters"`
	CollectionMethod   string           `bson:"collectionMethod,omitempty" json:"collectionMethod,omitempty"`
	StorageTank        string           `bson:"storageTank,omitempty" json:"storageTank,omitempty"`
	TemperatureCelsius *float64         `bson:"temperatureCelsius,omitempty" json:"temperatureCelsius,omitempty"`
	Notes              string           `bson:"notes,omitempty" json:"notes,omitempty"`
	Status             CollectionStatus `bson:"status" json:"status"`
	IsCompleted        bool             `bson:"isCompleted" json:"isCompleted"`
	CreatedAt          time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// CollectionInput is the intake form payload.
type CollectionInput struct {
	SupplierName       string    `json:"supplierName" binding:"required"`
	CollectionDate     string    `json:"collectionDate" binding:"required"`
	BatchID            string    `json:"batchId" binding:"required"`
	QuantityLiters     Quantity  `json:"quantityLiters" binding:"required,gt=0"`
	CollectionMethod   string    `json:"collectionMethod"`
	StorageTank        string    `json:"storageTank"`
	TemperatureCelsius *Quantity `json:"temperatureCelsius"`
	Notes              string    `json:"notes"`
}

// Record builds a new CollectionRecord in the Collected state.
func (in CollectionInput) Record(now time.Time) (CollectionRecord, error) {
	date, err := ParseTime(in.CollectionDate)
	if err != nil {
		return CollectionRecord{}, errs.ValidationFields("invalid fields: collectionDate",
			map[string]string{"collectionDate": "date"})
	}
	return CollectionRecord{
		SupplierName:       in.SupplierName,
		CollectionDate:     date,
		BatchID:            in.BatchID,
		QuantityLiters:     in.QuantityLiters.Float(),
		CollectionMethod:   in.CollectionMethod,
		StorageTank:        in.StorageTank,
		TemperatureCelsius: QuantityPtr(in.TemperatureCelsius),
		Notes:              in.Notes,
		Status:             CollectionCollected,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// CollectionPatch is a partial edit of a CollectionRecord. Nil fields are
// left untouched.
type CollectionPatch struct {
	SupplierName       *string   `json:"supplierName" binding:"omitempty,min=1"`
	CollectionDate     *string   `json:"collectionDate"`
	BatchID            *string   `json:"batchId" binding:"omitempty,min=1"`
	QuantityLiters     *Quantity `json:"quantityLiters" binding:"omitempty,gt=0"`
	CollectionMethod   *string   `json:"collectionMethod"`
	StorageTank        *string   `json:"storageTank"`
	TemperatureCelsius *Quantity `json:"temperatureCelsius"`
	Notes              *string   `json:"notes"`
	Status             *string   `json:"status"`
}

// Updates returns the stored fields the patch replaces.
func (p CollectionPatch) Updates() (map[string]any, error) {
	set := map[string]any{}
	if p.SupplierName != nil {
		set["supplierName"] = *p.SupplierName
	}
	if p.CollectionDate != nil {
		date, err := ParseTime(*p.CollectionDate)
		if err != nil {
			return nil, errs.ValidationFields("invalid fields: collectionDate",
				map[string]string{"collectionDate": "date"})
		}
		set["collectionDate"] = date
	}
	if p.BatchID != nil {
		set["batchId"] = *p.BatchID
	}
	if p.QuantityLiters != nil {
		set["quantityLiters"] = p.QuantityLiters.Float()
	}
	if p.CollectionMethod != nil {
		set["collectionMethod"] = *p.CollectionMethod
	}
	if p.StorageTank != nil {
		set["storageTank"] = *p.StorageTank
	}
	if p.TemperatureCelsius != nil {
		set["temperatureCelsius"] = p.TemperatureCelsius.Float()
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.Status != nil {
		status, err := StatusUpdates(*p.Status)
		if err != nil {
			return nil, err
		}
		for k, v := range status {
			set[k] = v
		}
	}
	return set, nil
}

// StatusUpdates validates a status transition request and returns the
// fields it sets. Completed also raises isCompleted.
func StatusUpdates(status string) (map[string]any, error) {
	s := CollectionStatus(status)
	if !s.Valid() {
		return nil, errs.ValidationFields(
			fmt.Sprintf("invalid fields: status must be one of %s, %s, %s", CollectionCollected, CollectionProcessing, CollectionCompleted),
			map[string]string{"status": "oneof"})
	}
	set := map[string]any{"status": s}
	if s == CollectionCompleted {
		set["isCompleted"] = true
	}
	return set, nil
}

// StatusInput is the body of a status change request.
type StatusInput struct {
	Status string `json:"status" binding:"required"`
}
