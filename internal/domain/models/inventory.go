package models

import (
	"time"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
)

// ProductType enumerates finished goods.
type ProductType string

const (
	ProductJaggeryPowder ProductType = "Jaggery Powder"
	ProductJaggeryBlock  ProductType = "Jaggery Block"
	ProductLiquidSugar   ProductType = "Liquid Sugar"
)

// InventoryRecord is the finished-goods record created from one completed
// processing batch.
type InventoryRecord struct {
	ID                 string      `bson:"_id" json:"id"`
	BatchID            string      `bson:"batchId" json:"batchId"`
	ProductType        ProductType `bson:"productType" json:"productType"`
	NetWeightKg        float64     `bson:"netWeightKg" json:"netWeightKg"`
	UnitsPacked        int         `bson:"unitsPacked" json:"unitsPacked"`
	PackagingType      string      `bson:"packagingType,omitempty" json:"packagingType,omitempty"`
	StorageLocation    string      `bson:"storageLocation,omitempty" json:"storageLocation,omitempty"`
	QualityGrade       string      `bson:"qualityGrade,omitempty" json:"qualityGrade,omitempty"`
	ExpirationDate     *time.Time  `bson:"expirationDate,omitempty" json:"expirationDate,omitempty"`
	ProcessingBatchRef string      `bson:"processingBatchRef" json:"processingBatchRef"`
	CreatedAt          time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// InventoryView is an inventory record with its processing batch resolved.
type InventoryView struct {
	InventoryRecord `bson:",inline"`
	ProcessingBatch *ProcessingBatch `bson:"processingBatch,omitempty" json:"processingBatch"`
}

// InventoryInput is the conversion form payload. Numbers may arrive as
// strings.
type InventoryInput struct {
	BatchID            string    `json:"batchId" binding:"required"`
	ProductType        string    `json:"productType" binding:"required,oneof='Jaggery Powder' 'Jaggery Block' 'Liquid Sugar'"`
	NetWeightKg        *Quantity `json:"netWeightKg" binding:"required,gt=0"`
	UnitsPacked        *Count    `json:"unitsPacked" binding:"required,gte=0"`
	PackagingType      string    `json:"packagingType"`
	StorageLocation    string    `json:"storageLocation"`
	QualityGrade       string    `json:"qualityGrade"`
	ExpirationDate     string    `json:"expirationDate"`
	ProcessingBatchRef string    `json:"processingBatchRef" binding:"required"`
}

// Record builds the InventoryRecord described by the input.
func (in InventoryInput) Record(now time.Time) (InventoryRecord, error) {
	rec := InventoryRecord{
		BatchID:            in.BatchID,
		ProductType:        ProductType(in.ProductType),
		PackagingType:      in.PackagingType,
		StorageLocation:    in.StorageLocation,
		QualityGrade:       in.QualityGrade,
		ProcessingBatchRef: in.ProcessingBatchRef,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.NetWeightKg != nil {
		rec.NetWeightKg = in.NetWeightKg.Float()
	}
	if in.UnitsPacked != nil {
		rec.UnitsPacked = in.UnitsPacked.Int()
	}
	if in.ExpirationDate != "" {
		exp, err := ParseTime(in.ExpirationDate)
		if err != nil {
			return InventoryRecord{}, errs.ValidationFields("invalid fields: expirationDate",
				map[string]string{"expirationDate": "date"})
		}
		rec.ExpirationDate = &exp
	}
	return rec, nil
}

// InventoryPatch is a partial edit of an inventory record. The owning
// processing batch cannot be changed, so processingBatchRef is not
// accepted.
type InventoryPatch struct {
	BatchID         *string   `json:"batchId" binding:"omitempty,min=1"`
	ProductType     *string   `json:"productType" binding:"omitempty,oneof='Jaggery Powder' 'Jaggery Block' 'Liquid Sugar'"`
	NetWeightKg     *Quantity `json:"netWeightKg" binding:"omitempty,gt=0"`
	UnitsPacked     *Count    `json:"unitsPacked" binding:"omitempty,gte=0"`
	PackagingType   *string   `json:"packagingType"`
	StorageLocation *string   `json:"storageLocation"`
	QualityGrade    *string   `json:"qualityGrade"`
	ExpirationDate  *string   `json:"expirationDate"`
}

// Updates returns the stored fields the patch replaces.
func (p InventoryPatch) Updates() (map[string]any, error) {
	set := map[string]any{}
	if p.BatchID != nil {
		set["batchId"] = *p.BatchID
	}
	if p.ProductType != nil {
		set["productType"] = ProductType(*p.ProductType)
	}
	if p.NetWeightKg != nil {
		set["netWeightKg"] = p.NetWeightKg.Float()
	}
	if p.UnitsPacked != nil {
		set["unitsPacked"] = p.UnitsPacked.Int()
	}
	if p.PackagingType != nil {
		set["packagingType"] = *p.PackagingType
	}
	if p.StorageLocation != nil {
		set["storageLocation"] = *p.StorageLocation
	}
	if p.QualityGrade != nil {
		set["qualityGrade"] = *p.QualityGrade
	}
	if p.ExpirationDate != nil {
		exp, err := ParseTime(*p.ExpirationDate)
		if err != nil {
			return nil, errs.ValidationFields("invalid fields: expirationDate",
				map[string]string{"expirationDate": "date"})
		}
		set["expirationDate"] = exp
	}
	return set, nil
}
