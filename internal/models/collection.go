package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BloodCollection records a collection event taken by a collector, either
// from a registered donor (resolved by BloodLink ID or phone) or a walk-in.
// The donor snapshot fields are kept even when DonorID resolves, so the
// record stands on its own.
type BloodCollection struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CollectorID primitive.ObjectID  `bson:"collectorId" json:"collectorId"`
	DonorID     *primitive.ObjectID `bson:"donorId,omitempty" json:"donorId,omitempty"`
	Identifier  string              `bson:"identifier" json:"identifier"`

	DonorName   string  `bson:"donorName" json:"donorName"`
	DonorSex    string  `bson:"donorSex,omitempty" json:"donorSex,omitempty"`
	DonorAge    int     `bson:"donorAge,omitempty" json:"donorAge,omitempty"`
	DonorWeight float64 `bson:"donorWeight,omitempty" json:"donorWeight,omitempty"`

	BloodGroup    string `bson:"bloodGroup" json:"bloodGroup"`
	QuantityUnits int    `bson:"quantityUnits" json:"quantityUnits"`
	BatchNumber   string `bson:"batchNumber" json:"batchNumber"`
	Location      string `bson:"location" json:"location"`
	Notes         string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
