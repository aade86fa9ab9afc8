package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory is one batch of blood units: a single blood group held by one
// hospital or blood bank, tracked with an expiry date and a unique batch
// number.
type Inventory struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// The organization holding the stock (hospital or blood bank).
	HospitalID primitive.ObjectID `bson:"hospitalId" json:"hospitalId"`

	// The donor who provided this specific bag, for traceability.
	DonorID *primitive.ObjectID `bson:"donorId,omitempty" json:"donorId,omitempty"`

	BloodGroup  string    `bson:"bloodGroup" json:"bloodGroup"`
	Units       int       `bson:"units" json:"units"` // never negative
	BatchNumber string    `bson:"batchNumber" json:"batchNumber"`
	ExpiryDate  time.Time `bson:"expiryDate" json:"expiryDate"`

	UsageDetails string `bson:"usageDetails,omitempty" json:"usageDetails,omitempty"`
	Status       string `bson:"status" json:"status"`
	Source       string `bson:"source,omitempty" json:"source,omitempty"` // e.g., "collection_drive"

	// Audit trail: who processed this entry.
	ProcessedBy primitive.ObjectID `bson:"processedBy,omitempty" json:"processedBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Batch statuses. A batch at zero units is "used", "discarded" or
// "depleted"; once there it is never resurrected.
const (
	BatchAvailable = "available"
	BatchReserved  = "reserved"
	BatchUsed      = "used"
	BatchExpired   = "expired"
	BatchDiscarded = "discarded"
	BatchDepleted  = "depleted"
)
