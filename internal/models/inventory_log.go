package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryLog is an immutable audit record, written exactly once per
// mutating action on a batch. Units is the amount moved by the action, not
// the remaining balance. BatchNumber and BloodGroup are snapshots so history
// survives the batch itself.
type InventoryLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InventoryID primitive.ObjectID `bson:"inventoryId" json:"inventoryId"`
	HospitalID  primitive.ObjectID `bson:"hospitalId" json:"hospitalId"`
	Action      string             `bson:"action" json:"action"` // "used", "discarded", "added", "transfer"
	Units       int                `bson:"units" json:"units"`
	BloodGroup  string             `bson:"bloodGroup" json:"bloodGroup"`
	BatchNumber string             `bson:"batchNumber" json:"batchNumber"`
	Details     string             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

const (
	LogActionUsed      = "used"
	LogActionDiscarded = "discarded"
	LogActionAdded     = "added"
	LogActionTransfer  = "transfer"
)
