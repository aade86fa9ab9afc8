package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Volunteer is one donor's application embedded in a request. The status
// flip from "pending" to "assigned" is the only mutation the entry ever
// sees; entries are never removed.
type Volunteer struct {
	User   primitive.ObjectID `bson:"user" json:"user"`
	Status string             `bson:"status" json:"status"` // "pending" or "assigned"
}

// StockAssignment records one deduction made against an inventory batch on
// behalf of a request. The list only grows.
type StockAssignment struct {
	InventoryID   primitive.ObjectID `bson:"inventoryId" json:"inventoryId"`
	UnitsAssigned int                `bson:"unitsAssigned" json:"unitsAssigned"`
	AssignedAt    time.Time          `bson:"assignedAt" json:"assignedAt"`
}

// Request is an emergency blood request with its embedded volunteer
// applications and stock assignments.
type Request struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequesterID primitive.ObjectID `bson:"requesterId" json:"requesterId"`
	PatientName string             `bson:"patientName" json:"patientName"`

	// The holder org a batch was attached from. Null until the first stock
	// assignment; the first assignment wins.
	HospitalID *primitive.ObjectID `bson:"hospitalId,omitempty" json:"hospitalId,omitempty"`

	BloodGroup string `bson:"bloodGroup" json:"bloodGroup"`
	Units      int    `bson:"units" json:"units"`
	Location   string `bson:"location" json:"location"`
	Urgency    string `bson:"urgency" json:"urgency"` // "standard" or "critical"
	Status     string `bson:"status" json:"status"`

	Volunteers       []Volunteer       `bson:"volunteers" json:"volunteers"`
	StockAssignments []StockAssignment `bson:"stockAssignments" json:"stockAssignments"`

	// Uploaded supporting documents (doctor's note, prescription), as URLs.
	Attachments []string `bson:"attachments,omitempty" json:"attachments,omitempty"`

	FulfilledBy *primitive.ObjectID `bson:"fulfilledBy,omitempty" json:"fulfilledBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Request statuses. "fulfilled" survives in filters for documents written
// by older releases but is never written anymore: "arranging" is the one
// in-progress status and "completed" the one terminal success status.
const (
	RequestPending   = "pending"
	RequestArranging = "arranging"
	RequestFulfilled = "fulfilled"
	RequestCancelled = "cancelled"
	RequestCompleted = "completed"
)

const (
	UrgencyStandard = "standard"
	UrgencyCritical = "critical"
)

const (
	VolunteerPending  = "pending"
	VolunteerAssigned = "assigned"
)
