package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User matches the document in MongoDB. A single collection covers every
// actor kind: donors, hospitals, blood banks, collectors and admins.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	Role        string             `bson:"role" json:"role"` // e.g., "donor", "hospital", "bloodbank", "collector", "admin"
	BloodLinkID string             `bson:"bloodLinkId" json:"bloodLinkId"`
	BloodGroup  string             `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	Phone       string             `bson:"phone" json:"phone"`

	// For collectors: links them to the hospital/blood bank that owns the
	// stock they bring in.
	AffiliatedHospital *primitive.ObjectID `bson:"affiliatedHospital,omitempty" json:"affiliatedHospital,omitempty"`

	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	Location string `bson:"location" json:"location"` // area/district

	Weight           float64    `bson:"weight,omitempty" json:"weight,omitempty"`
	DateOfBirth      *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	LastDonationDate *time.Time `bson:"lastDonationDate,omitempty" json:"lastDonationDate,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

const (
	RoleDonor     = "donor"
	RoleHospital  = "hospital"
	RoleBloodBank = "bloodbank"
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)
