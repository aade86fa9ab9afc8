package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app message for one user. Delivery is best-effort;
// the triggering state change never waits on it.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Type      string              `bson:"type" json:"type"` // e.g., "request_fulfilled", "volunteer_selected"
	Message   string              `bson:"message" json:"message"`
	RelatedID *primitive.ObjectID `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
	Status    string              `bson:"status" json:"status"` // "unread" or "read"
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)
