// Package store carries the MongoDB implementations of the engine's
// storage interfaces. Every mutator is a single-document update so the
// engine's guarantees hold without transactions.
package store

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// Stores bundles one instance of every collection-backed store.
type Stores struct {
	Requests      *RequestStore
	Inventory     *InventoryStore
	Users         *UserStore
	Collections   *CollectionStore
	Notifications *NotificationStore
}

func NewStores(db *mongo.Database) *Stores {
	return &Stores{
		Requests:      NewRequestStore(db),
		Inventory:     NewInventoryStore(db),
		Users:         NewUserStore(db),
		Collections:   NewCollectionStore(db),
		Notifications: NewNotificationStore(db),
	}
}
