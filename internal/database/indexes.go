package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the queries and uniqueness guarantees
// rely on. Safe to run on every startup; existing indexes are no-ops.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "bloodLinkId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}

	inventoryIndexes := []mongo.IndexModel{
		{
			// Batch numbers are globally unique.
			Keys:    bson.D{{Key: "batchNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// FIFO scans by holder.
			Keys: bson.D{
				{Key: "hospitalId", Value: 1},
				{Key: "status", Value: 1},
				{Key: "expiryDate", Value: 1},
			},
		},
		{
			// Cross-org compatible-stock matching.
			Keys: bson.D{
				{Key: "bloodGroup", Value: 1},
				{Key: "status", Value: 1},
				{Key: "expiryDate", Value: 1},
			},
		},
	}
	if _, err := db.Collection("inventories").Indexes().CreateMany(ctx, inventoryIndexes); err != nil {
		return err
	}

	requestIndexes := []mongo.IndexModel{
		{
			// The active feed sort.
			Keys: bson.D{
				{Key: "urgency", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "requesterId", Value: 1}},
		},
	}
	if _, err := db.Collection("requests").Indexes().CreateMany(ctx, requestIndexes); err != nil {
		return err
	}

	logIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "hospitalId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	}
	if _, err := db.Collection("inventory_logs").Indexes().CreateMany(ctx, logIndexes); err != nil {
		return err
	}

	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	}
	if _, err := db.Collection("notifications").Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return err
	}

	return nil
}
