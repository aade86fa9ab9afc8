package store

import (
	"context"
	"time"

	"bloodlink-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionStore struct {
	col *mongo.Collection
}

func NewCollectionStore(db *mongo.Database) *CollectionStore {
	return &CollectionStore{col: db.Collection("blood_collections")}
}

func (s *CollectionStore) Insert(ctx context.Context, c *models.BloodCollection) error {
	c.CreatedAt = time.Now()
	result, err := s.col.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

func (s *CollectionStore) ListByCollector(ctx context.Context, collectorID primitive.ObjectID) ([]models.BloodCollection, error) {
	return s.find(ctx, bson.M{"collectorId": collectorID})
}

func (s *CollectionStore) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.BloodCollection, error) {
	return s.find(ctx, bson.M{"donorId": donorID})
}

func (s *CollectionStore) find(ctx context.Context, filter bson.M) ([]models.BloodCollection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.BloodCollection
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.BloodCollection{}
	}
	return records, nil
}
