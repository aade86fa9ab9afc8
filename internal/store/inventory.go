package store

import (
	"context"
	"errors"
	"time"

	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InventoryStore struct {
	col  *mongo.Collection
	logs *mongo.Collection
}

func NewInventoryStore(db *mongo.Database) *InventoryStore {
	return &InventoryStore{
		col:  db.Collection("inventories"),
		logs: db.Collection("inventory_logs"),
	}
}

func (s *InventoryStore) Insert(ctx context.Context, batch *models.Inventory) error {
	now := time.Now()
	batch.CreatedAt = now
	batch.UpdatedAt = now

	result, err := s.col.InsertOne(ctx, batch)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return engine.ErrDuplicate
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		batch.ID = oid
	}
	return nil
}

func (s *InventoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Inventory, error) {
	var batch models.Inventory
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func (s *InventoryStore) ListAvailable(ctx context.Context, holderID primitive.ObjectID) ([]models.Inventory, error) {
	filter := bson.M{
		"hospitalId": holderID,
		"status":     models.BatchAvailable,
		"units":      bson.M{"$gt": 0},
	}
	return s.find(ctx, filter, bson.D{{Key: "expiryDate", Value: 1}})
}

func (s *InventoryStore) FindCompatible(ctx context.Context, bloodGroup string, now time.Time) ([]models.Inventory, error) {
	filter := bson.M{
		"bloodGroup": bloodGroup,
		"status":     models.BatchAvailable,
		"units":      bson.M{"$gt": 0},
		"expiryDate": bson.M{"$gt": now},
	}
	return s.find(ctx, filter, bson.D{{Key: "expiryDate", Value: 1}})
}

// Deduct removes amount units in one atomic document update. The pipeline
// recomputes units and flips the status to "used" when the balance reaches
// zero, so two concurrent deductions can never overdraw the batch.
func (s *InventoryStore) Deduct(ctx context.Context, id primitive.ObjectID, amount int, usageDetails string) (*models.Inventory, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.BatchAvailable,
		"units":  bson.M{"$gte": amount},
	}
	depleted := bson.M{"$eq": bson.A{"$units", 0}}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"units":     bson.M{"$subtract": bson.A{"$units", amount}},
			"updatedAt": time.Now(),
		}},
		bson.M{"$set": bson.M{
			"status":       bson.M{"$cond": bson.A{depleted, models.BatchUsed, "$status"}},
			"usageDetails": bson.M{"$cond": bson.A{depleted, usageDetails, "$usageDetails"}},
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var batch models.Inventory
	err := s.col.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&batch)
	if err == nil {
		return &batch, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// The guarded update matched nothing; re-read to say why.
	current, ferr := s.FindByID(ctx, id)
	if ferr != nil {
		return nil, ferr
	}
	if current.Status != models.BatchAvailable {
		return nil, engine.ErrNotAvailable
	}
	return nil, engine.ErrInsufficient
}

// Discard zeroes an available batch and reports how many units were
// removed.
func (s *InventoryStore) Discard(ctx context.Context, id primitive.ObjectID) (*models.Inventory, int, error) {
	filter := bson.M{"_id": id, "status": models.BatchAvailable}
	update := bson.M{"$set": bson.M{
		"units":     0,
		"status":    models.BatchDiscarded,
		"updatedAt": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before models.Inventory
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, err
		}
		if _, ferr := s.FindByID(ctx, id); ferr != nil {
			return nil, 0, ferr
		}
		return nil, 0, engine.ErrNotAvailable
	}

	removed := before.Units
	before.Units = 0
	before.Status = models.BatchDiscarded
	return &before, removed, nil
}

func (s *InventoryStore) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Inventory, error) {
	return s.find(ctx, bson.M{"donorId": donorID}, bson.D{{Key: "createdAt", Value: -1}})
}

func (s *InventoryStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":     models.BatchAvailable,
		"expiryDate": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.BatchExpired,
		"updatedAt": now,
	}}

	result, err := s.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (s *InventoryStore) AppendLog(ctx context.Context, entry *models.InventoryLog) error {
	entry.CreatedAt = time.Now()
	result, err := s.logs.InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}
	return nil
}

func (s *InventoryStore) History(ctx context.Context, holderID primitive.ObjectID) ([]models.InventoryLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.logs.Find(ctx, bson.M{"hospitalId": holderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.InventoryLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.InventoryLog{}
	}
	return entries, nil
}

func (s *InventoryStore) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Inventory, error) {
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var batches []models.Inventory
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	if batches == nil {
		batches = []models.Inventory{}
	}
	return batches, nil
}
