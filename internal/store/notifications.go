package store

import (
	"context"
	"time"

	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationStore struct {
	col *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) *NotificationStore {
	return &NotificationStore{col: db.Collection("notifications")}
}

func (s *NotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	n.Status = models.NotificationUnread
	n.CreatedAt = time.Now()

	result, err := s.col.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

func (s *NotificationStore) ListByRecipient(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	cursor, err := s.col.Find(ctx, bson.M{"recipient": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flips one notification owned by the recipient.
func (s *NotificationStore) MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	result, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipientID},
		bson.M{"$set": bson.M{"status": models.NotificationRead}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	result, err := s.col.UpdateMany(ctx,
		bson.M{"recipient": recipientID, "status": models.NotificationUnread},
		bson.M{"$set": bson.M{"status": models.NotificationRead}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
