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

type RequestStore struct {
	col *mongo.Collection
}

func NewRequestStore(db *mongo.Database) *RequestStore {
	return &RequestStore{col: db.Collection("requests")}
}

func (s *RequestStore) Insert(ctx context.Context, r *models.Request) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Volunteers == nil {
		r.Volunteers = []models.Volunteer{}
	}
	if r.StockAssignments == nil {
		r.StockAssignments = []models.StockAssignment{}
	}

	result, err := s.col.InsertOne(ctx, r)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		r.ID = oid
	}
	return nil
}

func (s *RequestStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListActive returns every request except cancelled ones, most urgent
// first and newest within the same urgency.
func (s *RequestStore) ListActive(ctx context.Context) ([]models.Request, error) {
	filter := bson.M{"status": bson.M{"$ne": models.RequestCancelled}}
	opts := options.Find().SetSort(bson.D{
		{Key: "urgency", Value: 1},
		{Key: "createdAt", Value: -1},
	})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return requests, nil
}

// AddVolunteer pushes a pending application. The filter excludes requests
// that already list the donor, so double-applying matches nothing.
func (s *RequestStore) AddVolunteer(ctx context.Context, requestID, donorID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":             requestID,
		"volunteers.user": bson.M{"$ne": donorID},
	}
	update := bson.M{
		"$push": bson.M{"volunteers": models.Volunteer{User: donorID, Status: models.VolunteerPending}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	result, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// AssignVolunteer flips the donor's embedded entry to "assigned" via the
// positional operator and moves the request to "arranging".
func (s *RequestStore) AssignVolunteer(ctx context.Context, requestID, donorID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":             requestID,
		"volunteers.user": donorID,
	}
	update := bson.M{
		"$set": bson.M{
			"volunteers.$.status": models.VolunteerAssigned,
			"status":              models.RequestArranging,
			"updatedAt":           time.Now(),
		},
	}

	result, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (s *RequestStore) AppendStockAssignment(ctx context.Context, requestID primitive.ObjectID, sa models.StockAssignment, holderID, actorID primitive.ObjectID) error {
	update := bson.M{
		"$push": bson.M{"stockAssignments": sa},
		"$set": bson.M{
			"status":      models.RequestArranging,
			"fulfilledBy": actorID,
			"updatedAt":   time.Now(),
		},
	}
	result, err := s.col.UpdateOne(ctx, bson.M{"_id": requestID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return engine.ErrNotFound
	}

	// First assignment wins: only set the holder org when none is recorded.
	_, err = s.col.UpdateOne(ctx,
		bson.M{"_id": requestID, "hospitalId": nil},
		bson.M{"$set": bson.M{"hospitalId": holderID}})
	return err
}

func (s *RequestStore) SetStatus(ctx context.Context, requestID primitive.ObjectID, status string) error {
	result, err := s.col.UpdateOne(ctx,
		bson.M{"_id": requestID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *RequestStore) AddAttachment(ctx context.Context, requestID primitive.ObjectID, url string) error {
	result, err := s.col.UpdateOne(ctx,
		bson.M{"_id": requestID},
		bson.M{
			"$push": bson.M{"attachments": url},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// ListByRequester lists a user's own requests, newest first. Used by the
// profile endpoints, not by the engine.
func (s *RequestStore) ListByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]models.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"requesterId": requesterID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return requests, nil
}
