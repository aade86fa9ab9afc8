package database

import (
	"context"
	"time"

	"bloodlink-api-server/internal/auth"
	"bloodlink-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedAdmin creates the bootstrap admin account on first startup.
func SeedAdmin(ctx context.Context, db *mongo.Database, email, password string, log *zap.Logger) error {
	userCollection := db.Collection("users")

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info("admin already exists, seeding skipped")
		return nil
	}

	log.Info("admin not found, seeding", zap.String("email", email))
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := models.User{
		Name:        "Administrator",
		Email:       email,
		Password:    hashedPassword,
		Role:        models.RoleAdmin,
		BloodLinkID: "BL-ADMIN",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := userCollection.InsertOne(ctx, admin); err != nil {
		return err
	}

	log.Info("admin seeded")
	return nil
}
