// Package handlers carries the gin handlers. Each handler struct holds
// exactly the collaborators it needs; translation between engine errors
// and HTTP statuses lives here.
package handlers

import (
	"net/http"

	"bloodlink-api-server/internal/api/middleware"
	"bloodlink-api-server/internal/engine"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// actorFrom reads the authenticated caller placed in the context by the
// Authenticate middleware.
func actorFrom(c *gin.Context) engine.Actor {
	userID, _ := c.Get(middleware.CtxUserID)
	role, _ := c.Get(middleware.CtxRole)

	actor := engine.Actor{}
	if id, ok := userID.(primitive.ObjectID); ok {
		actor.ID = id
	}
	if r, ok := role.(string); ok {
		actor.Role = r
	}
	return actor
}

// pathID parses the ":id" path parameter as an ObjectID, answering 400
// itself when it is malformed.
func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError maps an engine error to its HTTP status.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch engine.KindOf(err) {
	case engine.KindValidation:
		status = http.StatusBadRequest
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindConflict, engine.KindInsufficientStock:
		status = http.StatusConflict
	case engine.KindForbidden:
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
