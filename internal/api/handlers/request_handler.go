package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"bloodlink-api-server/internal/cache"
	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/s3"
	"bloodlink-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestHandler struct {
	Engine   *engine.Engine
	Requests *store.RequestStore
	Feed     *cache.FeedCache
	Uploader *s3.Uploader
}

type CreateRequestBody struct {
	PatientName string `json:"patientName" binding:"required"`
	BloodGroup  string `json:"bloodGroup" binding:"required"`
	Units       int    `json:"units" binding:"required,min=1"`
	Location    string `json:"location" binding:"required"`
	Urgency     string `json:"urgency"`
}

// Create opens a new emergency request.
func (h *RequestHandler) Create(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.Engine.CreateRequest(c.Request.Context(), actorFrom(c), engine.CreateRequestInput{
		PatientName: body.PatientName,
		BloodGroup:  body.BloodGroup,
		Units:       body.Units,
		Location:    body.Location,
		Urgency:     body.Urgency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.Feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, req)
}

// ActiveFeed serves the public emergency feed, read through the cache.
func (h *RequestHandler) ActiveFeed(c *gin.Context) {
	ctx := c.Request.Context()
	if cached := h.Feed.Get(ctx); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	requests, err := h.Engine.ActiveRequests(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}

	h.Feed.Set(ctx, requests)
	c.JSON(http.StatusOK, requests)
}

// Get returns one request by id.
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := h.Requests.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	c.JSON(http.StatusOK, req)
}

// Mine lists the caller's own requests.
func (h *RequestHandler) Mine(c *gin.Context) {
	requests, err := h.Requests.ListByRequester(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

// Volunteer records the caller as a volunteer donor on the request.
func (h *RequestHandler) Volunteer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Engine.Volunteer(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.Feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Thank you for volunteering"})
}

// Match lists compatible available stock for the request.
func (h *RequestHandler) Match(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	batches, err := h.Engine.MatchStock(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

type FulfillBody struct {
	InventoryID string `json:"inventoryId" binding:"required"`
	UnitsUsed   int    `json:"unitsUsed"`
}

// Fulfill deducts units from a chosen batch against the request.
func (h *RequestHandler) Fulfill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body FulfillBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inventoryID, err := primitive.ObjectIDFromHex(body.InventoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inventoryId"})
		return
	}

	batch, err := h.Engine.FulfillWithStock(c.Request.Context(), actorFrom(c), id, inventoryID, body.UnitsUsed)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "batch": batch})
}

type AssignVolunteerBody struct {
	VolunteerID string `json:"volunteerId" binding:"required"`
}

// AssignVolunteer confirms one of the applied donors for the request.
func (h *RequestHandler) AssignVolunteer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body AssignVolunteerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	volunteerID, err := primitive.ObjectIDFromHex(body.VolunteerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid volunteerId"})
		return
	}

	if err := h.Engine.AssignVolunteer(c.Request.Context(), actorFrom(c), id, volunteerID); err != nil {
		respondError(c, err)
		return
	}
	h.Feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Volunteer assigned"})
}

// Complete closes the request as completed.
func (h *RequestHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Engine.Complete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.Feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Request completed"})
}

// Cancel withdraws a request that has not progressed past arranging.
func (h *RequestHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Engine.Cancel(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.Feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Request cancelled"})
}

// UploadAttachment stores a supporting document (doctor's note,
// prescription) in S3 and records its URL on the request.
func (h *RequestHandler) UploadAttachment(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File uploads are not configured"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	objectKey := fmt.Sprintf("requests/%s/%s%s", id.Hex(), uuid.New().String(), filepath.Ext(fileHeader.Filename))
	url, err := h.Uploader.UploadFile(c.Request.Context(), file, objectKey, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	if err := h.Engine.AttachDocument(c.Request.Context(), actorFrom(c), id, url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "url": url})
}
