package handlers

import (
	"net/http"
	"time"

	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	Engine *engine.Engine
}

type AddBatchBody struct {
	BloodGroup  string    `json:"bloodGroup" binding:"required"`
	Units       int       `json:"units"`
	BatchNumber string    `json:"batchNumber" binding:"required"`
	ExpiryDate  time.Time `json:"expiryDate" binding:"required"`
	Source      string    `json:"source"`
}

// AddBatch registers new stock for the caller's organization.
func (h *InventoryHandler) AddBatch(c *gin.Context) {
	var body AddBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.Engine.AddBatch(c.Request.Context(), actorFrom(c), &models.Inventory{
		BloodGroup:  body.BloodGroup,
		Units:       body.Units,
		BatchNumber: body.BatchNumber,
		ExpiryDate:  body.ExpiryDate,
		Source:      body.Source,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// List returns the caller's available stock, soonest expiry first.
func (h *InventoryHandler) List(c *gin.Context) {
	batches, err := h.Engine.ListStock(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

type UpdateBatchStatusBody struct {
	Status       string `json:"status" binding:"required"`
	UnitsUsed    int    `json:"unitsUsed"`
	UsageDetails string `json:"usageDetails"`
}

// UpdateStatus applies a manual deduction or discard to a batch.
func (h *InventoryHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body UpdateBatchStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.Engine.UpdateBatchStatus(c.Request.Context(), actorFrom(c), id, body.Status, body.UnitsUsed, body.UsageDetails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// History returns the caller's audit log, newest first.
func (h *InventoryHandler) History(c *gin.Context) {
	entries, err := h.Engine.StockHistory(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
