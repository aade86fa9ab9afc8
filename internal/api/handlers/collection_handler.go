package handlers

import (
	"net/http"

	"bloodlink-api-server/internal/engine"

	"github.com/gin-gonic/gin"
)

type CollectionHandler struct {
	Engine *engine.Engine
}

type RecordCollectionBody struct {
	Identifier    string  `json:"identifier" binding:"required"`
	BloodGroup    string  `json:"bloodGroup" binding:"required"`
	QuantityUnits int     `json:"quantityUnits" binding:"required,min=1"`
	Location      string  `json:"location" binding:"required"`
	Notes         string  `json:"notes"`
	DonorName     string  `json:"donorName"`
	DonorSex      string  `json:"donorSex"`
	DonorAge      int     `json:"donorAge"`
	DonorWeight   float64 `json:"donorWeight"`
}

// Record stores one collection event and the inventory batch it produced.
func (h *CollectionHandler) Record(c *gin.Context) {
	var body RecordCollectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.Engine.RecordCollection(c.Request.Context(), actorFrom(c), engine.RecordCollectionInput{
		Identifier:    body.Identifier,
		BloodGroup:    body.BloodGroup,
		QuantityUnits: body.QuantityUnits,
		Location:      body.Location,
		Notes:         body.Notes,
		DonorName:     body.DonorName,
		DonorSex:      body.DonorSex,
		DonorAge:      body.DonorAge,
		DonorWeight:   body.DonorWeight,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// SearchDonor looks up registered donors by name, phone or BloodLink ID so
// a collector can link a collection to the right profile.
func (h *CollectionHandler) SearchDonor(c *gin.Context) {
	donors, err := h.Engine.SearchDonors(c.Request.Context(), actorFrom(c), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(donors), "data": donors})
}

// Mine lists the collection events recorded by the caller.
func (h *CollectionHandler) Mine(c *gin.Context) {
	records, err := h.Engine.MyCollections(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
