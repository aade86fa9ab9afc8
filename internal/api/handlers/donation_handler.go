package handlers

import (
	"net/http"

	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/store"

	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	Engine *engine.Engine
	Users  *store.UserStore
}

// MyHistory returns the caller's donation records: the collection events
// they donated at and the inventory batches traced back to them.
func (h *DonationHandler) MyHistory(c *gin.Context) {
	ctx := c.Request.Context()
	actor := actorFrom(c)

	collections, err := h.Engine.MyDonationRecords(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	batches, err := h.Engine.DonationHistory(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"batches":     batches,
	})
}

// MyEligibility evaluates the caller's current donation eligibility.
func (h *DonationHandler) MyEligibility(c *gin.Context) {
	result, err := h.Engine.SelfEligibility(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Hospitals lists registered hospitals (or blood banks with ?role=bloodbank)
// so requesters and donors can find facilities near them.
func (h *DonationHandler) Hospitals(c *gin.Context) {
	role := c.DefaultQuery("role", models.RoleHospital)
	if role != models.RoleHospital && role != models.RoleBloodBank {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be hospital or bloodbank"})
		return
	}

	users, err := h.Users.List(c.Request.Context(), role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load facilities"})
		return
	}
	c.JSON(http.StatusOK, users)
}
