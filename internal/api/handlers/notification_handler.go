package handlers

import (
	"net/http"

	"bloodlink-api-server/internal/store"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Notifications *store.NotificationStore
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.Notifications.ListByRecipient(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead flips one of the caller's notifications to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), id, actorFrom(c).ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkAllRead flips every unread notification of the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "updated": n})
}
