package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasksync/internal/models"
	"tasksync/internal/storage"
)

// ListEvents returns the user's events inside the requested range,
// defaulting to the coming week.
func (h *Handlers) ListEvents(c *gin.Context) {
	start := time.Now()
	end := start.Add(7 * 24 * time.Hour)
	if raw := c.Query("start"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid start date"})
			return
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid end date"})
			return
		}
		end = t
	}

	events, err := h.Store.ListEventsInRange(c.Request.Context(), currentUserID(c), start, end)
	if err != nil {
		respondStoreError(c, err, "fetch calendar events")
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent creates a manual calendar event for the user.
func (h *Handlers) CreateEvent(c *gin.Context) {
	var input storage.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if input.Source == "" {
		input.Source = string(models.SourceManual)
	}

	event, err := h.Store.CreateEvent(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondStoreError(c, err, "create calendar event")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// UpdateEvent applies a partial update to an event.
func (h *Handlers) UpdateEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var update storage.EventUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	event, err := h.Store.UpdateEvent(c.Request.Context(), id, update)
	if err != nil {
		respondStoreError(c, err, "update calendar event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes an event permanently.
func (h *Handlers) DeleteEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.Store.DeleteEvent(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete calendar event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
