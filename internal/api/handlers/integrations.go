package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasksync/internal/models"
	"tasksync/internal/storage"
)

// ListIntegrations returns the user's calendar provider connections.
func (h *Handlers) ListIntegrations(c *gin.Context) {
	integrations, err := h.Store.ListIntegrations(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondStoreError(c, err, "fetch integrations")
		return
	}
	c.JSON(http.StatusOK, integrations)
}

// SetIntegrationActiveInput DTO for toggling an integration
type SetIntegrationActiveInput struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetIntegrationActive enables or disables an integration.
func (h *Handlers) SetIntegrationActive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input SetIntegrationActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	integration, ok := h.ownedIntegration(c, id)
	if !ok {
		return
	}

	updated, err := h.Store.SetIntegrationActive(c.Request.Context(), integration.ID, *input.IsActive)
	if err != nil {
		respondStoreError(c, err, "update integration")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SyncIntegration imports upcoming events from the integration's provider.
func (h *Handlers) SyncIntegration(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	integration, ok := h.ownedIntegration(c, id)
	if !ok {
		return
	}
	if !integration.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Integration is disabled"})
		return
	}

	if err := h.Sync.Sync(c.Request.Context(), integration); err != nil {
		respondStoreError(c, err, "sync calendar")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Calendar synced successfully"})
}

// DeleteIntegration disconnects a provider and removes its synced events.
func (h *Handlers) DeleteIntegration(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, ok := h.ownedIntegration(c, id); !ok {
		return
	}

	if err := h.Store.DeleteIntegration(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete integration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ownedIntegration loads an integration and hides other users' rows
// behind a 404.
func (h *Handlers) ownedIntegration(c *gin.Context, id uint) (*models.CalendarIntegration, bool) {
	integration, err := h.Store.GetIntegration(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "fetch integration")
		return nil, false
	}
	if integration.UserID != currentUserID(c) {
		respondStoreError(c, storage.ErrNotFound, "fetch integration")
		return nil, false
	}
	return integration, true
}
