package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasksync/internal/storage"
)

// GetPreferences returns the user's preferences row, or null for new users.
// Callers supply defaults on null; absence is not an error.
func (h *Handlers) GetPreferences(c *gin.Context) {
	prefs, err := h.Store.GetPreferences(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondStoreError(c, err, "fetch preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpsertPreferences creates or partially updates the user's preferences row.
func (h *Handlers) UpsertPreferences(c *gin.Context) {
	var input storage.PreferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	prefs, err := h.Store.UpsertPreferences(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondStoreError(c, err, "update preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}
