// Package handlers holds the gin route handlers. Every handler resolves the
// authenticated user from the session, calls into the storage layer with an
// explicit user id, and maps storage errors to HTTP statuses. Internal error
// detail is logged server-side and never returned to the client.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"tasksync/internal/calendar"
	"tasksync/internal/models"
	"tasksync/internal/planner"
	"tasksync/internal/storage"
)

const sessionUserKey = "userId"

// PlanGenerator is the slice of the planner the handlers use.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, tasks []models.Task, events []models.CalendarEvent, prefs *models.UserPreferences) planner.PlanSuggestions
}

// Handlers bundles the dependencies shared by all route handlers.
type Handlers struct {
	Store   storage.Storage
	Planner PlanGenerator
	Sync    *calendar.SyncService
}

// New builds the handler set.
func New(store storage.Storage, plan PlanGenerator, sync *calendar.SyncService) *Handlers {
	return &Handlers{Store: store, Planner: plan, Sync: sync}
}

// RequireAuth rejects requests without a valid session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(sessionUserKey).(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(sessionUserKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(sessionUserKey)
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// respondStoreError maps storage errors onto the HTTP contract:
// validation failures 400, missing records 404, duplicates 409,
// everything else a generic 500.
func respondStoreError(c *gin.Context, err error, action string) {
	var verr *storage.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": verr.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, storage.ErrDuplicateEvent):
		c.JSON(http.StatusConflict, gin.H{"message": "Event already exists"})
	default:
		log.Printf("Error: failed to %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to " + action})
	}
}

// parseDate accepts a bare calendar day or a full timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
