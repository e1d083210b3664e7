package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasksync/internal/timeutil"
)

// GeneratePlanInput DTO for requesting a daily plan
type GeneratePlanInput struct {
	Date string `json:"date"`
}

// GeneratePlan gathers the day's tasks, events and preferences, asks the
// planner for suggestions and appends the result as a new plan record.
// The planner degrades to its fallback payload internally, so a provider
// outage still produces a 200 with a saved plan.
func (h *Handlers) GeneratePlan(c *gin.Context) {
	var input GeneratePlanInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	planDate := time.Now()
	if input.Date != "" {
		t, err := parseDate(input.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date"})
			return
		}
		planDate = t
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)

	tasks, err := h.Store.ListTasksDueOn(ctx, userID, planDate)
	if err != nil {
		respondStoreError(c, err, "generate AI plan")
		return
	}
	dayStart, dayEnd := timeutil.DayBounds(planDate)
	events, err := h.Store.ListEventsInRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		respondStoreError(c, err, "generate AI plan")
		return
	}
	prefs, err := h.Store.GetPreferences(ctx, userID)
	if err != nil {
		respondStoreError(c, err, "generate AI plan")
		return
	}

	suggestions := h.Planner.GeneratePlan(ctx, tasks, events, prefs)
	raw, err := json.Marshal(suggestions)
	if err != nil {
		respondStoreError(c, err, "generate AI plan")
		return
	}

	plan, err := h.Store.SavePlan(ctx, userID, planDate, raw)
	if err != nil {
		respondStoreError(c, err, "generate AI plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetPlan returns the latest plan for the requested day, or null.
func (h *Handlers) GetPlan(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date"})
		return
	}

	plan, err := h.Store.GetLatestPlan(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		respondStoreError(c, err, "fetch AI plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// MarkPlanAppliedInput DTO for flagging a plan as applied
type MarkPlanAppliedInput struct {
	Applied *bool `json:"applied" binding:"required"`
}

// MarkPlanApplied sets the applied flag, the only mutable field on a plan.
func (h *Handlers) MarkPlanApplied(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input MarkPlanAppliedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	plan, err := h.Store.MarkPlanApplied(c.Request.Context(), id, *input.Applied)
	if err != nil {
		respondStoreError(c, err, "update AI plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}
