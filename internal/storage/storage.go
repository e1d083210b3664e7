// Package storage defines the persistence capability the rest of the
// application is written against, plus its interchangeable implementations:
// a gorm-backed store (PostgreSQL or SQLite) and an in-memory store for
// demo mode and tests. The implementation is selected once at process start.
package storage

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"tasksync/internal/models"
)

// TaskInput carries the caller-settable fields for a new task.
// Completed and CompletedAt are never accepted from callers.
type TaskInput struct {
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	Category          string     `json:"category"`
	Priority          string     `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	EstimatedDuration *int       `json:"estimatedDuration"`
}

// TaskUpdate is a partial update; nil fields keep their stored value.
type TaskUpdate struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Category          *string    `json:"category"`
	Priority          *string    `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	EstimatedDuration *int       `json:"estimatedDuration"`
}

// EventInput carries the caller-settable fields for a new calendar event.
type EventInput struct {
	ExternalID    *string    `json:"externalId"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Location      *string    `json:"location"`
	Source        string     `json:"source"`
	IsAiGenerated bool       `json:"isAiGenerated"`
}

// EventUpdate is a partial update; nil fields keep their stored value.
type EventUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Location    *string    `json:"location"`
}

// IntegrationTokens is the OAuth state persisted after a provider handshake.
type IntegrationTokens struct {
	AccessToken  string
	RefreshToken string
	TokenExpiry  *time.Time
}

// PreferencesInput is a partial preferences write. On update, nil fields
// retain the stored value; on first insert, store defaults apply.
type PreferencesInput struct {
	WorkingHours  *models.WorkingHours `json:"workingHours"`
	TimeZone      *string              `json:"timeZone"`
	AiEnabled     *bool                `json:"aiEnabled"`
	Notifications datatypes.JSON       `json:"notifications"`
}

// Storage is the single capability interface over all six tables.
// Every operation takes an explicit user or record id; nothing here reads
// ambient request state.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)

	// Tasks
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	ListTasksDueOn(ctx context.Context, userID string, date time.Time) ([]models.Task, error)
	CreateTask(ctx context.Context, userID string, input TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, taskID uint, update TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID uint) error
	ToggleCompletion(ctx context.Context, taskID uint) (*models.Task, error)

	// Calendar events
	ListEventsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEvent, error)
	CreateEvent(ctx context.Context, userID string, input EventInput) (*models.CalendarEvent, error)
	UpdateEvent(ctx context.Context, eventID uint, update EventUpdate) (*models.CalendarEvent, error)
	DeleteEvent(ctx context.Context, eventID uint) error

	// Calendar integrations
	ListIntegrations(ctx context.Context, userID string) ([]models.CalendarIntegration, error)
	GetIntegration(ctx context.Context, id uint) (*models.CalendarIntegration, error)
	UpsertIntegration(ctx context.Context, userID, provider string, tokens IntegrationTokens) (*models.CalendarIntegration, error)
	SetIntegrationActive(ctx context.Context, id uint, active bool) (*models.CalendarIntegration, error)
	RecordSync(ctx context.Context, id uint, at time.Time) error
	DeleteIntegration(ctx context.Context, id uint) error

	// AI plans
	SavePlan(ctx context.Context, userID string, planDate time.Time, suggestions datatypes.JSON) (*models.AiPlan, error)
	GetLatestPlan(ctx context.Context, userID string, date time.Time) (*models.AiPlan, error)
	MarkPlanApplied(ctx context.Context, planID uint, applied bool) (*models.AiPlan, error)

	// Preferences. GetPreferences returns (nil, nil) when no row exists;
	// absence is a normal state and callers supply defaults.
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)
	UpsertPreferences(ctx context.Context, userID string, input PreferencesInput) (*models.UserPreferences, error)

	Close() error
}

func validateTaskInput(input TaskInput) error {
	if input.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if input.Category == "" {
		return &ValidationError{Field: "category", Reason: "category is required"}
	}
	if input.EstimatedDuration != nil && *input.EstimatedDuration <= 0 {
		return &ValidationError{Field: "estimatedDuration", Reason: "estimated duration must be positive"}
	}
	return nil
}

func validateEventInput(input EventInput) error {
	if input.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if input.Source == "" {
		return &ValidationError{Field: "source", Reason: "source is required"}
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() {
		return &ValidationError{Field: "startTime", Reason: "start and end times are required"}
	}
	if !input.EndTime.After(input.StartTime) {
		return &ValidationError{Field: "endTime", Reason: "end time must be after start time"}
	}
	return nil
}

// normalizePriority maps arbitrary priority strings onto the stored set,
// defaulting to medium the way the task API always has.
func normalizePriority(p string) string {
	switch models.TaskPriority(p) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return p
	default:
		return string(models.PriorityMedium)
	}
}
