package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// EventSource tags where a calendar event came from
type EventSource string

const (
	SourceGoogle  EventSource = "google"
	SourceOutlook EventSource = "outlook"
	SourceApple   EventSource = "apple"
	SourceManual  EventSource = "manual"
)

// Task categories are free-form labels, not enforced at storage.
// These are the ones the UI offers.
const (
	CategoryWork     = "work"
	CategoryPersonal = "personal"
	CategoryFinance  = "finance"
	CategoryHealth   = "health"
	CategoryLearning = "learning"
)

// User represents an identity record. Created on first authentication,
// never hard-deleted in normal operation.
type User struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(255)"`
	Email           string    `json:"email" gorm:"uniqueIndex;not null"`
	Password        string    `json:"-"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Task is a to-do item owned by a user.
// Invariant: CompletedAt is non-nil if and only if Completed is true.
type Task struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            string     `json:"userId" gorm:"not null;index;type:varchar(255)"`
	Title             string     `json:"title" gorm:"not null"`
	Description       *string    `json:"description,omitempty"`
	Category          string     `json:"category" gorm:"not null;type:varchar(50)"`
	Priority          string     `json:"priority" gorm:"not null;type:varchar(10);default:'medium'"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	EstimatedDuration *int       `json:"estimatedDuration,omitempty"` // minutes
	Completed         bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time  `json:"updatedAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// CalendarEvent is a scheduled block of time. Invariant: EndTime > StartTime.
// Externally-synced events carry the provider's id in ExternalID; the composite
// unique index keeps a sync from importing the same provider event twice.
type CalendarEvent struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserID        string     `json:"userId" gorm:"not null;index;type:varchar(255);uniqueIndex:idx_events_user_source_external"`
	ExternalID    *string    `json:"externalId,omitempty" gorm:"type:varchar(255);uniqueIndex:idx_events_user_source_external"`
	Title         string     `json:"title" gorm:"not null"`
	Description   *string    `json:"description,omitempty"`
	StartTime     time.Time  `json:"startTime" gorm:"not null;index"`
	EndTime       time.Time  `json:"endTime" gorm:"not null"`
	Location      *string    `json:"location,omitempty"`
	Source        string     `json:"source" gorm:"not null;type:varchar(20);uniqueIndex:idx_events_user_source_external"`
	IsAiGenerated bool       `json:"isAiGenerated" gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// CalendarIntegration stores OAuth connection state for one (user, provider) pair.
type CalendarIntegration struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"userId" gorm:"not null;type:varchar(255);uniqueIndex:idx_integrations_user_provider"`
	Provider     string     `json:"provider" gorm:"not null;type:varchar(20);uniqueIndex:idx_integrations_user_provider"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  *time.Time `json:"tokenExpiry,omitempty"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true"`
	LastSync     *time.Time `json:"lastSync,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time  `json:"updatedAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// AiPlan is one record per plan-generation invocation. Multiple plans may exist
// for the same user and day; the latest CreatedAt wins. Rows are never updated
// after creation except the Applied flag, and never deleted.
type AiPlan struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"userId" gorm:"not null;index;type:varchar(255)"`
	PlanDate    time.Time      `json:"planDate" gorm:"not null;index"`
	Suggestions datatypes.JSON `json:"suggestions" gorm:"not null;type:jsonb"`
	Applied     bool           `json:"applied" gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// UserPreferences holds at most one row per user, keyed by the UserID
// uniqueness constraint. Absence is a valid state for new users.
type UserPreferences struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        string         `json:"userId" gorm:"not null;uniqueIndex;type:varchar(255)"`
	WorkingHours  datatypes.JSON `json:"workingHours,omitempty" gorm:"type:jsonb"` // {"start":"09:00","end":"17:00"}
	TimeZone      string         `json:"timeZone" gorm:"type:varchar(100);default:'America/New_York'"`
	AiEnabled     bool           `json:"aiEnabled" gorm:"not null;default:true"`
	Notifications datatypes.JSON `json:"notifications,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// WorkingHours is the decoded shape of UserPreferences.WorkingHours.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DefaultWorkingHours is what callers assume when no preferences row exists.
var DefaultWorkingHours = WorkingHours{Start: "09:00", End: "17:00"}

// DefaultTimeZone is applied when preferences are absent or blank.
const DefaultTimeZone = "America/New_York"
