// Package seed loads the demo dataset used to showcase the app locally.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tasksync/internal/models"
	"tasksync/internal/planner"
	"tasksync/internal/storage"
)

// Demo account credentials.
const (
	DemoUserID   = "demo-user"
	DemoEmail    = "demo@tasksync.ai"
	DemoPassword = "demo-password"
)

// Load inserts the demo user with sample tasks, events, preferences and one
// AI plan. Duplicate events from a previous run are skipped.
func Load(ctx context.Context, store storage.Storage) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	user, err := store.UpsertUser(ctx, &models.User{
		ID:        DemoUserID,
		Email:     DemoEmail,
		Password:  string(hash),
		FirstName: "Demo",
		LastName:  "User",
	})
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	if err := seedTasks(ctx, store, user.ID); err != nil {
		return err
	}
	if err := seedEvents(ctx, store, user.ID); err != nil {
		return err
	}

	workingHours := models.DefaultWorkingHours
	aiEnabled := true
	notifications, _ := json.Marshal(map[string]bool{"email": true, "push": true})
	if _, err := store.UpsertPreferences(ctx, user.ID, storage.PreferencesInput{
		WorkingHours:  &workingHours,
		AiEnabled:     &aiEnabled,
		Notifications: notifications,
	}); err != nil {
		return fmt.Errorf("seed preferences: %w", err)
	}

	return seedPlan(ctx, store, user.ID)
}

func seedTasks(ctx context.Context, store storage.Storage, userID string) error {
	now := time.Now()
	inputs := []storage.TaskInput{
		{
			Title:             "Complete quarterly report",
			Description:       strptr("Analyze Q4 performance metrics and prepare presentation"),
			Category:          models.CategoryWork,
			Priority:          string(models.PriorityHigh),
			DueDate:           timeptr(now.Add(24 * time.Hour)),
			EstimatedDuration: intptr(180),
		},
		{
			Title:             "Schedule dentist appointment",
			Description:       strptr("Call Dr. Smith's office for routine checkup"),
			Category:          models.CategoryHealth,
			Priority:          string(models.PriorityMedium),
			DueDate:           timeptr(now.Add(3 * 24 * time.Hour)),
			EstimatedDuration: intptr(15),
		},
		{
			Title:             "Review investment portfolio",
			Description:       strptr("Check performance and rebalance if needed"),
			Category:          models.CategoryFinance,
			Priority:          string(models.PriorityMedium),
			DueDate:           timeptr(now.Add(7 * 24 * time.Hour)),
			EstimatedDuration: intptr(60),
		},
		{
			Title:             "Grocery shopping",
			Description:       strptr("Weekly grocery run - milk, bread, vegetables"),
			Category:          models.CategoryPersonal,
			Priority:          string(models.PriorityLow),
			DueDate:           timeptr(now),
			EstimatedDuration: intptr(45),
		},
		{
			Title:             "Learn React hooks",
			Description:       strptr("Complete online course on advanced React patterns"),
			Category:          models.CategoryLearning,
			Priority:          string(models.PriorityMedium),
			DueDate:           timeptr(now),
			EstimatedDuration: intptr(120),
		},
	}
	for _, input := range inputs {
		if _, err := store.CreateTask(ctx, userID, input); err != nil {
			return fmt.Errorf("seed task %q: %w", input.Title, err)
		}
	}
	return nil
}

func seedEvents(ctx context.Context, store storage.Storage, userID string) error {
	today := func(hour, minute int) time.Time {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	}

	inputs := []storage.EventInput{
		{
			ExternalID:  strptr("google-123"),
			Title:       "Team Standup",
			Description: strptr("Daily team sync meeting"),
			StartTime:   today(9, 0),
			EndTime:     today(9, 30),
			Location:    strptr("Conference Room A"),
			Source:      string(models.SourceGoogle),
		},
		{
			Title:         "Focus Time: Quarterly Report",
			Description:   strptr("AI-suggested dedicated time for deep work"),
			StartTime:     today(10, 0),
			EndTime:       today(13, 0),
			Source:        string(models.SourceManual),
			IsAiGenerated: true,
		},
		{
			ExternalID:  strptr("outlook-456"),
			Title:       "Client Meeting",
			Description: strptr("Project review with ABC Corp"),
			StartTime:   today(14, 0),
			EndTime:     today(15, 30),
			Location:    strptr("Video Call"),
			Source:      string(models.SourceOutlook),
		},
	}
	for _, input := range inputs {
		if _, err := store.CreateEvent(ctx, userID, input); err != nil {
			if err == storage.ErrDuplicateEvent {
				continue
			}
			return fmt.Errorf("seed event %q: %w", input.Title, err)
		}
	}
	return nil
}

func seedPlan(ctx context.Context, store storage.Storage, userID string) error {
	suggestions := planner.PlanSuggestions{
		Suggestions: []planner.Suggestion{
			{
				Type:        "optimization",
				Title:       "Time Block for Deep Work",
				Description: "Schedule your quarterly report during your peak focus hours (10 AM - 1 PM) when you're most productive.",
				Icon:        "fas fa-lightbulb",
				Color:       "blue",
			},
			{
				Type:        "suggestion",
				Title:       "Break Up Learning Session",
				Description: "Split your 2-hour React learning into two 1-hour sessions with a break to improve retention.",
				Icon:        "fas fa-clock",
				Color:       "green",
			},
			{
				Type:        "time_analysis",
				Title:       "Overcommitted Today",
				Description: "You have 5.75 hours of tasks but only 4 hours of available time. Consider moving some tasks to tomorrow.",
				Icon:        "fas fa-exclamation-triangle",
				Color:       "yellow",
			},
		},
		ScheduleOptimization: []planner.ScheduleBlock{
			{
				Title:             "Quarterly Report - Part 1",
				StartTime:         "10:00",
				EndTime:           "12:00",
				Type:              "task",
				Description:       "Focus on data analysis first",
				EstimatedDuration: 120,
			},
			{
				Title:             "Lunch Break",
				StartTime:         "12:00",
				EndTime:           "13:00",
				Type:              "break",
				Description:       "Take a proper break to recharge",
				EstimatedDuration: 60,
			},
		},
		Insights: planner.Insights{
			TotalFocusTime:         5.25,
			TaskCompletionEstimate: 75,
			ProductivityScore:      82,
			Recommendations: []string{
				"Start with high-priority tasks during peak energy hours",
				"Use the Pomodoro technique for learning sessions",
				"Schedule buffer time between meetings",
				"Consider delegating or postponing low-priority tasks",
			},
		},
	}

	raw, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("encode demo plan: %w", err)
	}
	if _, err := store.SavePlan(ctx, userID, time.Now(), raw); err != nil {
		return fmt.Errorf("seed plan: %w", err)
	}
	return nil
}

func strptr(s string) *string       { return &s }
func intptr(i int) *int             { return &i }
func timeptr(t time.Time) *time.Time { return &t }
