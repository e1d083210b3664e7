// Package planner turns a day's tasks, events and preferences into an
// AI-generated schedule suggestion payload. The one hard rule here is that
// GeneratePlan always returns a structurally complete payload: when the
// provider is unreachable or returns garbage, callers get the fixed
// fallback instead of an error, so reading insights never needs nil checks.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"tasksync/internal/models"
)

// Suggestion is one human-readable optimization card.
type Suggestion struct {
	Type        string `json:"type"` // optimization, suggestion, time_analysis
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// ScheduleBlock is one proposed block of the optimized day.
type ScheduleBlock struct {
	TaskID            *uint  `json:"taskId,omitempty"`
	Title             string `json:"title"`
	StartTime         string `json:"startTime"` // wall clock, "15:04"
	EndTime           string `json:"endTime"`
	Type              string `json:"type"` // task, meeting, break, focus
	Description       string `json:"description"`
	EstimatedDuration int    `json:"estimatedDuration"`
}

// Insights summarizes the day numerically.
type Insights struct {
	TotalFocusTime         float64  `json:"totalFocusTime"` // hours
	TaskCompletionEstimate float64  `json:"taskCompletionEstimate"`
	ProductivityScore      float64  `json:"productivityScore"`
	Recommendations        []string `json:"recommendations"`
}

// PlanSuggestions is the payload persisted on an AiPlan row. Its internal
// shape is a loosely-typed contract; unknown keys from the provider are
// dropped, but these three top-level keys are always present.
type PlanSuggestions struct {
	Suggestions          []Suggestion    `json:"suggestions"`
	ScheduleOptimization []ScheduleBlock `json:"scheduleOptimization"`
	Insights             Insights        `json:"insights"`
}

// completionClient is the slice of the OpenAI client the planner uses.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service generates daily plans through an OpenAI-compatible provider.
type Service struct {
	client completionClient
	model  string
}

// NewService builds a planner backed by the OpenAI API.
func NewService(apiKey, model string) *Service {
	if model == "" {
		model = openai.GPT4o
	}
	return &Service{client: openai.NewClient(apiKey), model: model}
}

// newServiceWithClient exists for tests.
func newServiceWithClient(client completionClient, model string) *Service {
	return &Service{client: client, model: model}
}

const systemPrompt = `You are an AI productivity assistant that helps optimize daily schedules. Analyze the user's tasks and calendar events to provide intelligent scheduling suggestions.

Consider:
- Task priorities (high, medium, low)
- Estimated durations
- Due dates and deadlines
- Existing calendar events
- Working hours and preferences
- Energy levels throughout the day
- Context switching between different types of work

Provide responses in JSON format with specific, actionable suggestions.`

// GeneratePlan asks the provider for an optimized day and degrades to the
// fixed fallback payload on any failure. It never returns an error.
func (s *Service) GeneratePlan(ctx context.Context, tasks []models.Task, events []models.CalendarEvent, prefs *models.UserPreferences) PlanSuggestions {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(tasks, events, prefs)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		log.Printf("planner: completion request failed: %v", err)
		return FallbackPlan()
	}
	if len(resp.Choices) == 0 {
		log.Printf("planner: provider returned no choices")
		return FallbackPlan()
	}

	plan, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("planner: unparsable provider response: %v", err)
		return FallbackPlan()
	}
	return plan
}

func buildPrompt(tasks []models.Task, events []models.CalendarEvent, prefs *models.UserPreferences) string {
	var b strings.Builder
	b.WriteString("Please analyze my schedule and provide optimization suggestions:\n\nTASKS:\n")
	for _, task := range tasks {
		due := "No due date"
		if task.DueDate != nil {
			due = task.DueDate.Format(time.RFC3339)
		}
		duration := "Not specified"
		if task.EstimatedDuration != nil {
			duration = fmt.Sprintf("%d", *task.EstimatedDuration)
		}
		fmt.Fprintf(&b, "- %s (Priority: %s, Due: %s, Estimated: %s minutes, Category: %s)\n",
			task.Title, task.Priority, due, duration, task.Category)
	}

	b.WriteString("\nCALENDAR EVENTS:\n")
	for _, event := range events {
		location := "No location"
		if event.Location != nil && *event.Location != "" {
			location = *event.Location
		}
		fmt.Fprintf(&b, "- %s (%s - %s) at %s\n",
			event.Title,
			event.StartTime.Format(time.RFC3339),
			event.EndTime.Format(time.RFC3339),
			location)
	}

	workingHours := "9 AM - 5 PM (default)"
	timeZone := models.DefaultTimeZone
	aiEnabled := true
	if prefs != nil {
		if len(prefs.WorkingHours) > 0 {
			workingHours = string(prefs.WorkingHours)
		}
		if prefs.TimeZone != "" {
			timeZone = prefs.TimeZone
		}
		aiEnabled = prefs.AiEnabled
	}
	fmt.Fprintf(&b, "\nUSER PREFERENCES:\n- Working Hours: %s\n- Time Zone: %s\n- AI Enabled: %t\n",
		workingHours, timeZone, aiEnabled)

	b.WriteString(`
Please provide a JSON response with:
1. suggestions: Array of 3-5 optimization suggestions with type, title, description, icon (FontAwesome class), and color (Tailwind class)
2. scheduleOptimization: Suggested time blocks for tasks considering existing events
3. insights: Analysis including total focus time, completion estimates, productivity score (1-100), and recommendations

Focus on practical, actionable advice that helps maximize productivity while maintaining work-life balance.`)
	return b.String()
}

// parseResponse decodes the provider's JSON and fills per-field defaults so
// a sparse-but-valid response still yields a complete payload.
func parseResponse(content string) (PlanSuggestions, error) {
	var raw struct {
		Suggestions          []Suggestion    `json:"suggestions"`
		ScheduleOptimization []ScheduleBlock `json:"scheduleOptimization"`
		Insights             *struct {
			TotalFocusTime         *float64 `json:"totalFocusTime"`
			TaskCompletionEstimate *float64 `json:"taskCompletionEstimate"`
			ProductivityScore      *float64 `json:"productivityScore"`
			Recommendations        []string `json:"recommendations"`
		} `json:"insights"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return PlanSuggestions{}, fmt.Errorf("decode plan: %w", err)
	}

	plan := PlanSuggestions{
		Suggestions:          raw.Suggestions,
		ScheduleOptimization: raw.ScheduleOptimization,
		Insights: Insights{
			ProductivityScore: 75,
			Recommendations:   []string{"Consider time blocking for focused work periods"},
		},
	}
	if len(plan.Suggestions) == 0 {
		plan.Suggestions = []Suggestion{{
			Type:        "optimization",
			Title:       "Schedule Analysis Complete",
			Description: "I've analyzed your tasks and calendar to provide optimization suggestions.",
			Icon:        "fas fa-lightbulb",
			Color:       "blue",
		}}
	}
	if plan.ScheduleOptimization == nil {
		plan.ScheduleOptimization = []ScheduleBlock{}
	}
	if raw.Insights != nil {
		if raw.Insights.TotalFocusTime != nil {
			plan.Insights.TotalFocusTime = *raw.Insights.TotalFocusTime
		}
		if raw.Insights.TaskCompletionEstimate != nil {
			plan.Insights.TaskCompletionEstimate = *raw.Insights.TaskCompletionEstimate
		}
		if raw.Insights.ProductivityScore != nil {
			plan.Insights.ProductivityScore = *raw.Insights.ProductivityScore
		}
		if len(raw.Insights.Recommendations) > 0 {
			plan.Insights.Recommendations = raw.Insights.Recommendations
		}
	}
	return plan, nil
}

// FallbackPlan is the fixed payload returned when the provider fails.
func FallbackPlan() PlanSuggestions {
	return PlanSuggestions{
		Suggestions: []Suggestion{{
			Type:        "optimization",
			Title:       "AI Analysis Unavailable",
			Description: "Unable to generate AI suggestions at this time. Please try again later.",
			Icon:        "fas fa-exclamation-triangle",
			Color:       "yellow",
		}},
		ScheduleOptimization: []ScheduleBlock{},
		Insights: Insights{
			TotalFocusTime:         0,
			TaskCompletionEstimate: 0,
			ProductivityScore:      0,
			Recommendations:        []string{"AI analysis temporarily unavailable"},
		},
	}
}
