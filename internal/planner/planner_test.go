package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"tasksync/internal/models"
)

type stubClient struct {
	content string
	err     error
	noChoice bool
	gotReq  openai.ChatCompletionRequest
}

func (s *stubClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.gotReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	if s.noChoice {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func assertFallback(t *testing.T, plan PlanSuggestions) {
	t.Helper()
	if len(plan.Suggestions) != 1 || plan.Suggestions[0].Title != "AI Analysis Unavailable" {
		t.Errorf("suggestions = %+v, want single unavailability card", plan.Suggestions)
	}
	if plan.Insights.ProductivityScore != 0 || plan.Insights.TotalFocusTime != 0 {
		t.Errorf("insights = %+v, want zeroed", plan.Insights)
	}
	if plan.ScheduleOptimization == nil {
		t.Error("scheduleOptimization = nil, want empty slice")
	}
}

func TestGeneratePlanDegradesToFallback(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
	}{
		{"request error", &stubClient{err: errors.New("connection refused")}},
		{"no choices", &stubClient{noChoice: true}},
		{"unparsable response", &stubClient{content: "I cannot produce JSON today"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newServiceWithClient(tt.client, openai.GPT4o)
			plan := svc.GeneratePlan(context.Background(), nil, nil, nil)
			assertFallback(t, plan)
		})
	}
}

func TestGeneratePlanSparseResponseDefaults(t *testing.T) {
	client := &stubClient{content: `{"insights": {"totalFocusTime": 3.5}}`}
	svc := newServiceWithClient(client, openai.GPT4o)

	plan := svc.GeneratePlan(context.Background(), nil, nil, nil)

	if len(plan.Suggestions) != 1 || plan.Suggestions[0].Title != "Schedule Analysis Complete" {
		t.Errorf("suggestions = %+v, want the default analysis card", plan.Suggestions)
	}
	if plan.Insights.TotalFocusTime != 3.5 {
		t.Errorf("totalFocusTime = %v, want 3.5", plan.Insights.TotalFocusTime)
	}
	if plan.Insights.ProductivityScore != 75 {
		t.Errorf("productivityScore = %v, want default 75", plan.Insights.ProductivityScore)
	}
	if len(plan.Insights.Recommendations) == 0 {
		t.Error("recommendations empty, want default recommendation")
	}
	if plan.ScheduleOptimization == nil {
		t.Error("scheduleOptimization = nil, want empty slice")
	}
}

func TestGeneratePlanFullResponse(t *testing.T) {
	client := &stubClient{content: `{
		"suggestions": [
			{"type": "optimization", "title": "Batch your meetings", "description": "Back-to-back calls free the afternoon.", "icon": "fas fa-calendar", "color": "blue"}
		],
		"scheduleOptimization": [
			{"title": "Deep work", "startTime": "09:00", "endTime": "11:00", "type": "focus", "description": "Report draft", "estimatedDuration": 120}
		],
		"insights": {
			"totalFocusTime": 4,
			"taskCompletionEstimate": 80,
			"productivityScore": 88,
			"recommendations": ["Protect the morning block"]
		}
	}`}
	svc := newServiceWithClient(client, openai.GPT4o)

	plan := svc.GeneratePlan(context.Background(), nil, nil, nil)

	if len(plan.Suggestions) != 1 || plan.Suggestions[0].Title != "Batch your meetings" {
		t.Errorf("suggestions = %+v", plan.Suggestions)
	}
	if len(plan.ScheduleOptimization) != 1 || plan.ScheduleOptimization[0].EstimatedDuration != 120 {
		t.Errorf("scheduleOptimization = %+v", plan.ScheduleOptimization)
	}
	if plan.Insights.ProductivityScore != 88 || plan.Insights.TaskCompletionEstimate != 80 {
		t.Errorf("insights = %+v", plan.Insights)
	}
	if len(plan.Insights.Recommendations) != 1 || plan.Insights.Recommendations[0] != "Protect the morning block" {
		t.Errorf("recommendations = %+v", plan.Insights.Recommendations)
	}
}

func TestGeneratePlanRequestShape(t *testing.T) {
	client := &stubClient{content: `{}`}
	svc := newServiceWithClient(client, "gpt-4o-mini")

	due := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)
	duration := 45
	location := "Room 2"
	tasks := []models.Task{{
		Title:             "Pay rent",
		Category:          models.CategoryFinance,
		Priority:          string(models.PriorityHigh),
		DueDate:           &due,
		EstimatedDuration: &duration,
	}}
	events := []models.CalendarEvent{{
		Title:     "Standup",
		StartTime: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC),
		Location:  &location,
	}}

	svc.GeneratePlan(context.Background(), tasks, events, nil)

	req := client.gotReq
	if req.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", req.Model)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("response format = %+v, want JSON object mode", req.ResponseFormat)
	}
	if req.MaxTokens != 2000 {
		t.Errorf("maxTokens = %d, want 2000", req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("messages = %+v, want system + user", req.Messages)
	}

	prompt := req.Messages[1].Content
	for _, want := range []string{
		"Pay rent",
		"Priority: high",
		"Estimated: 45 minutes",
		"Category: finance",
		"Standup",
		"Room 2",
		"9 AM - 5 PM (default)",
		models.DefaultTimeZone,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGeneratePlanPromptUsesPreferences(t *testing.T) {
	client := &stubClient{content: `{}`}
	svc := newServiceWithClient(client, openai.GPT4o)

	prefs := &models.UserPreferences{
		WorkingHours: []byte(`{"start":"08:00","end":"14:00"}`),
		TimeZone:     "Europe/Berlin",
		AiEnabled:    true,
	}
	svc.GeneratePlan(context.Background(), nil, nil, prefs)

	prompt := client.gotReq.Messages[1].Content
	if !strings.Contains(prompt, `"start":"08:00"`) {
		t.Errorf("prompt missing working hours, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Europe/Berlin") {
		t.Error("prompt missing time zone")
	}
}

func TestFallbackPlanShape(t *testing.T) {
	assertFallback(t, FallbackPlan())
	if len(FallbackPlan().Insights.Recommendations) != 1 {
		t.Errorf("recommendations = %+v, want single unavailability note", FallbackPlan().Insights.Recommendations)
	}
}
