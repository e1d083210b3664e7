package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"tasksync/internal/models"
	"tasksync/internal/timeutil"
)

// MemoryStorage is the in-memory implementation of Storage used for demo
// mode and tests. A single mutex covers all tables, which also closes the
// toggle/upsert race windows the database stores handle with conditional
// updates.
type MemoryStorage struct {
	mu sync.Mutex

	users        map[string]models.User
	tasks        map[uint]models.Task
	events       map[uint]models.CalendarEvent
	integrations map[uint]models.CalendarIntegration
	plans        []models.AiPlan
	prefs        map[string]models.UserPreferences

	nextTaskID        uint
	nextEventID       uint
	nextIntegrationID uint
	nextPlanID        uint
	nextPrefsID       uint
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:        make(map[string]models.User),
		tasks:        make(map[uint]models.Task),
		events:       make(map[uint]models.CalendarEvent),
		integrations: make(map[uint]models.CalendarIntegration),
		prefs:        make(map[string]models.UserPreferences),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStorage) Close() error { return nil }

// Users

func (s *MemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	stored, ok := s.users[user.ID]
	if !ok {
		stored = models.User{ID: user.ID, CreatedAt: now}
		if user.Password != "" {
			stored.Password = user.Password
		}
	}
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.ProfileImageURL = user.ProfileImageURL
	if user.Password != "" {
		stored.Password = user.Password
	}
	stored.UpdatedAt = now
	s.users[user.ID] = stored
	out := stored
	return &out, nil
}

// Tasks

func (s *MemoryStorage) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []models.Task
	for _, task := range s.tasks {
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	// Newest-created first; ids break ties for tasks created the same instant.
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *MemoryStorage) ListTasksDueOn(ctx context.Context, userID string, date time.Time) ([]models.Task, error) {
	start, end := timeutil.DayBounds(date)
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []models.Task
	for _, task := range s.tasks {
		if task.UserID != userID || task.DueDate == nil {
			continue
		}
		if task.DueDate.Before(start) || task.DueDate.After(end) {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (s *MemoryStorage) CreateTask(ctx context.Context, userID string, input TaskInput) (*models.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTaskID++
	now := time.Now()
	task := models.Task{
		ID:                s.nextTaskID,
		UserID:            userID,
		Title:             input.Title,
		Description:       input.Description,
		Category:          input.Category,
		Priority:          normalizePriority(input.Priority),
		DueDate:           input.DueDate,
		EstimatedDuration: input.EstimatedDuration,
		Completed:         false,
		CompletedAt:       nil,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.tasks[task.ID] = task
	out := task
	return &out, nil
}

func (s *MemoryStorage) UpdateTask(ctx context.Context, taskID uint, update TaskUpdate) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = update.Description
	}
	if update.Category != nil {
		task.Category = *update.Category
	}
	if update.Priority != nil {
		task.Priority = normalizePriority(*update.Priority)
	}
	if update.DueDate != nil {
		task.DueDate = update.DueDate
	}
	if update.EstimatedDuration != nil {
		task.EstimatedDuration = update.EstimatedDuration
	}
	task.UpdatedAt = time.Now()
	s.tasks[taskID] = task
	out := task
	return &out, nil
}

func (s *MemoryStorage) DeleteTask(ctx context.Context, taskID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *MemoryStorage) ToggleCompletion(ctx context.Context, taskID uint) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now()
	task.Completed = !task.Completed
	if task.Completed {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	task.UpdatedAt = now
	s.tasks[taskID] = task
	out := task
	return &out, nil
}

// Calendar events

func (s *MemoryStorage) ListEventsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []models.CalendarEvent
	for _, event := range s.events {
		if event.UserID != userID {
			continue
		}
		// Both bounds inclusive; partial overlaps are excluded.
		if event.StartTime.Before(start) || event.EndTime.After(end) {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (s *MemoryStorage) CreateEvent(ctx context.Context, userID string, input EventInput) (*models.CalendarEvent, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if input.ExternalID != nil {
		for _, event := range s.events {
			if event.UserID == userID && event.Source == input.Source &&
				event.ExternalID != nil && *event.ExternalID == *input.ExternalID {
				return nil, ErrDuplicateEvent
			}
		}
	}

	s.nextEventID++
	now := time.Now()
	event := models.CalendarEvent{
		ID:            s.nextEventID,
		UserID:        userID,
		ExternalID:    input.ExternalID,
		Title:         input.Title,
		Description:   input.Description,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Location:      input.Location,
		Source:        input.Source,
		IsAiGenerated: input.IsAiGenerated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.events[event.ID] = event
	out := event
	return &out, nil
}

func (s *MemoryStorage) UpdateEvent(ctx context.Context, eventID uint, update EventUpdate) (*models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.Description != nil {
		event.Description = update.Description
	}
	if update.StartTime != nil {
		event.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		event.EndTime = *update.EndTime
	}
	if update.Location != nil {
		event.Location = update.Location
	}
	if !event.EndTime.After(event.StartTime) {
		return nil, &ValidationError{Field: "endTime", Reason: "end time must be after start time"}
	}
	event.UpdatedAt = time.Now()
	s.events[eventID] = event
	out := event
	return &out, nil
}

func (s *MemoryStorage) DeleteEvent(ctx context.Context, eventID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return ErrNotFound
	}
	delete(s.events, eventID)
	return nil
}

// Calendar integrations

func (s *MemoryStorage) ListIntegrations(ctx context.Context, userID string) ([]models.CalendarIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var integrations []models.CalendarIntegration
	for _, integration := range s.integrations {
		if integration.UserID == userID {
			integrations = append(integrations, integration)
		}
	}
	sort.Slice(integrations, func(i, j int) bool { return integrations[i].ID < integrations[j].ID })
	return integrations, nil
}

func (s *MemoryStorage) GetIntegration(ctx context.Context, id uint) (*models.CalendarIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := integration
	return &out, nil
}

func (s *MemoryStorage) UpsertIntegration(ctx context.Context, userID, provider string, tokens IntegrationTokens) (*models.CalendarIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, integration := range s.integrations {
		if integration.UserID == userID && integration.Provider == provider {
			integration.AccessToken = tokens.AccessToken
			integration.RefreshToken = tokens.RefreshToken
			integration.TokenExpiry = tokens.TokenExpiry
			integration.IsActive = true
			integration.UpdatedAt = now
			s.integrations[id] = integration
			out := integration
			return &out, nil
		}
	}

	s.nextIntegrationID++
	integration := models.CalendarIntegration{
		ID:           s.nextIntegrationID,
		UserID:       userID,
		Provider:     provider,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenExpiry:  tokens.TokenExpiry,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.integrations[integration.ID] = integration
	out := integration
	return &out, nil
}

func (s *MemoryStorage) SetIntegrationActive(ctx context.Context, id uint, active bool) (*models.CalendarIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	integration.IsActive = active
	integration.UpdatedAt = time.Now()
	s.integrations[id] = integration
	out := integration
	return &out, nil
}

func (s *MemoryStorage) RecordSync(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[id]
	if !ok {
		return ErrNotFound
	}
	integration.LastSync = &at
	integration.UpdatedAt = time.Now()
	s.integrations[id] = integration
	return nil
}

func (s *MemoryStorage) DeleteIntegration(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[id]
	if !ok {
		return ErrNotFound
	}
	for eventID, event := range s.events {
		if event.UserID == integration.UserID && event.Source == integration.Provider && event.ExternalID != nil {
			delete(s.events, eventID)
		}
	}
	delete(s.integrations, id)
	return nil
}

// AI plans

func (s *MemoryStorage) SavePlan(ctx context.Context, userID string, planDate time.Time, suggestions datatypes.JSON) (*models.AiPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPlanID++
	plan := models.AiPlan{
		ID:          s.nextPlanID,
		UserID:      userID,
		PlanDate:    planDate,
		Suggestions: suggestions,
		Applied:     false,
		CreatedAt:   time.Now(),
	}
	s.plans = append(s.plans, plan)
	out := plan
	return &out, nil
}

func (s *MemoryStorage) GetLatestPlan(ctx context.Context, userID string, date time.Time) (*models.AiPlan, error) {
	start, end := timeutil.DayBounds(date)
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.AiPlan
	for i := range s.plans {
		plan := s.plans[i]
		if plan.UserID != userID || plan.PlanDate.Before(start) || plan.PlanDate.After(end) {
			continue
		}
		if latest == nil || plan.CreatedAt.After(latest.CreatedAt) ||
			(plan.CreatedAt.Equal(latest.CreatedAt) && plan.ID > latest.ID) {
			p := plan
			latest = &p
		}
	}
	return latest, nil
}

func (s *MemoryStorage) MarkPlanApplied(ctx context.Context, planID uint, applied bool) (*models.AiPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.plans {
		if s.plans[i].ID == planID {
			s.plans[i].Applied = applied
			out := s.plans[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Preferences

func (s *MemoryStorage) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs, ok := s.prefs[userID]
	if !ok {
		return nil, nil
	}
	out := prefs
	return &out, nil
}

func (s *MemoryStorage) UpsertPreferences(ctx context.Context, userID string, input PreferencesInput) (*models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	prefs, ok := s.prefs[userID]
	if !ok {
		s.nextPrefsID++
		prefs = models.UserPreferences{
			ID:        s.nextPrefsID,
			UserID:    userID,
			TimeZone:  models.DefaultTimeZone,
			AiEnabled: true,
			CreatedAt: now,
		}
	}
	if input.WorkingHours != nil {
		raw, err := json.Marshal(input.WorkingHours)
		if err != nil {
			return nil, fmt.Errorf("encode working hours: %w", err)
		}
		prefs.WorkingHours = datatypes.JSON(raw)
	}
	if input.TimeZone != nil {
		prefs.TimeZone = *input.TimeZone
	}
	if input.AiEnabled != nil {
		prefs.AiEnabled = *input.AiEnabled
	}
	if input.Notifications != nil {
		prefs.Notifications = input.Notifications
	}
	prefs.UpdatedAt = now
	s.prefs[userID] = prefs
	out := prefs
	return &out, nil
}
