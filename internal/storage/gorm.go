package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tasksync/internal/models"
	"tasksync/internal/timeutil"
)

// GormStorage implements Storage on top of a gorm database connection,
// PostgreSQL in production and SQLite for single-machine local runs.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage wraps an open gorm connection, tunes the pool and runs
// the schema migration.
func NewGormStorage(db *gorm.DB) (*GormStorage, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	s := &GormStorage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *GormStorage) migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.CalendarEvent{},
		&models.CalendarIntegration{},
		&models.AiPlan{},
		&models.UserPreferences{},
	)
}

// Close closes the underlying connection pool.
func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database.
func (s *GormStorage) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Users

func (s *GormStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStorage) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":             user.Email,
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"profile_image_url": user.ProfileImageURL,
			"updated_at":        time.Now(),
		}),
	}).Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, user.ID)
}

// Tasks

func (s *GormStorage) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *GormStorage) ListTasksDueOn(ctx context.Context, userID string, date time.Time) ([]models.Task, error) {
	start, end := timeutil.DayBounds(date)
	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND due_date >= ? AND due_date <= ?", userID, start, end).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks due on %s: %w", date.Format("2006-01-02"), err)
	}
	return tasks, nil
}

func (s *GormStorage) CreateTask(ctx context.Context, userID string, input TaskInput) (*models.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	task := models.Task{
		UserID:            userID,
		Title:             input.Title,
		Description:       input.Description,
		Category:          input.Category,
		Priority:          normalizePriority(input.Priority),
		DueDate:           input.DueDate,
		EstimatedDuration: input.EstimatedDuration,
		Completed:         false,
		CompletedAt:       nil,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

func (s *GormStorage) UpdateTask(ctx context.Context, taskID uint, update TaskUpdate) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, translate(err)
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

	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

func (s *GormStorage) DeleteTask(ctx context.Context, taskID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Task{}, taskID)
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleCompletion flips the completed flag in a single conditional UPDATE
// so concurrent toggles cannot interleave a read with a write. The CASE
// expression sees the pre-update value of completed.
func (s *GormStorage) ToggleCompletion(ctx context.Context, taskID uint) (*models.Task, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"completed":    gorm.Expr("NOT completed"),
			"completed_at": gorm.Expr("CASE WHEN completed THEN NULL ELSE ? END", now),
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("toggle task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// Calendar events

func (s *GormStorage) ListEventsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND start_time >= ? AND end_time <= ?", userID, start, end).
		Order("start_time ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *GormStorage) CreateEvent(ctx context.Context, userID string, input EventInput) (*models.CalendarEvent, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	if input.ExternalID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.CalendarEvent{}).
			Where("user_id = ? AND source = ? AND external_id = ?", userID, input.Source, *input.ExternalID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check duplicate event: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateEvent
		}
	}

	event := models.CalendarEvent{
		UserID:        userID,
		ExternalID:    input.ExternalID,
		Title:         input.Title,
		Description:   input.Description,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Location:      input.Location,
		Source:        input.Source,
		IsAiGenerated: input.IsAiGenerated,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEvent
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

func (s *GormStorage) UpdateEvent(ctx context.Context, eventID uint, update EventUpdate) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	if err := s.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		return nil, translate(err)
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

	if err := s.db.WithContext(ctx).Save(&event).Error; err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &event, nil
}

func (s *GormStorage) DeleteEvent(ctx context.Context, eventID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.CalendarEvent{}, eventID)
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Calendar integrations

func (s *GormStorage) ListIntegrations(ctx context.Context, userID string) ([]models.CalendarIntegration, error) {
	var integrations []models.CalendarIntegration
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&integrations).Error; err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return integrations, nil
}

func (s *GormStorage) GetIntegration(ctx context.Context, id uint) (*models.CalendarIntegration, error) {
	var integration models.CalendarIntegration
	if err := s.db.WithContext(ctx).First(&integration, id).Error; err != nil {
		return nil, translate(err)
	}
	return &integration, nil
}

func (s *GormStorage) UpsertIntegration(ctx context.Context, userID, provider string, tokens IntegrationTokens) (*models.CalendarIntegration, error) {
	integration := models.CalendarIntegration{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenExpiry:  tokens.TokenExpiry,
		IsActive:     true,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"token_expiry":  tokens.TokenExpiry,
			"is_active":     true,
			"updated_at":    time.Now(),
		}),
	}).Create(&integration).Error
	if err != nil {
		return nil, fmt.Errorf("upsert integration: %w", err)
	}

	var out models.CalendarIntegration
	if err := s.db.WithContext(ctx).
		First(&out, "user_id = ? AND provider = ?", userID, provider).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *GormStorage) SetIntegrationActive(ctx context.Context, id uint, active bool) (*models.CalendarIntegration, error) {
	res := s.db.WithContext(ctx).Model(&models.CalendarIntegration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("set integration active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetIntegration(ctx, id)
}

func (s *GormStorage) RecordSync(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.CalendarIntegration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_sync": at, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("record sync: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIntegration disconnects a provider and removes the events it synced.
func (s *GormStorage) DeleteIntegration(ctx context.Context, id uint) error {
	integration, err := s.GetIntegration(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND source = ? AND external_id IS NOT NULL", integration.UserID, integration.Provider).
		Delete(&models.CalendarEvent{}).Error; err != nil {
		return fmt.Errorf("delete synced events: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.CalendarIntegration{}, id).Error; err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}
	return nil
}

// AI plans

func (s *GormStorage) SavePlan(ctx context.Context, userID string, planDate time.Time, suggestions datatypes.JSON) (*models.AiPlan, error) {
	plan := models.AiPlan{
		UserID:      userID,
		PlanDate:    planDate,
		Suggestions: suggestions,
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	return &plan, nil
}

func (s *GormStorage) GetLatestPlan(ctx context.Context, userID string, date time.Time) (*models.AiPlan, error) {
	start, end := timeutil.DayBounds(date)
	var plan models.AiPlan
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plan_date >= ? AND plan_date <= ?", userID, start, end).
		Order("created_at DESC").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest plan: %w", err)
	}
	return &plan, nil
}

func (s *GormStorage) MarkPlanApplied(ctx context.Context, planID uint, applied bool) (*models.AiPlan, error) {
	res := s.db.WithContext(ctx).Model(&models.AiPlan{}).
		Where("id = ?", planID).
		Update("applied", applied)
	if res.Error != nil {
		return nil, fmt.Errorf("mark plan applied: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var plan models.AiPlan
	if err := s.db.WithContext(ctx).First(&plan, planID).Error; err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

// Preferences

func (s *GormStorage) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &prefs, nil
}

// UpsertPreferences is an engine-level insert-or-update keyed on the user_id
// uniqueness constraint. Only the fields present in the input are assigned on
// conflict, so omitted fields keep their stored value.
func (s *GormStorage) UpsertPreferences(ctx context.Context, userID string, input PreferencesInput) (*models.UserPreferences, error) {
	prefs := models.UserPreferences{
		UserID:    userID,
		TimeZone:  models.DefaultTimeZone,
		AiEnabled: true,
	}
	assign := map[string]interface{}{"updated_at": time.Now()}

	if input.WorkingHours != nil {
		raw, err := json.Marshal(input.WorkingHours)
		if err != nil {
			return nil, fmt.Errorf("encode working hours: %w", err)
		}
		prefs.WorkingHours = datatypes.JSON(raw)
		assign["working_hours"] = prefs.WorkingHours
	}
	if input.TimeZone != nil {
		prefs.TimeZone = *input.TimeZone
		assign["time_zone"] = *input.TimeZone
	}
	if input.AiEnabled != nil {
		prefs.AiEnabled = *input.AiEnabled
		assign["ai_enabled"] = *input.AiEnabled
	}
	if input.Notifications != nil {
		prefs.Notifications = input.Notifications
		assign["notifications"] = input.Notifications
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assign),
	}).Create(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	var out models.UserPreferences
	if err := s.db.WithContext(ctx).First(&out, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// translate maps gorm's sentinel errors onto the storage package's.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
