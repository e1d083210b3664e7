package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"tasksync/internal/calendar"
	"tasksync/internal/models"
	"tasksync/internal/planner"
	"tasksync/internal/storage"
)

type stubPlanner struct {
	plan planner.PlanSuggestions
}

func (s *stubPlanner) GeneratePlan(ctx context.Context, tasks []models.Task, events []models.CalendarEvent, prefs *models.UserPreferences) planner.PlanSuggestions {
	return s.plan
}

// testClient drives the router through httptest, carrying the session
// cookie between requests the way a browser would.
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, plan PlanGenerator) (*testClient, *storage.MemoryStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	h := New(store, plan, calendar.NewSyncService(store))

	r := gin.New()
	r.Use(sessions.Sessions("tasksync_session", cookie.NewStore([]byte("test-secret"))))

	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/logout", h.Logout)

	api := r.Group("/api", RequireAuth())
	api.GET("/auth/user", h.CurrentUser)
	api.GET("/tasks", h.ListTasks)
	api.POST("/tasks", h.CreateTask)
	api.PATCH("/tasks/:id", h.UpdateTask)
	api.POST("/tasks/:id/toggle", h.ToggleTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.GET("/calendar/events", h.ListEvents)
	api.POST("/calendar/events", h.CreateEvent)
	api.GET("/calendar/integrations", h.ListIntegrations)
	api.PATCH("/calendar/integrations/:id", h.SetIntegrationActive)
	api.POST("/calendar/integrations/:id/sync", h.SyncIntegration)
	api.DELETE("/calendar/integrations/:id", h.DeleteIntegration)
	api.POST("/ai/generate-plan", h.GeneratePlan)
	api.GET("/ai/plan/:date", h.GetPlan)
	api.PATCH("/ai/plan/:id/applied", h.MarkPlanApplied)
	api.GET("/preferences", h.GetPreferences)
	api.POST("/preferences", h.UpsertPreferences)

	return &testClient{t: t, router: r}, store
}

func (c *testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func (c *testClient) register(email string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{
		"email":     email,
		"password":  "correct-horse",
		"firstName": "Test",
	})
	if w.Code != http.StatusCreated {
		c.t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRequireAuth(t *testing.T) {
	client, _ := newTestClient(t, &stubPlanner{})

	w := client.do(http.MethodGet, "/api/tasks", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["message"] != "Unauthorized" {
		t.Errorf("message = %q, want Unauthorized", body["message"])
	}
}

func TestRegisterAndLogin(t *testing.T) {
	client, _ := newTestClient(t, &stubPlanner{})

	w := client.do(http.MethodPost, "/api/auth/register", gin.H{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("correct-horse")) || bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Error("register response leaks the password")
	}

	// The register response starts a session.
	w = client.do(http.MethodGet, "/api/auth/user", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("current user status = %d", w.Code)
	}
	user := decode[models.User](t, w)
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	// Duplicate registration is a conflict.
	w = client.do(http.MethodPost, "/api/auth/register", gin.H{
		"email":    "ada@example.com",
		"password": "another-pass",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}

	// Short passwords are rejected by binding.
	w = client.do(http.MethodPost, "/api/auth/register", gin.H{
		"email":    "bob@example.com",
		"password": "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d, want 400", w.Code)
	}

	fresh, _ := newTestClient(t, &stubPlanner{})
	w = fresh.do(http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("login against empty store status = %d, want 401", w.Code)
	}

	w = client.do(http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}

	w = client.do(http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestTaskLifecycle(t *testing.T) {
	client, _ := newTestClient(t, &stubPlanner{})
	client.register("ada@example.com")

	w := client.do(http.MethodPost, "/api/tasks", gin.H{
		"title":             "Pay rent",
		"category":          "finance",
		"priority":          "high",
		"estimatedDuration": 15,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	task := decode[models.Task](t, w)
	if task.Completed || task.CompletedAt != nil {
		t.Errorf("new task completed = %t, completedAt = %v", task.Completed, task.CompletedAt)
	}

	// Missing category maps to a 400 from storage validation.
	w = client.do(http.MethodPost, "/api/tasks", gin.H{"title": "No category"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid create status = %d, want 400", w.Code)
	}

	w = client.do(http.MethodGet, "/api/tasks", nil)
	if got := len(decode[[]models.Task](t, w)); got != 1 {
		t.Fatalf("tasks listed = %d, want 1", got)
	}

	w = client.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", task.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", w.Code)
	}
	toggled := decode[models.Task](t, w)
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Errorf("toggled completed = %t, completedAt = %v", toggled.Completed, toggled.CompletedAt)
	}

	w = client.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), gin.H{"title": "Pay rent online"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	if decode[models.Task](t, w).Title != "Pay rent online" {
		t.Error("update did not change title")
	}

	w = client.do(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if !decode[map[string]bool](t, w)["success"] {
		t.Error("delete response missing success flag")
	}

	w = client.do(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}

	w = client.do(http.MethodPatch, "/api/tasks/not-a-number", gin.H{"title": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestEventCreateRejectsInvertedTimes(t *testing.T) {
	client, _ := newTestClient(t, &stubPlanner{})
	client.register("ada@example.com")

	w := client.do(http.MethodPost, "/api/calendar/events", gin.H{
		"title":     "Standup",
		"startTime": "2025-06-10T10:00:00Z",
		"endTime":   "2025-06-10T09:00:00Z",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}

	w = client.do(http.MethodGet, "/api/calendar/events?start=2025-06-09&end=2025-06-12", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := len(decode[[]models.CalendarEvent](t, w)); got != 0 {
		t.Errorf("rejected event persisted: %d events", got)
	}
}

func TestGeneratePlanSavesFallbackOnProviderOutage(t *testing.T) {
	client, store := newTestClient(t, &stubPlanner{plan: planner.FallbackPlan()})
	client.register("ada@example.com")

	// An empty body means "plan today".
	w := client.do(http.MethodPost, "/api/ai/generate-plan", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", w.Code, w.Body.String())
	}
	plan := decode[models.AiPlan](t, w)
	if plan.ID == 0 {
		t.Fatal("plan was not persisted")
	}

	var saved planner.PlanSuggestions
	if err := json.Unmarshal(plan.Suggestions, &saved); err != nil {
		t.Fatalf("decode saved suggestions: %v", err)
	}
	if saved.Insights.ProductivityScore != 0 {
		t.Errorf("productivityScore = %v, want 0 from fallback", saved.Insights.ProductivityScore)
	}
	if len(saved.Suggestions) != 1 || saved.Suggestions[0].Title != "AI Analysis Unavailable" {
		t.Errorf("suggestions = %+v, want unavailability card", saved.Suggestions)
	}

	// The saved plan is retrievable by day.
	today := time.Now().Format("2006-01-02")
	w = client.do(http.MethodGet, "/api/ai/plan/"+today, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get plan status = %d", w.Code)
	}
	if decode[models.AiPlan](t, w).ID != plan.ID {
		t.Error("latest plan id mismatch")
	}

	w = client.do(http.MethodPatch, fmt.Sprintf("/api/ai/plan/%d/applied", plan.ID), gin.H{"applied": true})
	if w.Code != http.StatusOK {
		t.Fatalf("mark applied status = %d", w.Code)
	}
	if !decode[models.AiPlan](t, w).Applied {
		t.Error("applied flag not set")
	}

	// The plan row belongs to the registered user, not an ambient one.
	latest, err := store.GetLatestPlan(context.Background(), plan.UserID, time.Now())
	if err != nil {
		t.Fatalf("GetLatestPlan: %v", err)
	}
	if latest == nil || latest.ID != plan.ID {
		t.Errorf("store latest plan = %+v, want id %d", latest, plan.ID)
	}
}

func TestGetPlanForEmptyDayReturnsNull(t *testing.T) {
	client, _ := newTestClient(t, &stubPlanner{})
	client.register("ada@example.com")

	w := client.do(http.MethodGet, "/api/ai/plan/2030-01-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != "null" {
		t.Errorf("body = %q, want null", body)
	}

	w = client.do(http.MethodGet, "/api/ai/plan/not-a-date", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid date status = %d, want 400", w.Code)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, &stubPlanner{})
	client.register("ada@example.com")

	w := client.do(http.MethodGet, "/api/preferences", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if body := w.Body.String(); body != "null" {
		t.Errorf("preferences for new user = %q, want null", body)
	}

	w = client.do(http.MethodPost, "/api/preferences", gin.H{
		"timeZone":     "Europe/Berlin",
		"workingHours": gin.H{"start": "08:00", "end": "16:00"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body %s", w.Code, w.Body.String())
	}

	w = client.do(http.MethodGet, "/api/preferences", nil)
	prefs := decode[models.UserPreferences](t, w)
	if prefs.TimeZone != "Europe/Berlin" {
		t.Errorf("timeZone = %q", prefs.TimeZone)
	}
	var hours models.WorkingHours
	if err := json.Unmarshal(prefs.WorkingHours, &hours); err != nil {
		t.Fatalf("decode working hours: %v", err)
	}
	if hours.Start != "08:00" || hours.End != "16:00" {
		t.Errorf("workingHours = %+v", hours)
	}
}
