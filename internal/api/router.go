// Package api wires the gin engine: CORS, cookie sessions, and the REST
// routes consumed by the web UI.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"tasksync/internal/api/handlers"
	"tasksync/internal/calendar"
	"tasksync/internal/config"
	"tasksync/internal/models"
	"tasksync/internal/storage"
)

const sessionTTL = 7 * 24 * 60 * 60 // one week, in seconds

// NewRouter assembles the HTTP surface.
func NewRouter(cfg *config.Config, store storage.Storage, plan handlers.PlanGenerator, sync *calendar.SyncService) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	sessionStore := cookie.NewStore([]byte(cfg.Session.Secret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionTTL,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("tasksync_session", sessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	h := handlers.New(store, plan, sync)

	// Public routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(handlers.RequireAuth())
	{
		api.GET("/auth/user", h.CurrentUser)

		// Calendar provider OAuth
		api.GET("/auth/google", h.AuthURL(string(models.SourceGoogle)))
		api.GET("/auth/google/callback", h.OAuthCallback(string(models.SourceGoogle)))
		api.GET("/auth/outlook", h.AuthURL(string(models.SourceOutlook)))
		api.GET("/auth/outlook/callback", h.OAuthCallback(string(models.SourceOutlook)))

		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks", h.CreateTask)
		api.PATCH("/tasks/:id", h.UpdateTask)
		api.POST("/tasks/:id/toggle", h.ToggleTask)
		api.DELETE("/tasks/:id", h.DeleteTask)

		api.GET("/calendar/events", h.ListEvents)
		api.POST("/calendar/events", h.CreateEvent)
		api.PATCH("/calendar/events/:id", h.UpdateEvent)
		api.DELETE("/calendar/events/:id", h.DeleteEvent)

		api.GET("/calendar/integrations", h.ListIntegrations)
		api.PATCH("/calendar/integrations/:id", h.SetIntegrationActive)
		api.POST("/calendar/integrations/:id/sync", h.SyncIntegration)
		api.DELETE("/calendar/integrations/:id", h.DeleteIntegration)

		api.POST("/ai/generate-plan", h.GeneratePlan)
		api.GET("/ai/plan/:date", h.GetPlan)
		api.PATCH("/ai/plan/:id/applied", h.MarkPlanApplied)

		api.GET("/preferences", h.GetPreferences)
		api.POST("/preferences", h.UpsertPreferences)
	}

	return r
}
