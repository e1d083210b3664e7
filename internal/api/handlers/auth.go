package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tasksync/internal/models"
)

// RegisterInput DTO for creating a local account
type RegisterInput struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates a local account and starts a session.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if existing, err := h.Store.GetUserByEmail(c.Request.Context(), input.Email); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondStoreError(c, err, "register")
		return
	}

	user, err := h.Store.UpsertUser(c.Request.Context(), &models.User{
		ID:        uuid.NewString(),
		Email:     input.Email,
		Password:  string(hash),
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respondStoreError(c, err, "register")
		return
	}

	if err := startSession(c, user.ID); err != nil {
		respondStoreError(c, err, "register")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginInput DTO for local login
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a local account and starts a session.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), input.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	if err := startSession(c, user.ID); err != nil {
		respondStoreError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout clears the session.
func (h *Handlers) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondStoreError(c, err, "logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CurrentUser returns the authenticated user's record.
func (h *Handlers) CurrentUser(c *gin.Context) {
	user, err := h.Store.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondStoreError(c, err, "fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func startSession(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	return session.Save()
}
