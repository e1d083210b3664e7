package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasksync/internal/storage"
)

// ListTasks returns all of the user's tasks, newest first.
func (h *Handlers) ListTasks(c *gin.Context) {
	tasks, err := h.Store.ListTasks(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondStoreError(c, err, "fetch tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CreateTask creates a new task for the user.
func (h *Handlers) CreateTask(c *gin.Context) {
	var input storage.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	task, err := h.Store.CreateTask(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondStoreError(c, err, "create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask applies a partial update to an existing task.
func (h *Handlers) UpdateTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var update storage.TaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	task, err := h.Store.UpdateTask(c.Request.Context(), id, update)
	if err != nil {
		respondStoreError(c, err, "update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// ToggleTask flips a task's completion state.
func (h *Handlers) ToggleTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	task, err := h.Store.ToggleCompletion(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "toggle task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task permanently.
func (h *Handlers) DeleteTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.Store.DeleteTask(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
