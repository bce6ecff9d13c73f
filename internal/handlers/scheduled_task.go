package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

type ScheduledTaskHandler struct {
	taskService *services.ScheduledTaskService
}

func NewScheduledTaskHandler(tasks *services.ScheduledTaskService) *ScheduledTaskHandler {
	return &ScheduledTaskHandler{taskService: tasks}
}

type scheduleTaskRequest struct {
	Task string `json:"task" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// List returns pending tasks, optionally of one type
// GET /api/scheduled-tasks?type=dhcp
func (h *ScheduledTaskHandler) List(c *gin.Context) {
	tasks, err := h.taskService.List(c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, tasks)
}

// Create schedules a task by hand
// POST /api/scheduled-tasks
func (h *ScheduledTaskHandler) Create(c *gin.Context) {
	var req scheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	task, err := h.taskService.Add(req.Task, req.Type)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, task)
}

// Next returns the oldest pending task of a type
// GET /api/scheduled-tasks/next/:type
func (h *ScheduledTaskHandler) Next(c *gin.Context) {
	task, err := h.taskService.Next(c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, task)
}

// Last returns the newest pending task of a type
// GET /api/scheduled-tasks/last/:type
func (h *ScheduledTaskHandler) Last(c *gin.Context) {
	task, err := h.taskService.Last(c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, task)
}

// Delete removes one task once it has been handled
// DELETE /api/scheduled-tasks/:id
func (h *ScheduledTaskHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.taskService.Delete(id); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteByType clears every task of a type
// DELETE /api/scheduled-tasks?type=dhcp
func (h *ScheduledTaskHandler) DeleteByType(c *gin.Context) {
	n, err := h.taskService.DeleteByType(c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": n})
}
