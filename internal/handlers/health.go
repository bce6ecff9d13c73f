package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := 200

	dbStatus := "ok"
	db := models.GetDB()
	if db == nil {
		dbStatus = "error: not initialized"
		overall = "unhealthy"
	} else if sqlDB, err := db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}
	if overall != "healthy" {
		status = 503
	}

	publisher := services.GetTaskPublisher()
	queueMode := "table"
	if publisher != nil && publisher.IsAsync() {
		queueMode = "async (Redis)"
	}

	var taskCount int64
	if db != nil {
		db.Model(&models.ScheduledTask{}).Count(&taskCount)
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "minventory",
		"components": gin.H{
			"database":        dbStatus,
			"queue_mode":      queueMode,
			"sse_clients":     services.GetSSEHub().ClientCount(),
			"scheduled_tasks": taskCount,
		},
	})
}
