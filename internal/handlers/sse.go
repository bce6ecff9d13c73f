package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
)

// keepAliveInterval is how often an idle stream writes a comment line so
// proxies do not drop the connection.
var keepAliveInterval = 30 * time.Second

// SSEHandler streams scheduled task events to consumers that prefer push
// over polling the task table.
type SSEHandler struct {
	hub *services.SSEHub
}

func NewSSEHandler(hub *services.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// StreamTaskEvents handles SSE connections for newly scheduled tasks.
// An optional type query parameter limits the stream to one task type.
// GET /api/events/tasks
func (h *SSEHandler) StreamTaskEvents(c *gin.Context) {
	taskType := c.Query("type")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Int("total", h.hub.ClientCount()).Msg("SSE client connected")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if taskType != "" && event.Type != taskType {
				return true
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("SSE marshal error")
				return true
			}
			fmt.Fprintf(w, "event: task\ndata: %s\n\n", data)
			c.Writer.Flush()
			return true
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("SSE client disconnected")
			return false
		}
	})
}
