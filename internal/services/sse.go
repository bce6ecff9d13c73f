package services

import (
	"sync"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
)

// TaskEvent announces a scheduled task row to stream subscribers.
type TaskEvent struct {
	ID        uint      `json:"id"`
	Task      string    `json:"task"`
	Type      string    `json:"type"`
	Scheduled time.Time `json:"scheduled"`
}

// SSEHub fans scheduled task events out to connected stream clients.
// It satisfies TaskPublisher so it can sit next to the queue publisher.
type SSEHub struct {
	clients map[string]chan TaskEvent
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub instance
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan TaskEvent),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *SSEHub) Subscribe(clientID string) <-chan TaskEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan TaskEvent, 100)
	h.clients[clientID] = ch
	return ch
}

// Unsubscribe removes a client from the hub
func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Broadcast sends an event to all connected clients
func (h *SSEHub) Broadcast(event TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		// drop the event for clients whose buffer is full
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SSEHub) Publish(task *models.ScheduledTask) error {
	h.Broadcast(TaskEvent{ID: task.ID, Task: task.Task, Type: task.Type, Scheduled: time.Now()})
	return nil
}

func (h *SSEHub) IsAsync() bool {
	return false
}

// Close disconnects every client.
func (h *SSEHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var globalSSEHub *SSEHub
var sseHubOnce sync.Once

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
