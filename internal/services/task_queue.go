package services

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
)

// TaskTypePrefix prefixes the asynq task type, e.g. "regenerate:dhcp".
const TaskTypePrefix = "regenerate:"

// RegenerateTask is the payload published for each scheduled task row.
type RegenerateTask struct {
	ScheduledTaskID uint   `json:"scheduled_task_id"`
	Task            string `json:"task"`
	Type            string `json:"type"`
}

// TaskPublisher mirrors appended scheduled tasks to an external queue.
// The scheduled_tasks table stays the source of truth.
type TaskPublisher interface {
	// Publish announces a newly appended task
	Publish(task *models.ScheduledTask) error
	// IsAsync returns true if tasks leave the process
	IsAsync() bool
	// Close gracefully shuts down the publisher
	Close() error
}

var (
	globalTaskPublisher TaskPublisher
	taskPublisherOnce   sync.Once
)

// InitTaskPublisher initializes the global publisher based on config.
// Tasks always reach the SSE stream; with Redis enabled they are also
// enqueued for external consumers.
func InitTaskPublisher(cfg *config.Config) TaskPublisher {
	taskPublisherOnce.Do(func() {
		var base TaskPublisher
		if cfg.Redis.Enabled {
			pub, err := NewAsyncPublisher(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskPublisher] Redis unavailable, tasks stay table only: %v", err)
				base = NewTablePublisher()
			} else {
				logger.Infof("[TaskPublisher] Publishing scheduled tasks to Redis at %s", cfg.Redis.Addr)
				base = pub
			}
		} else {
			logger.Infof("[TaskPublisher] Redis disabled, scheduled tasks stay table only")
			base = NewTablePublisher()
		}
		globalTaskPublisher = NewFanoutPublisher(base, GetSSEHub())
	})
	return globalTaskPublisher
}

// GetTaskPublisher returns the global publisher, which may be nil before init
func GetTaskPublisher() TaskPublisher {
	return globalTaskPublisher
}

// AsyncPublisher implements TaskPublisher using asynq (Redis-based)
type AsyncPublisher struct {
	client *asynq.Client
}

// NewAsyncPublisher creates a Redis-backed publisher
func NewAsyncPublisher(cfg *config.RedisConfig) (*AsyncPublisher, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncPublisher{client: client}, nil
}

func (p *AsyncPublisher) Publish(task *models.ScheduledTask) error {
	payload, err := json.Marshal(RegenerateTask{
		ScheduledTaskID: task.ID,
		Task:            task.Task,
		Type:            task.Type,
	})
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypePrefix+task.Type, payload)
	info, err := p.client.Enqueue(t,
		asynq.Queue("inventory"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Str("type", task.Type).Str("task", task.Task).Msg("scheduled task published")
	return nil
}

func (p *AsyncPublisher) IsAsync() bool {
	return true
}

func (p *AsyncPublisher) Close() error {
	return p.client.Close()
}

// TablePublisher is used when Redis is disabled. Consumers poll the
// scheduled_tasks table, so nothing else needs to happen.
type TablePublisher struct {
	mu        sync.Mutex
	published []models.ScheduledTask
}

func NewTablePublisher() *TablePublisher {
	return &TablePublisher{}
}

func (p *TablePublisher) Publish(task *models.ScheduledTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *task)
	if len(p.published) > 100 {
		p.published = p.published[len(p.published)-100:]
	}
	return nil
}

// Recent returns the most recent published tasks, oldest first.
func (p *TablePublisher) Recent() []models.ScheduledTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ScheduledTask, len(p.published))
	copy(out, p.published)
	return out
}

func (p *TablePublisher) IsAsync() bool {
	return false
}

func (p *TablePublisher) Close() error {
	return nil
}

// FanoutPublisher publishes each task to every wrapped publisher.
type FanoutPublisher struct {
	publishers []TaskPublisher
}

func NewFanoutPublisher(publishers ...TaskPublisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (p *FanoutPublisher) Publish(task *models.ScheduledTask) error {
	var errs []error
	for _, pub := range p.publishers {
		if err := pub.Publish(task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *FanoutPublisher) IsAsync() bool {
	for _, pub := range p.publishers {
		if pub.IsAsync() {
			return true
		}
	}
	return false
}

func (p *FanoutPublisher) Close() error {
	var errs []error
	for _, pub := range p.publishers {
		if err := pub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
