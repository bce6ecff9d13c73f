package services

import (
	"errors"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

type ScheduledTaskService struct {
	db        *gorm.DB
	publisher TaskPublisher
}

func NewScheduledTaskService(db *gorm.DB, publisher TaskPublisher) *ScheduledTaskService {
	if publisher == nil {
		publisher = NewTablePublisher()
	}
	return &ScheduledTaskService{db: db, publisher: publisher}
}

// append inserts a task row using tx. Duplicates are allowed.
func (s *ScheduledTaskService) append(tx *gorm.DB, task, taskType string) (*models.ScheduledTask, error) {
	row := &models.ScheduledTask{Task: task, Type: taskType}
	if err := tx.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Add appends a task outside of any key-value change.
func (s *ScheduledTaskService) Add(task, taskType string) (*models.ScheduledTask, error) {
	if task == "" {
		return nil, response.NewFieldError("task", "task is required")
	}
	switch taskType {
	case models.TaskTypeDHCP, models.TaskTypeReverseDNSZone, models.TaskTypeDNS:
	default:
		return nil, response.NewFieldError("type", "unknown task type "+taskType)
	}
	row, err := s.append(s.db, task, taskType)
	if err != nil {
		return nil, err
	}
	s.publish([]models.ScheduledTask{*row})
	return row, nil
}

// publish mirrors committed rows to the queue. Failures are logged only.
func (s *ScheduledTaskService) publish(rows []models.ScheduledTask) {
	for i := range rows {
		if err := s.publisher.Publish(&rows[i]); err != nil {
			logger.Warn().Err(err).Str("task", rows[i].Task).Str("type", rows[i].Type).Msg("failed to publish scheduled task")
		}
	}
}

// List returns tasks ordered by task name, optionally filtered by type.
func (s *ScheduledTaskService) List(taskType string) ([]models.ScheduledTask, error) {
	var tasks []models.ScheduledTask
	query := s.db.Model(&models.ScheduledTask{})
	if taskType != "" {
		query = query.Where("type = ?", taskType)
	}
	if err := query.Order("task").Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Next returns the oldest task of a type.
func (s *ScheduledTaskService) Next(taskType string) (*models.ScheduledTask, error) {
	return s.edge(taskType, "id ASC")
}

// Last returns the newest task of a type.
func (s *ScheduledTaskService) Last(taskType string) (*models.ScheduledTask, error) {
	return s.edge(taskType, "id DESC")
}

func (s *ScheduledTaskService) edge(taskType, order string) (*models.ScheduledTask, error) {
	var task models.ScheduledTask
	err := s.db.Where("type = ?", taskType).Order(order).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("no " + taskType + " tasks scheduled")
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteByType removes every task of a type and returns how many were removed.
func (s *ScheduledTaskService) DeleteByType(taskType string) (int64, error) {
	if taskType == "" {
		return 0, response.NewBadRequest("type is required")
	}
	result := s.db.Where("type = ?", taskType).Delete(&models.ScheduledTask{})
	return result.RowsAffected, result.Error
}

func (s *ScheduledTaskService) Delete(id uint) error {
	result := s.db.Delete(&models.ScheduledTask{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("scheduled task not found")
	}
	return nil
}
