package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
)

// maxCASAttempts bounds optimistic retries when writers race on one task.
const maxCASAttempts = 32

// TaskRepository persists tasks in PostgreSQL. Writes are serialized per task
// with an optimistic version check.
type TaskRepository struct {
	db *gorm.DB
}

var _ repositories.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new pending task
func (r *TaskRepository) Create(ctx context.Context, fileID string, cfg entities.TaskConfig) (*entities.Task, error) {
	task := entities.NewTask(fileID, cfg)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, storeError(err)
	}
	return task, nil
}

// Update reads the task, applies mutate and writes it back only if no other
// writer bumped the version in between.
func (r *TaskRepository) Update(ctx context.Context, id string, mutate repositories.TaskMutator) (*entities.Task, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status.IsTerminal() {
			return cur, entities.ErrAlreadyTerminal
		}

		next := cur.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		next.Settle(cur, time.Now().UTC())
		if err := next.ValidateTransition(cur); err != nil {
			return nil, err
		}

		// Atomic claim: only one writer can move the row off cur.Version
		result := r.db.WithContext(ctx).
			Model(&entities.Task{}).
			Where("id = ? AND version = ?", id, cur.Version).
			Select("*").
			Updates(next)
		if result.Error != nil {
			return nil, storeError(result.Error)
		}
		if result.RowsAffected == 1 {
			return next, nil
		}
	}
	return nil, fmt.Errorf("%w: task %s is under heavy write contention", entities.ErrStoreUnavailable, id)
}

// Get retrieves a task by ID
func (r *TaskRepository) Get(ctx context.Context, id string) (*entities.Task, error) {
	var task entities.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, storeError(err)
	}
	return &task, nil
}

// GetByFileID retrieves the task processing an uploaded file
func (r *TaskRepository) GetByFileID(ctx context.Context, fileID string) (*entities.Task, error) {
	var task entities.Task
	if err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		First(&task).Error; err != nil {
		return nil, storeError(err)
	}
	return &task, nil
}

// ListByStatus retrieves tasks with a specific status, oldest first.
// GORM treats Limit(-1) as no limit.
func (r *TaskRepository) ListByStatus(ctx context.Context, status entities.TaskStatus, limit int) ([]*entities.Task, error) {
	var tasks []*entities.Task
	if limit == 0 {
		limit = 100
	}
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, storeError(err)
	}
	return tasks, nil
}

// CountByStatus counts tasks per status
func (r *TaskRepository) CountByStatus(ctx context.Context) (map[entities.TaskStatus]int64, error) {
	var rows []struct {
		Status entities.TaskStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Task{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, storeError(err)
	}
	counts := make(map[entities.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Delete removes a task; deleting a missing task is not an error
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Task{}).Error; err != nil {
		return storeError(err)
	}
	return nil
}

// Ping checks the database connection
func (r *TaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storeError(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return entities.ErrNotFound
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, err)
	}
}
