package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blueox/schedule/internal/models"
	"gorm.io/gorm"
)

// GormStore keeps tasks in the tasks table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a store backed by db. The schema must already be
// migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// List returns every task, newest-created first.
func (s *GormStore) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	return tasks, nil
}

// Insert creates a task from in.
func (s *GormStore) Insert(ctx context.Context, in TaskInput) error {
	task := Normalize(in)
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return fmt.Errorf("store: insert task: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of task id. Absent fields are
// cleared. Provenance is left alone.
func (s *GormStore) Update(ctx context.Context, id uint, in TaskInput) error {
	task := Normalize(in)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Task
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Model(&existing).Updates(map[string]interface{}{
			"sheet":         task.Sheet,
			"job":           task.Job,
			"phase":         task.Phase,
			"crew":          task.Crew,
			"description":   task.Description,
			"status":        task.Status,
			"weeks":         task.Weeks,
			"start_date":    task.StartDate,
			"end_date":      task.EndDate,
			"daily_revenue": task.DailyRevenue,
			"updated_at":    time.Now(),
		}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: update task %d: %w", id, err)
	}
	return nil
}

// Delete removes task id.
func (s *GormStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return fmt.Errorf("store: delete task %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
