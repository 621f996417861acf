package db

import (
	"fmt"

	"github.com/blueox/schedule/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model owned by the dashboard.
func AllModels() []interface{} {
	return []interface{}{
		&models.Task{},
		&models.User{},
		&models.Profile{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// ImportTasks inserts tasks in batches, ignoring any ids they carry so the
// database assigns fresh ones. It returns the number of rows written.
func ImportTasks(db *gorm.DB, tasks []models.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	rows := make([]models.Task, len(tasks))
	for i, t := range tasks {
		t.ID = 0
		if t.Status == nil {
			s := "S"
			t.Status = &s
		}
		rows[i] = t
	}
	if err := db.CreateInBatches(rows, 100).Error; err != nil {
		return 0, fmt.Errorf("db: import tasks: %w", err)
	}
	return len(rows), nil
}

// ClearTasks deletes every task row.
func ClearTasks(db *gorm.DB) error {
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("db: clear tasks: %w", err)
	}
	return nil
}
