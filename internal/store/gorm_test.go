package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blueox/schedule/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Task{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGormStore_InsertAndList(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(testDB(t))

	if err := s.Insert(ctx, TaskInput{Sheet: "Pipe", Job: " Main St ", Status: "A", Weeks: fp(2), CreatedBy: "u-1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len = %d, want 1", len(tasks))
	}
	got := tasks[0]
	if got.ID == 0 {
		t.Error("ID not assigned")
	}
	if *got.Job != "Main St" || *got.Status != "A" || *got.Weeks != 2 || *got.CreatedBy != "u-1" {
		t.Errorf("task = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGormStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, sheet := range []string{"Pipe", "Roads", "Paving"} {
		row := models.Task{Sheet: sheet, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tasks, err := NewGormStore(db).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var sheets []string
	for _, task := range tasks {
		sheets = append(sheets, task.Sheet)
	}
	if len(sheets) != 3 || sheets[0] != "Paving" || sheets[2] != "Pipe" {
		t.Errorf("order = %v, want [Paving Roads Pipe]", sheets)
	}
}

func TestGormStore_Update(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewGormStore(db)
	if err := s.Insert(ctx, TaskInput{Sheet: "Pipe", Job: "Main St", Crew: "Bravo", CreatedBy: "u-1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	tasks, _ := s.List(ctx)
	id := tasks[0].ID

	if err := s.Update(ctx, id, TaskInput{Sheet: "Roads", Job: "Main St West", Status: "D"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got models.Task
	if err := db.First(&got, id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Sheet != "Roads" || *got.Job != "Main St West" || *got.Status != "D" {
		t.Errorf("updated task = %+v", got)
	}
	if got.Crew != nil {
		t.Errorf("Crew = %q, want cleared", *got.Crew)
	}
	if got.CreatedBy == nil || *got.CreatedBy != "u-1" {
		t.Error("CreatedBy should survive an update")
	}
}

func TestGormStore_UpdateMissing(t *testing.T) {
	s := NewGormStore(testDB(t))
	err := s.Update(context.Background(), 999, TaskInput{Sheet: "Pipe", Job: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(testDB(t))
	if err := s.Insert(ctx, TaskInput{Sheet: "Pipe", Job: "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	tasks, _ := s.List(ctx)

	if err := s.Delete(ctx, tasks[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, tasks[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	tasks, _ = s.List(ctx)
	if len(tasks) != 0 {
		t.Errorf("len = %d, want 0", len(tasks))
	}
}

func TestGormStore_ClosedDB(t *testing.T) {
	db := testDB(t)
	sqlDB, _ := db.DB()
	sqlDB.Close()

	_, err := NewGormStore(db).List(context.Background())
	if err == nil {
		t.Fatal("expected error from closed database")
	}
}
