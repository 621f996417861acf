// Package store persists schedule tasks. TaskStore is implemented by a GORM
// table, a read-only JSON feed and a Redis read-through cache.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/blueox/schedule/internal/models"
)

var (
	// ErrNotFound is returned when an update or delete names a missing task.
	ErrNotFound = errors.New("store: task not found")
	// ErrReadOnly is returned by stores that cannot be mutated.
	ErrReadOnly = errors.New("store: read-only task source")
)

// TaskStore lists and mutates tasks. List returns the newest-created first.
type TaskStore interface {
	List(ctx context.Context) ([]models.Task, error)
	Insert(ctx context.Context, in TaskInput) error
	Update(ctx context.Context, id uint, in TaskInput) error
	Delete(ctx context.Context, id uint) error
}

// TaskInput is the editable part of a task as submitted by a form or API
// client. Empty strings mean "absent".
type TaskInput struct {
	Sheet        string   `json:"sheet"`
	Job          string   `json:"job"`
	Phase        string   `json:"phase"`
	Crew         string   `json:"crew"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Weeks        *float64 `json:"weeks"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	DailyRevenue *float64 `json:"daily_revenue"`
	CreatedBy    string   `json:"-"`
}

// Normalize trims every text field and drops empty text and zero numbers.
func Normalize(in TaskInput) models.Task {
	return models.Task{
		Sheet:        strings.TrimSpace(in.Sheet),
		Job:          text(in.Job),
		Phase:        text(in.Phase),
		Crew:         text(in.Crew),
		Description:  text(in.Description),
		Status:       text(in.Status),
		Weeks:        number(in.Weeks),
		StartDate:    text(in.StartDate),
		EndDate:      text(in.EndDate),
		DailyRevenue: number(in.DailyRevenue),
		CreatedBy:    text(in.CreatedBy),
	}
}

func text(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func number(f *float64) *float64 {
	if f == nil || *f == 0 {
		return nil
	}
	v := *f
	return &v
}
