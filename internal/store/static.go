package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blueox/schedule/internal/models"
)

// feedRecord is one entry of a static JSON feed. Older feeds name the date
// columns start and end.
type feedRecord struct {
	Sheet        string   `json:"sheet"`
	Job          *string  `json:"job"`
	Phase        *string  `json:"phase"`
	Crew         *string  `json:"crew"`
	Description  *string  `json:"description"`
	Status       *string  `json:"status"`
	Weeks        *float64 `json:"weeks"`
	StartDate    *string  `json:"start_date"`
	Start        *string  `json:"start"`
	EndDate      *string  `json:"end_date"`
	End          *string  `json:"end"`
	DailyRevenue *float64 `json:"daily_revenue"`
}

// ParseFeed decodes a JSON array of task records. Ids are assigned by
// position starting at 1.
func ParseFeed(data []byte) ([]models.Task, error) {
	var records []feedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("store: parse feed: %w", err)
	}
	tasks := make([]models.Task, len(records))
	for i, r := range records {
		start := r.StartDate
		if start == nil {
			start = r.Start
		}
		end := r.EndDate
		if end == nil {
			end = r.End
		}
		tasks[i] = models.Task{
			ID:           uint(i + 1),
			Sheet:        r.Sheet,
			Job:          r.Job,
			Phase:        r.Phase,
			Crew:         r.Crew,
			Description:  r.Description,
			Status:       r.Status,
			Weeks:        r.Weeks,
			StartDate:    start,
			EndDate:      end,
			DailyRevenue: r.DailyRevenue,
		}
	}
	return tasks, nil
}

// LoadFeed reads and parses a static JSON feed file.
func LoadFeed(path string) ([]models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read feed %s: %w", path, err)
	}
	return ParseFeed(data)
}

// StaticStore serves a fixed task collection. Every mutation fails with
// ErrReadOnly.
type StaticStore struct {
	tasks []models.Task
}

// NewStaticStore serves tasks in the given order.
func NewStaticStore(tasks []models.Task) *StaticStore {
	return &StaticStore{tasks: tasks}
}

// OpenStatic loads a feed file into a StaticStore.
func OpenStatic(path string) (*StaticStore, error) {
	tasks, err := LoadFeed(path)
	if err != nil {
		return nil, err
	}
	return NewStaticStore(tasks), nil
}

// List returns a copy of the feed.
func (s *StaticStore) List(ctx context.Context) ([]models.Task, error) {
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *StaticStore) Insert(ctx context.Context, in TaskInput) error {
	return ErrReadOnly
}

func (s *StaticStore) Update(ctx context.Context, id uint, in TaskInput) error {
	return ErrReadOnly
}

func (s *StaticStore) Delete(ctx context.Context, id uint) error {
	return ErrReadOnly
}
