package schedule

import (
	"fmt"
	"testing"

	"github.com/blueox/schedule/internal/models"
)

func sp(s string) *string    { return &s }
func fp(f float64) *float64 { return &f }

// sampleTasks returns a mixed collection covering every aggregation rule.
func sampleTasks() []models.Task {
	return []models.Task{
		{ID: 1, Sheet: "Earthwork", Job: sp("Roadwork"), Crew: sp("Alpha"), Status: sp("A"), Weeks: fp(2), StartDate: sp("2024-03-04")},
		{ID: 2, Sheet: "Pipe", Job: sp("Concrete Pour"), Crew: sp("Bravo"), Status: sp("D"), Weeks: fp(3.25), StartDate: sp("2024-01-15")},
		{ID: 3, Sheet: "Earthwork", Job: sp("Road Ext"), Crew: sp("Unassigned"), Status: sp("S"), Weeks: fp(4), StartDate: sp("2024-03-20")},
		{ID: 4, Sheet: "Paving", Job: sp("Roadwork"), Crew: sp("Alpha"), Status: nil, Weeks: nil},
		{ID: 5, Sheet: "Paving", Job: nil, Crew: sp(""), Status: sp("X"), Weeks: fp(0), StartDate: sp("2023-12-01")},
		{ID: 6, Sheet: "Roads", Job: sp(""), Crew: sp("Charlie"), Status: sp("A"), Weeks: fp(0)},
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil); got != nil {
		t.Errorf("Aggregate(nil) = %+v, want nil", got)
	}
	if got := Aggregate([]models.Task{}); got != nil {
		t.Errorf("Aggregate([]) = %+v, want nil", got)
	}
}

func TestAggregate_Scenario(t *testing.T) {
	tasks := []models.Task{
		{Status: sp("A"), Weeks: fp(2)},
		{Status: sp("D"), Weeks: fp(3)},
		{Status: sp("A"), Weeks: nil},
	}
	s := Aggregate(tasks)
	if s == nil {
		t.Fatal("Aggregate returned nil")
	}
	if s.ActiveTasks != 2 {
		t.Errorf("ActiveTasks = %d, want 2", s.ActiveTasks)
	}
	if s.DoneTasks != 1 {
		t.Errorf("DoneTasks = %d, want 1", s.DoneTasks)
	}
	if s.TotalWeeks != 5 {
		t.Errorf("TotalWeeks = %d, want 5", s.TotalWeeks)
	}
}

func TestAggregate_Counts(t *testing.T) {
	s := Aggregate(sampleTasks())

	if s.TotalTasks != 6 {
		t.Errorf("TotalTasks = %d, want 6", s.TotalTasks)
	}
	if s.TotalJobs != 3 {
		t.Errorf("TotalJobs = %d, want 3 (Roadwork, Concrete Pour, Road Ext)", s.TotalJobs)
	}
	if s.TotalCrews != 3 {
		t.Errorf("TotalCrews = %d, want 3 (Alpha, Bravo, Charlie)", s.TotalCrews)
	}
	// 2 + 3.25 + 4 + 0 + 0 = 9.25
	if s.TotalWeeks != 9 {
		t.Errorf("TotalWeeks = %d, want 9", s.TotalWeeks)
	}
	if s.ActiveTasks != 2 || s.DoneTasks != 1 || s.ScheduledTasks != 1 {
		t.Errorf("active/done/scheduled = %d/%d/%d, want 2/1/1", s.ActiveTasks, s.DoneTasks, s.ScheduledTasks)
	}
}

func TestAggregate_StatusCounts(t *testing.T) {
	s := Aggregate(sampleTasks())

	want := map[string]int{"A": 2, "D": 1, "S": 1, "Unknown": 1, "X": 1}
	if len(s.StatusCounts) != len(want) {
		t.Fatalf("StatusCounts = %v, want %v", s.StatusCounts, want)
	}
	for k, v := range want {
		if s.StatusCounts[k] != v {
			t.Errorf("StatusCounts[%q] = %d, want %d", k, s.StatusCounts[k], v)
		}
	}
	wantOrder := []string{"A", "D", "S", "Unknown", "X"}
	if fmt.Sprint(s.StatusOrder) != fmt.Sprint(wantOrder) {
		t.Errorf("StatusOrder = %v, want %v", s.StatusOrder, wantOrder)
	}
}

func TestAggregate_PhaseCounts(t *testing.T) {
	s := Aggregate(sampleTasks())

	want := map[string]int{"Earthwork": 2, "Pipe": 1, "Paving": 2, "Roads": 1}
	for k, v := range want {
		if s.PhaseCounts[k] != v {
			t.Errorf("PhaseCounts[%q] = %d, want %d", k, s.PhaseCounts[k], v)
		}
	}
	wantOrder := []string{"Earthwork", "Pipe", "Paving", "Roads"}
	if fmt.Sprint(s.PhaseOrder) != fmt.Sprint(wantOrder) {
		t.Errorf("PhaseOrder = %v, want %v", s.PhaseOrder, wantOrder)
	}
}

func TestAggregate_CrewWorkload(t *testing.T) {
	s := Aggregate(sampleTasks())

	// Alpha's second task has no weeks; Charlie has zero weeks; Unassigned and
	// empty crews are excluded.
	if len(s.CrewWorkload) != 2 {
		t.Fatalf("CrewWorkload = %v, want Alpha and Bravo only", s.CrewWorkload)
	}
	if s.CrewWorkload["Alpha"] != 2 {
		t.Errorf("CrewWorkload[Alpha] = %v, want 2", s.CrewWorkload["Alpha"])
	}
	if s.CrewWorkload["Bravo"] != 3.25 {
		t.Errorf("CrewWorkload[Bravo] = %v, want 3.25", s.CrewWorkload["Bravo"])
	}
	if _, ok := s.CrewWorkload["Charlie"]; ok {
		t.Error("zero-week crew should be excluded from workload")
	}
	if _, ok := s.CrewWorkload[Unassigned]; ok {
		t.Error("Unassigned should be excluded from workload")
	}
}

func TestAggregate_MonthlyTasks(t *testing.T) {
	s := Aggregate(sampleTasks())

	want := map[string]int{"2024-03": 2, "2024-01": 1, "2023-12": 1}
	if len(s.MonthlyTasks) != len(want) {
		t.Fatalf("MonthlyTasks = %v, want %v", s.MonthlyTasks, want)
	}
	for k, v := range want {
		if s.MonthlyTasks[k] != v {
			t.Errorf("MonthlyTasks[%q] = %d, want %d", k, s.MonthlyTasks[k], v)
		}
	}
}

func TestAggregate_Properties(t *testing.T) {
	collections := [][]models.Task{
		sampleTasks(),
		sampleTasks()[:1],
		generateTasks(97),
	}
	for i, tasks := range collections {
		t.Run(fmt.Sprintf("collection_%d", i), func(t *testing.T) {
			s := Aggregate(tasks)
			if s.TotalTasks != len(tasks) {
				t.Errorf("TotalTasks = %d, want %d", s.TotalTasks, len(tasks))
			}
			sum := 0
			for _, n := range s.StatusCounts {
				sum += n
			}
			if sum != len(tasks) {
				t.Errorf("sum(StatusCounts) = %d, want %d", sum, len(tasks))
			}
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	tasks := sampleTasks()
	reversed := make([]models.Task, len(tasks))
	for i, task := range tasks {
		reversed[len(tasks)-1-i] = task
	}

	a, b := Aggregate(tasks), Aggregate(reversed)
	if a.TotalWeeks != b.TotalWeeks || a.TotalJobs != b.TotalJobs || a.TotalCrews != b.TotalCrews {
		t.Errorf("totals differ by order: %+v vs %+v", a, b)
	}
	for k, v := range a.StatusCounts {
		if b.StatusCounts[k] != v {
			t.Errorf("StatusCounts[%q] differs: %d vs %d", k, v, b.StatusCounts[k])
		}
	}
	for k, v := range a.CrewWorkload {
		if b.CrewWorkload[k] != v {
			t.Errorf("CrewWorkload[%q] differs: %v vs %v", k, v, b.CrewWorkload[k])
		}
	}
}

func TestAggregate_RoundsTotalWeeks(t *testing.T) {
	s := Aggregate([]models.Task{{Weeks: fp(1.5)}, {Weeks: fp(1)}})
	if s.TotalWeeks != 3 {
		t.Errorf("TotalWeeks = %d, want 3 (2.5 rounds up)", s.TotalWeeks)
	}
}

func TestMonthKey_ShortDate(t *testing.T) {
	if got := monthKey("2024"); got != "2024" {
		t.Errorf("monthKey(2024) = %q, want 2024", got)
	}
	if got := monthKey("2024-05-17T00:00:00Z"); got != "2024-05" {
		t.Errorf("monthKey(timestamp) = %q, want 2024-05", got)
	}
}

// generateTasks builds n deterministic tasks with varied fields.
func generateTasks(n int) []models.Task {
	statuses := []*string{sp("S"), sp("A"), sp("D"), sp("P"), nil, sp("L")}
	crews := []*string{sp("Alpha"), sp("Bravo"), sp("Unassigned"), nil, sp("Delta"), sp("Echo"),
		sp("Foxtrot"), sp("Golf"), sp("Hotel"), sp("India"), sp("Juliet"), sp("Kilo"), sp("Lima")}
	tasks := make([]models.Task, n)
	for i := range tasks {
		var weeks *float64
		if i%4 != 0 {
			weeks = fp(float64(i%7) + 0.5)
		}
		var start *string
		if i%5 != 0 {
			start = sp(fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1))
		}
		tasks[i] = models.Task{
			ID:          uint(i + 1),
			Sheet:       Sheets[i%len(Sheets)],
			Job:         sp(fmt.Sprintf("Job %d", i%9)),
			Crew:        crews[i%len(crews)],
			Description: sp(fmt.Sprintf("task number %d", i)),
			Status:      statuses[i%len(statuses)],
			Weeks:       weeks,
			StartDate:   start,
		}
	}
	return tasks
}
