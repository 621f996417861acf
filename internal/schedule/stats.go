package schedule

import (
	"math"

	"github.com/blueox/schedule/internal/models"
)

// Stats is the rollup of a task collection shown on the stat cards and fed to
// the chart series. Map iteration order is random, so the order in which
// keys were first seen is kept alongside each map.
type Stats struct {
	TotalTasks     int `json:"totalTasks"`
	TotalJobs      int `json:"totalJobs"`
	TotalCrews     int `json:"totalCrews"`
	TotalWeeks     int `json:"totalWeeks"`
	ActiveTasks    int `json:"activeTasks"`
	ScheduledTasks int `json:"scheduledTasks"`
	DoneTasks      int `json:"doneTasks"`

	StatusCounts map[string]int     `json:"statusCounts"`
	PhaseCounts  map[string]int     `json:"phaseCounts"`
	CrewWorkload map[string]float64 `json:"crewWorkload"`
	MonthlyTasks map[string]int     `json:"monthlyTasks"`

	StatusOrder []string `json:"-"`
	PhaseOrder  []string `json:"-"`
	CrewOrder   []string `json:"-"`
}

// Aggregate computes Stats for tasks. It returns nil for an empty collection
// so callers can tell "no data" from "all zero".
func Aggregate(tasks []models.Task) *Stats {
	if len(tasks) == 0 {
		return nil
	}

	s := &Stats{
		TotalTasks:   len(tasks),
		StatusCounts: make(map[string]int),
		PhaseCounts:  make(map[string]int),
		CrewWorkload: make(map[string]float64),
		MonthlyTasks: make(map[string]int),
	}
	jobs := make(map[string]struct{})
	crews := make(map[string]struct{})
	var weeks float64

	for _, t := range tasks {
		if job := deref(t.Job); job != "" {
			jobs[job] = struct{}{}
		}

		crew := deref(t.Crew)
		assigned := crew != "" && crew != Unassigned
		if assigned {
			crews[crew] = struct{}{}
		}

		status := deref(t.Status)
		if status == "" {
			status = StatusUnknown
		}
		if _, seen := s.StatusCounts[status]; !seen {
			s.StatusOrder = append(s.StatusOrder, status)
		}
		s.StatusCounts[status]++
		switch status {
		case StatusActual:
			s.ActiveTasks++
		case StatusScheduled:
			s.ScheduledTasks++
		case StatusDone:
			s.DoneTasks++
		}

		if _, seen := s.PhaseCounts[t.Sheet]; !seen {
			s.PhaseOrder = append(s.PhaseOrder, t.Sheet)
		}
		s.PhaseCounts[t.Sheet]++

		// Zero weeks counts toward the total but not toward crew workload.
		w := weeksOf(t)
		weeks += w
		if assigned && w != 0 {
			if _, seen := s.CrewWorkload[crew]; !seen {
				s.CrewOrder = append(s.CrewOrder, crew)
			}
			s.CrewWorkload[crew] += w
		}

		if start := deref(t.StartDate); start != "" {
			s.MonthlyTasks[monthKey(start)]++
		}
	}

	s.TotalJobs = len(jobs)
	s.TotalCrews = len(crews)
	s.TotalWeeks = int(math.Round(weeks))
	return s
}

// monthKey returns the YYYY-MM prefix of an ISO date.
func monthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func weeksOf(t models.Task) float64 {
	if t.Weeks == nil {
		return 0
	}
	return *t.Weeks
}
