package schedule

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/blueox/schedule/internal/models"
)

// PageSize is the fixed number of rows per table page.
const PageSize = 15

// FilterAll disables the phase or status filter.
const FilterAll = "all"

// SortKey selects the table sort column.
type SortKey string

const (
	SortStart SortKey = "start"
	SortWeeks SortKey = "weeks"
	SortJob   SortKey = "job"
)

// SortDir is the table sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// TableState is the interactive filter/sort/page state of the task table.
type TableState struct {
	Search  string  `json:"search"`
	Phase   string  `json:"phase"`
	Status  string  `json:"status"`
	SortKey SortKey `json:"sortKey"`
	SortDir SortDir `json:"sortDir"`
	Page    int     `json:"page"`
}

// NewTableState returns the initial state: no filters, newest start first.
func NewTableState() TableState {
	return TableState{
		Phase:   FilterAll,
		Status:  FilterAll,
		SortKey: SortStart,
		SortDir: SortDesc,
	}
}

// SetSearch changes the search text and returns to the first page.
func (s *TableState) SetSearch(q string) {
	s.Search = q
	s.Page = 0
}

// SetPhase changes the sheet filter and returns to the first page.
func (s *TableState) SetPhase(phase string) {
	if phase == "" {
		phase = FilterAll
	}
	s.Phase = phase
	s.Page = 0
}

// SetStatus changes the status filter and returns to the first page.
func (s *TableState) SetStatus(status string) {
	if status == "" {
		status = FilterAll
	}
	s.Status = status
	s.Page = 0
}

// ToggleSort flips the direction when key is already selected, otherwise
// selects key in descending order.
func (s *TableState) ToggleSort(key SortKey) {
	if s.SortKey == key {
		if s.SortDir == SortAsc {
			s.SortDir = SortDesc
		} else {
			s.SortDir = SortAsc
		}
		return
	}
	s.SortKey = key
	s.SortDir = SortDesc
}

// SetPage moves to page p. Out-of-range pages are clamped by Recompute.
func (s *TableState) SetPage(p int) {
	s.Page = p
}

// Values encodes the state as query parameters (see ParseTableState).
func (s TableState) Values() url.Values {
	v := url.Values{}
	if s.Search != "" {
		v.Set("q", s.Search)
	}
	if s.Phase != "" && s.Phase != FilterAll {
		v.Set("phase", s.Phase)
	}
	if s.Status != "" && s.Status != FilterAll {
		v.Set("status", s.Status)
	}
	v.Set("sort", string(s.SortKey))
	v.Set("dir", string(s.SortDir))
	if s.Page > 0 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	return v
}

// ParseTableState reads a state from query parameters q, phase, status,
// sort, dir and page. Unknown or missing values fall back to the defaults.
func ParseTableState(v url.Values) TableState {
	s := NewTableState()
	s.Search = v.Get("q")
	if p := v.Get("phase"); p != "" {
		s.Phase = p
	}
	if st := v.Get("status"); st != "" {
		s.Status = st
	}
	switch k := SortKey(v.Get("sort")); k {
	case SortStart, SortWeeks, SortJob:
		s.SortKey = k
	}
	if SortDir(v.Get("dir")) == SortAsc {
		s.SortDir = SortAsc
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		s.Page = n
	}
	return s
}

// TableView is one rendered page of the task table.
type TableView struct {
	Rows       []models.Task `json:"rows"`
	Filtered   int           `json:"filtered"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	PageSize   int           `json:"pageSize"`
	Phases     []string      `json:"phases"`
	Statuses   []string      `json:"statuses"`
	State      TableState    `json:"state"`
}

// Recompute filters, sorts and paginates tasks for state. The returned
// State carries the clamped page.
func Recompute(tasks []models.Task, state TableState) TableView {
	filtered := filterTasks(tasks, state)
	sortTasks(filtered, state.SortKey, state.SortDir)

	totalPages := (len(filtered) + PageSize - 1) / PageSize
	page := state.Page
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	state.Page = page

	start := page * PageSize
	end := start + PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	rows := make([]models.Task, 0, end-start)
	rows = append(rows, filtered[start:end]...)

	return TableView{
		Rows:       rows,
		Filtered:   len(filtered),
		Page:       page,
		TotalPages: totalPages,
		PageSize:   PageSize,
		Phases:     distinctPhases(tasks),
		Statuses:   distinctStatuses(tasks),
		State:      state,
	}
}

func filterTasks(tasks []models.Task, state TableState) []models.Task {
	needle := strings.ToLower(state.Search)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if needle != "" && !matchesSearch(t, needle) {
			continue
		}
		if state.Phase != "" && state.Phase != FilterAll && t.Sheet != state.Phase {
			continue
		}
		if state.Status != "" && state.Status != FilterAll && deref(t.Status) != state.Status {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesSearch(t models.Task, needle string) bool {
	for _, field := range []*string{t.Job, t.Crew, t.Description} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

// sortTasks sorts in place. The sort is stable in both directions.
func sortTasks(tasks []models.Task, key SortKey, dir SortDir) {
	cmp := func(a, b models.Task) int {
		switch key {
		case SortWeeks:
			wa, wb := weeksOf(a), weeksOf(b)
			switch {
			case wa < wb:
				return -1
			case wa > wb:
				return 1
			}
			return 0
		case SortJob:
			return strings.Compare(deref(a.Job), deref(b.Job))
		default:
			return strings.Compare(deref(a.StartDate), deref(b.StartDate))
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		c := cmp(tasks[i], tasks[j])
		if dir == SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func distinctPhases(tasks []models.Task) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tasks {
		if _, ok := seen[t.Sheet]; ok {
			continue
		}
		seen[t.Sheet] = struct{}{}
		out = append(out, t.Sheet)
	}
	return out
}

func distinctStatuses(tasks []models.Task) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tasks {
		s := deref(t.Status)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
