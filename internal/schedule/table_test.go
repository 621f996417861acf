package schedule

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/blueox/schedule/internal/models"
)

func ids(tasks []models.Task) []uint {
	out := make([]uint, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestRecompute_SearchScenario(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Sheet: "Roads", Job: sp("Roadwork")},
		{ID: 2, Sheet: "Concrete", Job: sp("Concrete Pour")},
		{ID: 3, Sheet: "Roads", Job: sp("Road Ext")},
	}
	state := NewTableState()
	state.SetSearch("Ro")

	view := Recompute(tasks, state)
	if view.Filtered != 2 {
		t.Fatalf("Filtered = %d, want 2", view.Filtered)
	}
	got := map[uint]bool{}
	for _, r := range view.Rows {
		got[r.ID] = true
	}
	if !got[1] || !got[3] {
		t.Errorf("rows = %v, want tasks 1 and 3", ids(view.Rows))
	}
}

func TestRecompute_SearchCrewAndDescription(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Crew: sp("Bravo Team")},
		{ID: 2, Description: sp("install BRAVO culvert")},
		{ID: 3, Job: sp("Alpha")},
		{ID: 4},
	}
	state := NewTableState()
	state.SetSearch("bravo")

	view := Recompute(tasks, state)
	if view.Filtered != 2 {
		t.Errorf("Filtered = %d, want 2 (crew + description match)", view.Filtered)
	}
}

func TestRecompute_StatusFilterMatchesStatusCounts(t *testing.T) {
	tasks := generateTasks(83)
	stats := Aggregate(tasks)

	for _, code := range []string{"S", "A", "D", "P", "L"} {
		state := NewTableState()
		state.SetStatus(code)
		all := collectAllPages(tasks, state)
		for _, r := range all {
			if deref(r.Status) != code {
				t.Errorf("status filter %s returned row with status %q", code, deref(r.Status))
			}
		}
		if len(all) != stats.StatusCounts[code] {
			t.Errorf("status %s: %d rows, want %d", code, len(all), stats.StatusCounts[code])
		}
	}
}

func TestRecompute_PhaseFilter(t *testing.T) {
	tasks := generateTasks(40)
	state := NewTableState()
	state.SetPhase("Pipe")

	for _, r := range collectAllPages(tasks, state) {
		if r.Sheet != "Pipe" {
			t.Errorf("phase filter returned sheet %q", r.Sheet)
		}
	}
}

func TestRecompute_PaginationCoversEveryRow(t *testing.T) {
	for _, n := range []int{0, 1, 14, 15, 16, 30, 31, 97} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tasks := generateTasks(n)
			state := NewTableState()
			first := Recompute(tasks, state)

			wantPages := (n + PageSize - 1) / PageSize
			if first.TotalPages != wantPages {
				t.Errorf("TotalPages = %d, want %d", first.TotalPages, wantPages)
			}

			seen := make(map[uint]int)
			total := 0
			for p := 0; p < first.TotalPages; p++ {
				state.SetPage(p)
				view := Recompute(tasks, state)
				total += len(view.Rows)
				for _, r := range view.Rows {
					seen[r.ID]++
				}
				if p == first.TotalPages-1 {
					want := n % PageSize
					if want == 0 && n > 0 {
						want = PageSize
					}
					if len(view.Rows) != want {
						t.Errorf("last page rows = %d, want %d", len(view.Rows), want)
					}
				}
			}
			if total != n {
				t.Errorf("sum of page lengths = %d, want %d", total, n)
			}
			for id, c := range seen {
				if c != 1 {
					t.Errorf("task %d appeared %d times", id, c)
				}
			}
		})
	}
}

func TestRecompute_ClampsPage(t *testing.T) {
	tasks := generateTasks(20)

	state := NewTableState()
	state.SetPage(99)
	view := Recompute(tasks, state)
	if view.Page != 1 || view.State.Page != 1 {
		t.Errorf("Page = %d, want clamped to 1", view.Page)
	}
	if len(view.Rows) != 5 {
		t.Errorf("rows = %d, want 5 on last page", len(view.Rows))
	}

	state.SetPage(-3)
	view = Recompute(tasks, state)
	if view.Page != 0 || len(view.Rows) != PageSize {
		t.Errorf("negative page: Page = %d rows = %d, want 0 and %d", view.Page, len(view.Rows), PageSize)
	}

	state.SetPage(4)
	view = Recompute(nil, state)
	if view.Page != 0 || view.TotalPages != 0 || len(view.Rows) != 0 {
		t.Errorf("empty: %+v, want page 0, no pages, no rows", view)
	}
}

func TestRecompute_SortWeeksReverses(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Weeks: fp(3)},
		{ID: 2, Weeks: fp(1)},
		{ID: 3, Weeks: fp(7.5)},
		{ID: 4, Weeks: nil},
		{ID: 5, Weeks: fp(2)},
	}
	state := NewTableState()
	state.ToggleSort(SortWeeks) // desc
	desc := ids(Recompute(tasks, state).Rows)
	state.ToggleSort(SortWeeks) // asc
	asc := ids(Recompute(tasks, state).Rows)

	wantAsc := []uint{4, 2, 5, 1, 3}
	if fmt.Sprint(asc) != fmt.Sprint(wantAsc) {
		t.Errorf("asc = %v, want %v", asc, wantAsc)
	}
	for i := range asc {
		if asc[i] != desc[len(desc)-1-i] {
			t.Fatalf("desc %v is not the reverse of asc %v", desc, asc)
		}
	}
}

func TestRecompute_SortStableOnTies(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Job: sp("B")},
		{ID: 2, Job: sp("A")},
		{ID: 3, Job: sp("B")},
		{ID: 4, Job: nil},
		{ID: 5, Job: sp("A")},
	}
	state := NewTableState()
	state.ToggleSort(SortJob)
	if got := ids(Recompute(tasks, state).Rows); fmt.Sprint(got) != fmt.Sprint([]uint{1, 3, 2, 5, 4}) {
		t.Errorf("job desc = %v, want [1 3 2 5 4]", got)
	}
	state.ToggleSort(SortJob)
	if got := ids(Recompute(tasks, state).Rows); fmt.Sprint(got) != fmt.Sprint([]uint{4, 2, 5, 1, 3}) {
		t.Errorf("job asc = %v, want [4 2 5 1 3]", got)
	}
}

func TestRecompute_DefaultSortStartDesc(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, StartDate: sp("2024-02-01")},
		{ID: 2, StartDate: nil},
		{ID: 3, StartDate: sp("2024-05-01")},
	}
	got := ids(Recompute(tasks, NewTableState()).Rows)
	if fmt.Sprint(got) != fmt.Sprint([]uint{3, 1, 2}) {
		t.Errorf("default order = %v, want [3 1 2]", got)
	}
}

func TestRecompute_DoesNotMutateInput(t *testing.T) {
	tasks := []models.Task{{ID: 1, Job: sp("B")}, {ID: 2, Job: sp("A")}}
	state := NewTableState()
	state.ToggleSort(SortJob)
	state.ToggleSort(SortJob)
	Recompute(tasks, state)
	if tasks[0].ID != 1 || tasks[1].ID != 2 {
		t.Errorf("input reordered: %v", ids(tasks))
	}
}

func TestRecompute_FilterOptions(t *testing.T) {
	tasks := []models.Task{
		{Sheet: "Pipe", Status: sp("S")},
		{Sheet: "Roads", Status: nil},
		{Sheet: "Pipe", Status: sp("A")},
	}
	view := Recompute(tasks, NewTableState())
	if fmt.Sprint(view.Phases) != "[Pipe Roads]" {
		t.Errorf("Phases = %v, want [Pipe Roads]", view.Phases)
	}
	if fmt.Sprint(view.Statuses) != "[S A]" {
		t.Errorf("Statuses = %v, want [S A]", view.Statuses)
	}
}

func TestTableState_FilterChangesResetPage(t *testing.T) {
	tests := []struct {
		name   string
		change func(*TableState)
	}{
		{"search", func(s *TableState) { s.SetSearch("x") }},
		{"phase", func(s *TableState) { s.SetPhase("Pipe") }},
		{"status", func(s *TableState) { s.SetStatus("A") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTableState()
			s.SetPage(3)
			tt.change(&s)
			if s.Page != 0 {
				t.Errorf("Page = %d, want 0", s.Page)
			}
		})
	}
}

func TestTableState_ToggleSort(t *testing.T) {
	s := NewTableState()
	if s.SortKey != SortStart || s.SortDir != SortDesc {
		t.Fatalf("initial sort = %s %s, want start desc", s.SortKey, s.SortDir)
	}
	s.ToggleSort(SortStart)
	if s.SortDir != SortAsc {
		t.Errorf("same key should flip to asc, got %s", s.SortDir)
	}
	s.ToggleSort(SortJob)
	if s.SortKey != SortJob || s.SortDir != SortDesc {
		t.Errorf("new key = %s %s, want job desc", s.SortKey, s.SortDir)
	}
}

func TestParseTableState(t *testing.T) {
	v := url.Values{}
	v.Set("q", "pour")
	v.Set("phase", "Concrete")
	v.Set("status", "A")
	v.Set("sort", "weeks")
	v.Set("dir", "asc")
	v.Set("page", "2")

	s := ParseTableState(v)
	want := TableState{Search: "pour", Phase: "Concrete", Status: "A", SortKey: SortWeeks, SortDir: SortAsc, Page: 2}
	if s != want {
		t.Errorf("ParseTableState = %+v, want %+v", s, want)
	}

	back := ParseTableState(s.Values())
	if back != s {
		t.Errorf("Values round trip = %+v, want %+v", back, s)
	}
}

func TestParseTableState_Defaults(t *testing.T) {
	v := url.Values{}
	v.Set("sort", "crew")
	v.Set("dir", "sideways")
	v.Set("page", "abc")

	if s := ParseTableState(v); s != NewTableState() {
		t.Errorf("ParseTableState = %+v, want defaults", s)
	}
}

// collectAllPages walks every page for state and returns the rows in order.
func collectAllPages(tasks []models.Task, state TableState) []models.Task {
	var out []models.Task
	first := Recompute(tasks, state)
	for p := 0; p < first.TotalPages; p++ {
		state.SetPage(p)
		out = append(out, Recompute(tasks, state).Rows...)
	}
	return out
}
