package schedule

import (
	"math"
	"sort"

	"github.com/blueox/schedule/internal/models"
)

// workDaysPerWeek converts weeks of work into billable days.
const workDaysPerWeek = 5

// PhaseProgress is the completion of one sheet.
type PhaseProgress struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Done       int    `json:"done"`
	Percentage int    `json:"percentage"`
}

// Progress returns per-sheet completion in discovery order.
func Progress(tasks []models.Task) []PhaseProgress {
	index := make(map[string]int)
	var out []PhaseProgress
	for _, t := range tasks {
		i, ok := index[t.Sheet]
		if !ok {
			i = len(out)
			index[t.Sheet] = i
			out = append(out, PhaseProgress{Name: t.Sheet})
		}
		out[i].Total++
		if deref(t.Status) == StatusDone {
			out[i].Done++
		}
	}
	for i := range out {
		out[i].Percentage = int(math.Round(float64(out[i].Done) / float64(out[i].Total) * 100))
	}
	return out
}

// MonthRevenue is projected revenue attributed to a start month.
type MonthRevenue struct {
	Month   string  `json:"month"`
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
}

// RevenueSeries is the monthly projected revenue chart.
type RevenueSeries struct {
	Months         []MonthRevenue `json:"data"`
	TotalProjected float64        `json:"totalProjected"`
}

// Revenue projects daily_revenue × weeks × 5 working days per task onto the
// month the task starts. Tasks missing any of the three inputs are skipped.
func Revenue(tasks []models.Task) RevenueSeries {
	byMonth := make(map[string]float64)
	var total float64
	for _, t := range tasks {
		start := deref(t.StartDate)
		if start == "" || t.DailyRevenue == nil || t.Weeks == nil {
			continue
		}
		amount := *t.DailyRevenue * *t.Weeks * workDaysPerWeek
		if amount <= 0 {
			continue
		}
		byMonth[monthKey(start)] += amount
		total += amount
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := RevenueSeries{Months: make([]MonthRevenue, 0, len(keys)), TotalProjected: total}
	for _, k := range keys {
		series.Months = append(series.Months, MonthRevenue{Month: k, Label: MonthLabel(k), Revenue: byMonth[k]})
	}
	return series
}
