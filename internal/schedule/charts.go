package schedule

import (
	"math"
	"sort"
	"time"
)

// maxCrews caps the crew workload chart.
const maxCrews = 10

// NameValue is one slice of the phase chart.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// StatusSlice is one slice of the status chart.
type StatusSlice struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Value int    `json:"value"`
}

// CrewLoad is one bar of the crew workload chart.
type CrewLoad struct {
	Name  string  `json:"name"`
	Weeks float64 `json:"weeks"`
}

// MonthCount is one point of the task start timeline.
type MonthCount struct {
	Month string `json:"month"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Charts holds the chart-ready series derived from Stats.
type Charts struct {
	PhaseData   []NameValue   `json:"phaseData"`
	StatusData  []StatusSlice `json:"statusData"`
	CrewData    []CrewLoad    `json:"crewData"`
	MonthlyData []MonthCount  `json:"monthlyData"`
}

// BuildCharts turns Stats into chart series. A nil Stats yields nil.
func BuildCharts(s *Stats) *Charts {
	if s == nil {
		return nil
	}

	c := &Charts{
		PhaseData:   make([]NameValue, 0, len(s.PhaseOrder)),
		StatusData:  make([]StatusSlice, 0, len(s.StatusOrder)),
		CrewData:    make([]CrewLoad, 0, len(s.CrewOrder)),
		MonthlyData: make([]MonthCount, 0, len(s.MonthlyTasks)),
	}

	for _, name := range s.PhaseOrder {
		c.PhaseData = append(c.PhaseData, NameValue{Name: name, Value: s.PhaseCounts[name]})
	}

	for _, code := range s.StatusOrder {
		c.StatusData = append(c.StatusData, StatusSlice{
			Name:  StatusLabel(code),
			Code:  code,
			Value: s.StatusCounts[code],
		})
	}

	for _, name := range s.CrewOrder {
		c.CrewData = append(c.CrewData, CrewLoad{Name: name, Weeks: roundTenth(s.CrewWorkload[name])})
	}
	// Stable: equal workloads keep discovery order.
	sort.SliceStable(c.CrewData, func(i, j int) bool {
		return c.CrewData[i].Weeks > c.CrewData[j].Weeks
	})
	if len(c.CrewData) > maxCrews {
		c.CrewData = c.CrewData[:maxCrews]
	}

	months := make([]string, 0, len(s.MonthlyTasks))
	for m := range s.MonthlyTasks {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		c.MonthlyData = append(c.MonthlyData, MonthCount{
			Month: m,
			Label: MonthLabel(m),
			Count: s.MonthlyTasks[m],
		})
	}

	return c
}

// MonthLabel renders a YYYY-MM key as a short label like "Mar 25". Keys that
// do not parse are returned as is.
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 06")
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
