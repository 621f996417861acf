package schedule

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/blueox/schedule/internal/models"
)

// Urgency buckets a deadline by days left.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencySoon    Urgency = "soon"
	UrgencyWeek    Urgency = "week"
	UrgencyOK      Urgency = "ok"
)

// Deadline is an unfinished task ending near today.
type Deadline struct {
	ID       uint    `json:"id"`
	Job      string  `json:"job"`
	Phase    string  `json:"phase"`
	Crew     *string `json:"crew"`
	EndDate  string  `json:"end_date"`
	DaysLeft int     `json:"daysLeft"`
	Label    string  `json:"label"`
	Urgency  Urgency `json:"urgency"`
}

// UpcomingDeadlines returns unfinished tasks whose end date lies within
// window days before or after today, soonest (most overdue) first. At most
// limit entries are returned; limit <= 0 means no cap.
func UpcomingDeadlines(tasks []models.Task, today time.Time, window, limit int) []Deadline {
	day := truncateDay(today)
	var out []Deadline
	for _, t := range tasks {
		if deref(t.Status) == StatusDone {
			continue
		}
		end, ok := parseDate(deref(t.EndDate), day.Location())
		if !ok {
			continue
		}
		left := daysBetween(day, end)
		if left > window || left < -window {
			continue
		}
		out = append(out, Deadline{
			ID:       t.ID,
			Job:      deref(t.Job),
			Phase:    t.Sheet,
			Crew:     t.Crew,
			EndDate:  end.Format("2006-01-02"),
			DaysLeft: left,
			Label:    DeadlineLabel(left),
			Urgency:  UrgencyFor(left),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DeadlineLabel renders days left as "3d overdue", "Due today", "Tomorrow"
// or "5 days".
func DeadlineLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%dd overdue", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Tomorrow"
	}
	return fmt.Sprintf("%d days", days)
}

// UrgencyFor buckets days left.
func UrgencyFor(days int) Urgency {
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= 3:
		return UrgencySoon
	case days <= 7:
		return UrgencyWeek
	}
	return UrgencyOK
}

// parseDate reads the date part of an ISO date or timestamp.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", s[:10], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween rounds so DST shifts do not lose a day.
func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
