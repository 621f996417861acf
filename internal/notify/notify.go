// Package notify posts the upcoming-deadline digest to a chat channel.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/blueox/schedule/internal/models"
	"github.com/blueox/schedule/internal/schedule"
)

// Adapter delivers a message to one chat platform.
type Adapter interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a platform-neutral chat message.
type Message struct {
	ChannelID string  // empty selects the adapter's default channel
	Text      string  // headline, also the notification fallback
	Events    []Event // one attachment or embed per entry
}

// Event is one formatted attachment.
type Event struct {
	Title  string
	Body   string
	Color  string // hex, e.g. "#b91c1c"
	Fields []Field
}

// Field is a key-value pair shown on an attachment.
type Field struct {
	Name  string
	Value string
	Short bool
}

var urgencyColors = map[schedule.Urgency]string{
	schedule.UrgencyOverdue: "#b91c1c",
	schedule.UrgencySoon:    "#d97706",
	schedule.UrgencyWeek:    "#2563eb",
	schedule.UrgencyOK:      "#16a34a",
}

// BuildDigest formats the unfinished tasks ending within window days of
// today. ok is false when nothing qualifies, in which case no message
// should be sent.
func BuildDigest(company string, tasks []models.Task, today time.Time, window, limit int) (msg Message, ok bool) {
	deadlines := schedule.UpcomingDeadlines(tasks, today, window, limit)
	if len(deadlines) == 0 {
		return Message{}, false
	}

	overdue := 0
	for _, d := range deadlines {
		if d.Urgency == schedule.UrgencyOverdue {
			overdue++
		}
	}

	msg.Text = fmt.Sprintf("%s: %s within %d days", company, plural(len(deadlines), "deadline"), window)
	if overdue > 0 {
		msg.Text += fmt.Sprintf(" (%d overdue)", overdue)
	}
	for _, d := range deadlines {
		msg.Events = append(msg.Events, deadlineEvent(d))
	}
	return msg, true
}

func deadlineEvent(d schedule.Deadline) Event {
	title := d.Job
	if title == "" {
		title = fmt.Sprintf("Task %d", d.ID)
	}
	ev := Event{
		Title: title,
		Body:  fmt.Sprintf("%s, ends %s", d.Label, d.EndDate),
		Color: urgencyColors[d.Urgency],
		Fields: []Field{
			{Name: "Phase", Value: d.Phase, Short: true},
		},
	}
	if d.Crew != nil && *d.Crew != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Crew", Value: *d.Crew, Short: true})
	}
	return ev
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
