package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/blueox/schedule/internal/models"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultSchedule fires at 07:00 on weekdays.
const DefaultSchedule = "0 7 * * 1-5"

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Source supplies the current task list. *board.Board satisfies it.
type Source interface {
	Refresh(ctx context.Context) error
	Tasks() ([]models.Task, error)
}

// SchedulerOpts configures a Scheduler.
type SchedulerOpts struct {
	Source    Source
	Adapter   Adapter
	Company   string
	ChannelID string
	Schedule  string // cron expression; empty selects DefaultSchedule
	Window    int    // days either side of today
	Limit     int
	Now       func() time.Time // for tests
}

// Scheduler sends the deadline digest on a cron schedule.
type Scheduler struct {
	opts SchedulerOpts
	cron *cron.Cron
}

// NewScheduler validates opts and registers the digest job.
func NewScheduler(opts SchedulerOpts) (*Scheduler, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("notify: source is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("notify: adapter is required")
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("notify: parse schedule %q: %w", opts.Schedule, err)
	}

	s := &Scheduler{opts: opts, cron: cron.New(cron.WithParser(cronParser))}
	s.cron.Schedule(sched, cron.FuncJob(func() {
		if _, err := s.SendDigest(context.Background()); err != nil {
			log.WithError(err).Warn("notify: scheduled digest failed")
		}
	}))
	return s, nil
}

// Next reports when the digest fires next after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	sched, _ := cronParser.Parse(s.opts.Schedule)
	return sched.Next(t)
}

// Run starts the cron loop and blocks until ctx is cancelled. A job that is
// already running is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	log.WithField("schedule", s.opts.Schedule).Info("notify: digest scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// SendDigest reloads the tasks and posts the digest once. It reports whether
// a message was sent; an empty digest is not an error.
func (s *Scheduler) SendDigest(ctx context.Context) (bool, error) {
	msg, ok, err := s.Preview(ctx)
	if err != nil || !ok {
		return false, err
	}
	if err := s.opts.Adapter.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("notify: send digest: %w", err)
	}
	log.WithField("deadlines", len(msg.Events)).Info("notify: digest sent")
	return true, nil
}

// Preview builds the digest without sending it.
func (s *Scheduler) Preview(ctx context.Context) (Message, bool, error) {
	if err := s.opts.Source.Refresh(ctx); err != nil {
		return Message{}, false, fmt.Errorf("notify: load tasks: %w", err)
	}
	tasks, err := s.opts.Source.Tasks()
	if err != nil {
		return Message{}, false, fmt.Errorf("notify: load tasks: %w", err)
	}
	msg, ok := BuildDigest(s.opts.Company, tasks, s.opts.Now(), s.opts.Window, s.opts.Limit)
	if !ok {
		log.Debug("notify: no upcoming deadlines; digest suppressed")
		return Message{}, false, nil
	}
	msg.ChannelID = s.opts.ChannelID
	return msg, true, nil
}
