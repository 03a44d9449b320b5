package application

import (
	"context"
	"log"
	"time"
)

// Scheduler fires the due-day reminder bot once per local day at DailyAt.
type Scheduler struct {
	bot    *ReminderBot
	dryRun bool
	loc    *time.Location
	logger *log.Logger

	hour, minute int
	valid        bool
}

// NewScheduler constructs a Scheduler. An empty or malformed DailyAt leaves it
// disabled.
func NewScheduler(bot *ReminderBot, cfg ReminderConfig, loc *time.Location, logger *log.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{bot: bot, dryRun: cfg.DryRun, loc: loc, logger: logger}
	if at, err := time.Parse("15:04", cfg.DailyAt); err == nil {
		s.hour, s.minute, s.valid = at.Hour(), at.Minute(), true
	}
	return s
}

// Enabled reports whether Start will do anything.
func (s *Scheduler) Enabled() bool {
	return s != nil && s.bot != nil && s.valid
}

// NextRun is the first DailyAt instant strictly after now, in local time.
// It follows the wall clock across DST changes.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// Start sleeps until each next run and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	for {
		next := s.NextRun(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.bot.Run(ctx, s.dryRun)
	if s.logger == nil {
		return
	}
	if err != nil {
		s.logger.Printf("reminder run failed: %v", err)
		return
	}
	s.logger.Printf("reminder run: processed=%d sent=%d errors=%d dry_run=%t", report.Processed, report.Sent, report.Errors, report.DryRun)
}
