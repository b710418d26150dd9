// Package notify renders tracker notifications as HTML email and hands them
// to a Transport. Dispatch never fails the caller: every send reports
// success as a bool and failures are logged.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobtrack/internal/domain"
	"jobtrack/internal/logging"
)

type Config struct {
	To           string
	TrackerURL   string
	FollowUpDays int
}

type Dispatcher struct {
	t   Transport
	cfg Config
	log *zap.Logger
	now func() time.Time
}

func NewDispatcher(t Transport, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.FollowUpDays <= 0 {
		cfg.FollowUpDays = 7
	}
	return &Dispatcher{t: t, cfg: cfg, log: logging.Component(log, "notify"), now: time.Now}
}

// NotifyNew announces one newly saved posting.
func (d *Dispatcher) NotifyNew(ctx context.Context, p domain.Posting) bool {
	html, err := render(tplNew, newView{Posting: p, TrackerURL: d.cfg.TrackerURL})
	if err != nil {
		d.log.Error("render new-posting notification", zap.String("url", p.URL), zap.Error(err))
		return false
	}
	return d.send(ctx, "New Job Saved: "+p.Title, html)
}

// SendDigest sends the daily summary. Both sections are always rendered.
func (d *Dispatcher) SendDigest(ctx context.Context, newPostings []domain.Posting, followUps []domain.FollowUp) bool {
	date := d.now().Format("2006-01-02")
	html, err := render(tplDigest, digestView{
		Date:       date,
		New:        newPostings,
		FollowUps:  followUps,
		TrackerURL: d.cfg.TrackerURL,
	})
	if err != nil {
		d.log.Error("render digest", zap.Error(err))
		return false
	}
	return d.send(ctx, fmt.Sprintf("Job Tracker - Daily Digest (%s)", date), html)
}

// SendReminder sends the reminder for kind; unrecognised kinds get the
// generic reminder.
func (d *Dispatcher) SendReminder(ctx context.Context, kind domain.ReminderKind, p domain.Posting) bool {
	subject, heading, text := d.reminderText(kind, p)
	html, err := render(tplReminder, reminderView{
		Heading:    heading,
		Text:       text,
		Posting:    p,
		TrackerURL: d.cfg.TrackerURL,
	})
	if err != nil {
		d.log.Error("render reminder", zap.String("kind", string(kind)), zap.Error(err))
		return false
	}
	return d.send(ctx, subject, html)
}

func (d *Dispatcher) reminderText(kind domain.ReminderKind, p domain.Posting) (subject, heading, text string) {
	switch kind {
	case domain.ReminderFollowUp:
		return "Follow-up Reminder: " + p.Title,
			"Time to Follow Up",
			fmt.Sprintf("It has been at least %d days since you applied for %s at %s. Consider following up with the hiring team.",
				d.cfg.FollowUpDays, p.Title, p.Company)
	case domain.ReminderDeadline:
		return "Application Deadline Approaching: " + p.Title,
			"Deadline Approaching",
			fmt.Sprintf("The follow-up date for %s at %s is coming up soon.", p.Title, p.Company)
	default:
		return "Job Application Reminder",
			"Reminder",
			fmt.Sprintf("This is a reminder about %s at %s.", p.Title, p.Company)
	}
}

func (d *Dispatcher) send(ctx context.Context, subject, html string) bool {
	err := d.t.Send(ctx, Message{To: d.cfg.To, Subject: subject, HTML: html})
	if err != nil {
		d.log.Warn("notification failed", zap.String("subject", subject), zap.Error(err))
		return false
	}
	d.log.Debug("notification sent", zap.String("subject", subject))
	return true
}
