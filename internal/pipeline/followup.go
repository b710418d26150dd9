package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobtrack/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	time.RFC3339,
}

// ParseDate reads a human-entered date; ok is false when nothing matched.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == domain.Unknown {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// due decides which reminder, if any, a row needs at now. A row gets at most
// one: follow-up beats deadline beats generic.
func (o *Orchestrator) due(p domain.Posting, now time.Time) (domain.ReminderKind, string, bool) {
	if p.Status == domain.StatusClosed {
		return "", "", false
	}
	loc := now.Location()
	applied, hasApplied := ParseDate(p.ApplicationDate, loc)
	followUp, hasFollowUp := ParseDate(p.FollowUpDate, loc)

	if p.Status == domain.StatusApplied {
		if hasApplied && !now.Before(applied.AddDate(0, 0, o.opts.FollowUpDays)) {
			days := int(now.Sub(applied).Hours() / 24)
			return domain.ReminderFollowUp, fmt.Sprintf("Applied %d days ago.", days), true
		}
		if hasFollowUp && !now.Before(followUp) {
			return domain.ReminderFollowUp, "Follow-up date " + p.FollowUpDate + " has passed.", true
		}
	}

	if hasFollowUp && followUp.After(now) && !followUp.After(now.AddDate(0, 0, o.opts.DeadlineDays)) {
		return domain.ReminderDeadline, "Follow-up date " + p.FollowUpDate + " is coming up.", true
	}

	if p.Status == domain.StatusFollowUpPending {
		return domain.ReminderGeneric, "Marked as follow-up pending.", true
	}
	return "", "", false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Digest sends the daily summary of postings extracted on now's calendar day
// and of rows that need a follow-up.
func (o *Orchestrator) Digest(ctx context.Context, now time.Time) (DigestReport, error) {
	rows, err := o.store.QueryAll(ctx)
	if err != nil {
		return DigestReport{}, errors.Wrap(err, "query postings")
	}

	var fresh []domain.Posting
	var followUps []domain.FollowUp
	for _, r := range rows {
		if !r.ExtractedAt.IsZero() && sameDay(r.ExtractedAt, now) {
			fresh = append(fresh, r.Posting)
		}
		if kind, reason, ok := o.due(r.Posting, now); ok && kind != domain.ReminderDeadline {
			followUps = append(followUps, domain.FollowUp{Posting: r.Posting, Reason: reason})
		}
	}

	rep := DigestReport{New: len(fresh), FollowUps: len(followUps)}
	rep.Sent = o.notifier.SendDigest(ctx, fresh, followUps)
	o.log.Info("digest",
		zap.Int("new", rep.New),
		zap.Int("follow_ups", rep.FollowUps),
		zap.Bool("sent", rep.Sent),
	)
	return rep, nil
}

// Reminders sends one reminder per row that is due at now. When kinds is
// non-empty, reminders of other kinds are not sent.
func (o *Orchestrator) Reminders(ctx context.Context, now time.Time, kinds ...domain.ReminderKind) (ReminderReport, error) {
	rows, err := o.store.QueryAll(ctx)
	if err != nil {
		return ReminderReport{}, errors.Wrap(err, "query postings")
	}

	rep := ReminderReport{Considered: len(rows), ByKind: map[domain.ReminderKind]int{}}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		kind, _, ok := o.due(r.Posting, now)
		if !ok || (len(kinds) > 0 && !slices.Contains(kinds, kind)) {
			continue
		}
		if o.notifier.SendReminder(ctx, kind, r.Posting) {
			rep.Sent++
			rep.ByKind[kind]++
		} else {
			rep.Failed++
		}
	}

	o.log.Info("reminders",
		zap.Int("considered", rep.Considered),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}
