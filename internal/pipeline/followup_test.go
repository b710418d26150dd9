package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobtrack/internal/domain"
)

var today = time.Date(2026, 9, 15, 10, 0, 0, 0, time.Local)

func row(title string, status domain.Status, applied, followUp string, extracted time.Time) domain.Posting {
	p := domain.NewPosting("https://x/"+title, extracted)
	p.Title = title
	p.Status = status
	p.ApplicationDate = applied
	p.FollowUpDate = followUp
	return p
}

func newFollowUpOrchestrator(s *memStore, n *fakeNotifier) *Orchestrator {
	return New(&memInbox{}, nil, nil, s, n, Options{FollowUpDays: 7, DeadlineDays: 2}, zap.NewNop())
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2026-09-01", "2026-09-01 08:00:00", "09/01/2026", "2026-09-01T08:00:00Z"} {
		d, ok := ParseDate(s, time.Local)
		require.True(t, ok, s)
		assert.Equal(t, 2026, d.Year())
		assert.Equal(t, time.September, d.Month())
	}
	_, ok := ParseDate("next tuesday", time.Local)
	assert.False(t, ok)
	_, ok = ParseDate(domain.Unknown, time.Local)
	assert.False(t, ok)
}

func TestRemindersPickKindByElapsedTime(t *testing.T) {
	old := today.AddDate(0, 0, -30)
	s := &memStore{rows: []domain.Posting{
		row("applied-long-ago", domain.StatusApplied, "2026-09-01", "", old),
		row("applied-recently", domain.StatusApplied, "2026-09-13", "", old),
		row("deadline-soon", domain.StatusSaved, "", "2026-09-16", old),
		row("deadline-far", domain.StatusSaved, "", "2026-10-30", old),
		row("pending", domain.StatusFollowUpPending, "", "", old),
		row("closed", domain.StatusClosed, "2026-08-01", "2026-09-16", old),
		row("follow-up-passed", domain.StatusApplied, "", "2026-09-10", old),
	}}
	n := &fakeNotifier{}

	rep, err := newFollowUpOrchestrator(s, n).Reminders(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, []reminder{
		{kind: domain.ReminderFollowUp, title: "applied-long-ago"},
		{kind: domain.ReminderDeadline, title: "deadline-soon"},
		{kind: domain.ReminderGeneric, title: "pending"},
		{kind: domain.ReminderFollowUp, title: "follow-up-passed"},
	}, n.reminders)
	assert.Equal(t, 7, rep.Considered)
	assert.Equal(t, 4, rep.Sent)
	assert.Equal(t, 2, rep.ByKind[domain.ReminderFollowUp])
}

func TestRemindersFilterByKind(t *testing.T) {
	old := today.AddDate(0, 0, -30)
	s := &memStore{rows: []domain.Posting{
		row("applied-long-ago", domain.StatusApplied, "2026-09-01", "", old),
		row("deadline-soon", domain.StatusSaved, "", "2026-09-16", old),
		row("pending", domain.StatusFollowUpPending, "", "", old),
	}}
	n := &fakeNotifier{}

	rep, err := newFollowUpOrchestrator(s, n).Reminders(context.Background(), today, domain.ReminderDeadline)
	require.NoError(t, err)
	assert.Equal(t, []reminder{{kind: domain.ReminderDeadline, title: "deadline-soon"}}, n.reminders)
	assert.Equal(t, 1, rep.Sent)
}

func TestRemindersCountFailures(t *testing.T) {
	s := &memStore{rows: []domain.Posting{row("pending", domain.StatusFollowUpPending, "", "", today)}}
	n := &fakeNotifier{fail: true}

	rep, err := newFollowUpOrchestrator(s, n).Reminders(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Zero(t, rep.Sent)
}

func TestDigestGroupsTodayAndFollowUps(t *testing.T) {
	s := &memStore{rows: []domain.Posting{
		row("old", domain.StatusApplied, "2026-09-01", "", today.AddDate(0, 0, -20)),
		row("fresh", domain.StatusSaved, "", "", today.Add(-time.Hour)),
		row("yesterday", domain.StatusSaved, "", "", today.AddDate(0, 0, -1)),
	}}
	n := &fakeNotifier{}

	rep, err := newFollowUpOrchestrator(s, n).Digest(context.Background(), today)
	require.NoError(t, err)
	assert.True(t, rep.Sent)
	assert.Equal(t, 1, rep.New)
	assert.Equal(t, 1, rep.FollowUps)
	require.Len(t, n.digestNew, 1)
	assert.Equal(t, "fresh", n.digestNew[0].Title)
	require.Len(t, n.digestFUs, 1)
	assert.Equal(t, "old", n.digestFUs[0].Posting.Title)
	assert.Contains(t, n.digestFUs[0].Reason, "14 days")
}

func TestDigestWithNothingStillSends(t *testing.T) {
	n := &fakeNotifier{}
	rep, err := newFollowUpOrchestrator(&memStore{}, n).Digest(context.Background(), today)
	require.NoError(t, err)
	assert.True(t, rep.Sent)
	assert.Equal(t, 1, n.digests)
	assert.Empty(t, n.digestNew)
}
