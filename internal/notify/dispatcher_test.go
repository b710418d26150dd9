package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobtrack/internal/domain"
)

type recordingTransport struct {
	sent []Message
	err  error
}

func (r *recordingTransport) Send(_ context.Context, m Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func newTestDispatcher(tr Transport) *Dispatcher {
	d := NewDispatcher(tr, Config{To: "me@example.com", TrackerURL: "https://tracker.example"}, zap.NewNop())
	d.now = func() time.Time { return time.Date(2026, 7, 4, 8, 0, 0, 0, time.Local) }
	return d
}

func samplePosting() domain.Posting {
	p := domain.NewPosting("https://x/1", time.Now())
	p.Title = "PM Role"
	p.Company = "Acme <Corp>"
	return p
}

func TestNotifyNew(t *testing.T) {
	tr := &recordingTransport{}
	ok := newTestDispatcher(tr).NotifyNew(context.Background(), samplePosting())
	require.True(t, ok)
	require.Len(t, tr.sent, 1)

	m := tr.sent[0]
	assert.Equal(t, "me@example.com", m.To)
	assert.Equal(t, "New Job Saved: PM Role", m.Subject)
	assert.Contains(t, m.HTML, "https://x/1")
	assert.Contains(t, m.HTML, "Acme &lt;Corp&gt;")
	assert.Contains(t, m.HTML, "https://tracker.example")
}

func TestJobTypeShownOnlyWhenKnown(t *testing.T) {
	tr := &recordingTransport{}
	d := newTestDispatcher(tr)

	p := samplePosting()
	require.Equal(t, domain.Unknown, p.JobType)
	require.True(t, d.NotifyNew(context.Background(), p))

	p.JobType = "Full-time"
	require.True(t, d.NotifyNew(context.Background(), p))

	require.Len(t, tr.sent, 2)
	assert.NotContains(t, tr.sent[0].HTML, "Type:")
	assert.Contains(t, tr.sent[1].HTML, "Type: Full-time")
}

func TestEmptyDigestStillSends(t *testing.T) {
	tr := &recordingTransport{}
	ok := newTestDispatcher(tr).SendDigest(context.Background(), nil, nil)
	require.True(t, ok)
	require.Len(t, tr.sent, 1)

	m := tr.sent[0]
	assert.Equal(t, "Job Tracker - Daily Digest (2026-07-04)", m.Subject)
	assert.Contains(t, m.HTML, "No new jobs")
	assert.Contains(t, m.HTML, "No pending follow-ups.")
}

func TestDigestListsBothGroups(t *testing.T) {
	tr := &recordingTransport{}
	p := samplePosting()
	fu := samplePosting()
	fu.Title = "Engineer"
	fu.Status = domain.StatusFollowUpPending

	ok := newTestDispatcher(tr).SendDigest(context.Background(),
		[]domain.Posting{p},
		[]domain.FollowUp{{Posting: fu, Reason: "Applied 9 days ago"}})
	require.True(t, ok)

	html := tr.sent[0].HTML
	assert.Contains(t, html, "PM Role")
	assert.Contains(t, html, "Engineer")
	assert.Contains(t, html, "Follow-up Pending")
	assert.Contains(t, html, "Applied 9 days ago")
	assert.NotContains(t, html, "No new jobs")
}

func TestSendReminderKinds(t *testing.T) {
	tr := &recordingTransport{}
	d := newTestDispatcher(tr)
	p := samplePosting()

	require.True(t, d.SendReminder(context.Background(), domain.ReminderFollowUp, p))
	require.True(t, d.SendReminder(context.Background(), domain.ReminderDeadline, p))
	require.True(t, d.SendReminder(context.Background(), domain.ReminderKind("bogus"), p))

	assert.Equal(t, "Follow-up Reminder: PM Role", tr.sent[0].Subject)
	assert.Contains(t, tr.sent[0].HTML, "7 days")
	assert.Equal(t, "Application Deadline Approaching: PM Role", tr.sent[1].Subject)
	assert.Equal(t, "Job Application Reminder", tr.sent[2].Subject)
}

func TestSendFailureReturnsFalse(t *testing.T) {
	tr := &recordingTransport{err: errors.New("connection refused")}
	d := newTestDispatcher(tr)

	assert.False(t, d.NotifyNew(context.Background(), samplePosting()))
	assert.False(t, d.SendDigest(context.Background(), nil, nil))
	assert.False(t, d.SendReminder(context.Background(), domain.ReminderGeneric, samplePosting()))
}

func TestComposeHTMLMessage(t *testing.T) {
	at := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	b, err := compose("bot@example.com", "Job Tracker", Message{
		To:      "me@example.com",
		Subject: "New Job Saved: PM Role",
		HTML:    "<p>hello</p>",
	}, at)
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, "Subject: New Job Saved: PM Role")
	assert.Contains(t, s, "<me@example.com>")
	assert.Contains(t, s, "text/html")
	assert.Contains(t, strings.ToLower(s), "message-id:")
	assert.Contains(t, s, "<p>hello</p>")
}

func TestDiscardNeverFails(t *testing.T) {
	d := newTestDispatcher(NewDiscard(zap.NewNop()))
	assert.True(t, d.NotifyNew(context.Background(), samplePosting()))
}
