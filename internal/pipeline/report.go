package pipeline

import (
	"fmt"
	"strings"
	"time"

	"jobtrack/internal/domain"
)

type FailedItem struct {
	URL    string
	Reason string
}

// Report summarizes one Run.
type Report struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	Attempted    int
	Succeeded    int
	Failed       int
	Inserted     int
	Duplicates   int
	Notified     int
	NotifyFailed int
	FailedItems  []FailedItem
	Cleared      bool
	NothingToDo  bool
}

func (r Report) String() string {
	if r.NothingToDo {
		return "No pending URLs to process."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "attempted=%d succeeded=%d failed=%d", r.Attempted, r.Succeeded, r.Failed)
	fmt.Fprintf(&b, " inserted=%d duplicates=%d", r.Inserted, r.Duplicates)
	if r.Notified > 0 || r.NotifyFailed > 0 {
		fmt.Fprintf(&b, " notified=%d notify_failed=%d", r.Notified, r.NotifyFailed)
	}
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " took=%s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	for _, f := range r.FailedItems {
		fmt.Fprintf(&b, "\n  failed: %s (%s)", f.URL, f.Reason)
	}
	if !r.Cleared {
		b.WriteString("\n  inbox kept")
	}
	return b.String()
}

type DigestReport struct {
	New       int
	FollowUps int
	Sent      bool
}

type ReminderReport struct {
	Considered int
	Sent       int
	Failed     int
	ByKind     map[domain.ReminderKind]int
}
