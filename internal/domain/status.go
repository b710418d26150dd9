package domain

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type Status string

const (
	StatusSaved           Status = "Saved"
	StatusApplied         Status = "Applied"
	StatusFollowUpPending Status = "FollowUpPending"
	StatusClosed          Status = "Closed"
)

var statusAliases = map[string]Status{
	"saved":             StatusSaved,
	"applied":           StatusApplied,
	"followuppending":   StatusFollowUpPending,
	"follow-up pending": StatusFollowUpPending,
	"follow up pending": StatusFollowUpPending,
	"follow-up":         StatusFollowUpPending,
	"closed":            StatusClosed,
}

// ParseStatus accepts the enum names case-insensitively plus the display forms.
func ParseStatus(s string) (Status, error) {
	k := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if st, ok := statusAliases[k]; ok {
		return st, nil
	}
	return "", errors.Newf("unknown status %q (want Saved, Applied, FollowUpPending or Closed)", s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusSaved, StatusApplied, StatusFollowUpPending, StatusClosed:
		return true
	}
	return false
}

// Display is the human form used in notifications.
func (s Status) Display() string {
	if s == StatusFollowUpPending {
		return "Follow-up Pending"
	}
	if s == "" {
		return string(StatusSaved)
	}
	return string(s)
}

type ReminderKind string

const (
	ReminderFollowUp ReminderKind = "follow_up"
	ReminderDeadline ReminderKind = "deadline"
	ReminderGeneric  ReminderKind = "generic"
)

// ParseReminderKind never fails; anything unrecognised is a generic reminder.
func ParseReminderKind(s string) ReminderKind {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "follow_up", "followup":
		return ReminderFollowUp
	case "deadline":
		return ReminderDeadline
	default:
		return ReminderGeneric
	}
}
