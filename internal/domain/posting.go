package domain

import (
	"strings"
	"time"
)

// Unknown is stored in place of any extracted field that could not be found.
const Unknown = "N/A"

// MaxDescriptionRunes bounds the stored description.
const MaxDescriptionRunes = 1000

// ExtractedLayout is how ExtractedAt is written to and read from the store.
const ExtractedLayout = "2006-01-02 15:04:05"

// Posting is one tracked job posting. Every field is always present; extracted
// fields carry Unknown rather than being empty.
type Posting struct {
	URL             string
	Title           string
	Company         string
	Location        string
	Description     string
	PostedDate      string
	JobType         string
	ExperienceLevel string
	ExtractedAt     time.Time
	Status          Status
	ApplicationDate string
	FollowUpDate    string
	Notes           string
}

// NewPosting returns a posting for url with every extracted field set to Unknown.
func NewPosting(url string, at time.Time) Posting {
	return Posting{
		URL:             strings.TrimSpace(url),
		Title:           Unknown,
		Company:         Unknown,
		Location:        Unknown,
		Description:     Unknown,
		PostedDate:      Unknown,
		JobType:         Unknown,
		ExperienceLevel: Unknown,
		ExtractedAt:     at,
		Status:          StatusSaved,
	}
}

// ExtractedDate renders ExtractedAt in the stored layout.
func (p Posting) ExtractedDate() string {
	if p.ExtractedAt.IsZero() {
		return ""
	}
	return p.ExtractedAt.Format(ExtractedLayout)
}

// Row is a persisted posting with its 1-based position in the tracker.
type Row struct {
	Number int64
	Posting
}

// FollowUp pairs a posting with the reason it needs attention.
type FollowUp struct {
	Posting Posting
	Reason  string
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
