// Package extract turns a fetched posting page into a domain.Posting using an
// ordered chain of rules per field. Misses are field-local: a field whose
// rules all fail becomes domain.Unknown and never affects the others.
package extract

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobtrack/internal/domain"
	"jobtrack/internal/fetch"
)

// Field names used as keys in Outcomes.
const (
	FieldTitle           = "title"
	FieldCompany         = "company"
	FieldLocation        = "location"
	FieldDescription     = "description"
	FieldPostedDate      = "posted_date"
	FieldJobType         = "job_type"
	FieldExperienceLevel = "experience_level"
)

type Outcomes map[string]Outcome

// Misses lists the fields that fell back to domain.Unknown.
func (o Outcomes) Misses() []string {
	var out []string
	for _, f := range []string{FieldTitle, FieldCompany, FieldLocation, FieldDescription,
		FieldPostedDate, FieldJobType, FieldExperienceLevel} {
		if oc, ok := o[f]; ok && !oc.Matched {
			out = append(out, f)
		}
	}
	return out
}

type Rules struct {
	Title           Chain
	Company         Chain
	Location        Chain
	Description     Chain
	PostedDate      Chain
	JobType         Chain
	ExperienceLevel Chain
}

const criteriaItem = "ul.description__job-criteria-list li"

// DefaultRules targets public LinkedIn job pages first and falls back to
// generic markup used by most boards.
func DefaultRules() Rules {
	return Rules{
		Title: Chain{
			Text("h1.top-card-layout__title"),
			Text("h1"),
			Attr(`meta[property="og:title"]`, "content"),
			Text("title"),
		},
		Company: Chain{
			Text("a.topcard__org-name-link"),
			Text("span.topcard__flavor"),
			Text(".job-details-jobs-unified-top-card__company-name"),
			Text("[data-testid='company-name']"),
			Text(".company-name"),
		},
		Location: Chain{
			Text("span.topcard__flavor.topcard__flavor--bullet"),
			Text("span.topcard__flavor--bullet"),
			Text(".job__location"),
			Text(".opening .location"),
			Text(".location"),
			Text("[data-testid='job-location']"),
			Text("[data-testid='location']"),
			Labeled("body", "job location:", "locations:", "location:"),
		},
		Description: Chain{
			Text("div.show-more-less-html__markup"),
			Text("div.description__text"),
			Text("#content"),
			Text(".job-description"),
			Attr(`meta[name="description"]`, "content"),
			Attr(`meta[property="og:description"]`, "content"),
		},
		PostedDate: Chain{
			Text("span.posted-time-ago__text"),
			Attr("time[datetime]", "datetime"),
			Labeled("body", "posted:", "date posted:"),
		},
		JobType: Chain{
			Criteria(criteriaItem, "Employment type", "span.description__job-criteria-text"),
			Labeled("body", "employment type:", "job type:"),
		},
		ExperienceLevel: Chain{
			Criteria(criteriaItem, "Seniority level", "span.description__job-criteria-text"),
			Labeled("body", "seniority level:", "experience level:"),
		},
	}
}

type Extractor struct {
	rules Rules
	now   func() time.Time
}

type Option func(*Extractor)

// WithClock overrides the ExtractedAt clock.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func New(rules Rules, opts ...Option) *Extractor {
	e := &Extractor{rules: rules, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract never fails; see ExtractAll for per-field outcomes.
func (e *Extractor) Extract(doc *fetch.Document) domain.Posting {
	p, _ := e.ExtractAll(doc)
	return p
}

func (e *Extractor) ExtractAll(doc *fetch.Document) (domain.Posting, Outcomes) {
	var url string
	var body []byte
	if doc != nil {
		url, body = doc.URL, doc.Body
	}
	p := domain.NewPosting(url, e.now())

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		gq = nil
	}

	out := Outcomes{
		FieldTitle:           e.rules.Title.Resolve(gq),
		FieldCompany:         e.rules.Company.Resolve(gq),
		FieldLocation:        e.rules.Location.Resolve(gq),
		FieldDescription:     e.rules.Description.Resolve(gq),
		FieldPostedDate:      e.rules.PostedDate.Resolve(gq),
		FieldJobType:         e.rules.JobType.Resolve(gq),
		FieldExperienceLevel: e.rules.ExperienceLevel.Resolve(gq),
	}

	if loc := out[FieldLocation]; loc.Matched {
		if n := NormalizeLocation(loc.Value); n != "" {
			loc.Value = n
			out[FieldLocation] = loc
		}
	}
	if d := out[FieldDescription]; d.Matched {
		d.Value = domain.Truncate(d.Value, domain.MaxDescriptionRunes)
		out[FieldDescription] = d
	}

	p.Title = out[FieldTitle].Value
	p.Company = out[FieldCompany].Value
	p.Location = out[FieldLocation].Value
	p.Description = out[FieldDescription].Value
	p.PostedDate = out[FieldPostedDate].Value
	p.JobType = out[FieldJobType].Value
	p.ExperienceLevel = out[FieldExperienceLevel].Value
	return p, out
}
