package notify

import (
	"bytes"
	"html/template"

	"github.com/cockroachdb/errors"

	"jobtrack/internal/domain"
)

const layout = `{{define "head"}}<html><body style="font-family:Arial,sans-serif;color:#222">{{end}}
{{define "foot"}}{{if .TrackerURL}}<p><a href="{{.TrackerURL}}">Open your job tracker</a></p>{{end}}</body></html>{{end}}
{{define "posting"}}<p><strong>{{.Title}}</strong> at {{.Company}}<br>
Location: {{.Location}}<br>
{{if known .JobType}}Type: {{.JobType}}<br>{{end}}<a href="{{.URL}}">View posting</a></p>{{end}}`

var (
	tplNew = parse("new", `{{template "head"}}
<h2>New Job Saved</h2>
{{template "posting" .Posting}}
{{template "foot" .}}`)

	tplDigest = parse("digest", `{{template "head"}}
<h2>Daily Digest for {{.Date}}</h2>
<h3>New Jobs Saved Today ({{len .New}})</h3>
{{range .New}}{{template "posting" .}}{{else}}<p>No new jobs saved today.</p>{{end}}
<h3>Pending Follow-ups ({{len .FollowUps}})</h3>
{{range .FollowUps}}<p><strong>{{.Posting.Title}}</strong> at {{.Posting.Company}}<br>
Status: {{.Posting.Status.Display}}<br>{{.Reason}}<br><a href="{{.Posting.URL}}">View posting</a></p>{{else}}<p>No pending follow-ups.</p>{{end}}
{{template "foot" .}}`)

	tplReminder = parse("reminder", `{{template "head"}}
<h2>{{.Heading}}</h2>
<p>{{.Text}}</p>
{{template "posting" .Posting}}
{{if .Posting.Notes}}<p>Notes: {{.Posting.Notes}}</p>{{end}}
{{template "foot" .}}`)
)

var funcs = template.FuncMap{
	"known": func(s string) bool { return s != "" && s != domain.Unknown },
}

func parse(name, body string) *template.Template {
	return template.Must(template.Must(template.New(name).Funcs(funcs).Parse(layout)).Parse(body))
}

type newView struct {
	Posting    domain.Posting
	TrackerURL string
}

type digestView struct {
	Date       string
	New        []domain.Posting
	FollowUps  []domain.FollowUp
	TrackerURL string
}

type reminderView struct {
	Heading    string
	Text       string
	Posting    domain.Posting
	TrackerURL string
}

func render(t *template.Template, v any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", errors.Wrapf(err, "render %s", t.Name())
	}
	return buf.String(), nil
}
