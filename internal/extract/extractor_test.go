package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack/internal/domain"
	"jobtrack/internal/fetch"
)

const linkedInPage = `<html><body>
<h1 class="top-card-layout__title">Senior Product Manager</h1>
<a class="topcard__org-name-link" href="/company/acme">  Acme Corp </a>
<span class="topcard__flavor topcard__flavor--bullet">Austin, TX, Austin, TX</span>
<span class="posted-time-ago__text">2 days ago</span>
<div class="show-more-less-html__markup">Own the roadmap.</div>
<ul class="description__job-criteria-list">
  <li><h3>Seniority level</h3><span class="description__job-criteria-text">Mid-Senior level</span></li>
  <li><h3>Employment type</h3><span class="description__job-criteria-text">Full-time</span></li>
</ul>
</body></html>`

var fixedNow = time.Date(2026, 3, 4, 9, 30, 0, 0, time.Local)

func newTestExtractor() *Extractor {
	return New(DefaultRules(), WithClock(func() time.Time { return fixedNow }))
}

func doc(url, html string) *fetch.Document {
	return &fetch.Document{URL: url, StatusCode: 200, Body: []byte(html)}
}

func TestExtractLinkedInPage(t *testing.T) {
	p := newTestExtractor().Extract(doc("https://www.linkedin.com/jobs/view/1", linkedInPage))

	assert.Equal(t, "https://www.linkedin.com/jobs/view/1", p.URL)
	assert.Equal(t, "Senior Product Manager", p.Title)
	assert.Equal(t, "Acme Corp", p.Company)
	assert.Equal(t, "Austin, TX", p.Location)
	assert.Equal(t, "2 days ago", p.PostedDate)
	assert.Equal(t, "Own the roadmap.", p.Description)
	assert.Equal(t, "Full-time", p.JobType)
	assert.Equal(t, "Mid-Senior level", p.ExperienceLevel)
	assert.Equal(t, domain.StatusSaved, p.Status)
	assert.Equal(t, fixedNow, p.ExtractedAt)
	assert.Empty(t, p.Notes)
	assert.Empty(t, p.ApplicationDate)
	assert.Empty(t, p.FollowUpDate)
}

func TestExtractMissingFieldsDefault(t *testing.T) {
	p, out := newTestExtractor().ExtractAll(doc("https://x/1", `<html><body><h1>PM Role</h1></body></html>`))

	assert.Equal(t, "PM Role", p.Title)
	assert.Equal(t, domain.Unknown, p.Company)
	assert.Equal(t, domain.Unknown, p.Location)
	assert.Equal(t, domain.Unknown, p.Description)
	assert.Equal(t, domain.Unknown, p.PostedDate)
	assert.Equal(t, domain.Unknown, p.JobType)
	assert.Equal(t, domain.Unknown, p.ExperienceLevel)

	assert.True(t, out[FieldTitle].Matched)
	assert.Equal(t, "text(h1)", out[FieldTitle].Rule)
	assert.Contains(t, out.Misses(), FieldCompany)
	assert.NotContains(t, out.Misses(), FieldTitle)
}

func TestExtractFallbackOrder(t *testing.T) {
	html := `<html><body><span class="topcard__flavor">Globex</span></body></html>`
	p := newTestExtractor().Extract(doc("https://x/2", html))
	assert.Equal(t, "Globex", p.Company)

	html = `<html><body>
<a class="topcard__org-name-link">Initech</a>
<span class="topcard__flavor">Globex</span>
</body></html>`
	p = newTestExtractor().Extract(doc("https://x/3", html))
	assert.Equal(t, "Initech", p.Company)
}

func TestExtractTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 5000)
	html := `<html><body><div class="description__text">` + long + `</div></body></html>`

	p := newTestExtractor().Extract(doc("https://x/4", html))
	assert.Equal(t, domain.MaxDescriptionRunes, len([]rune(p.Description)))
}

func TestExtractGenericFallbacks(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Data Engineer">
<meta name="description" content="Build pipelines.">
</head><body>
<div>Location: Remote, Remote</div>
<time datetime="2026-02-01">Feb 1</time>
</body></html>`

	p := newTestExtractor().Extract(doc("https://x/5", html))
	assert.Equal(t, "Data Engineer", p.Title)
	assert.Equal(t, "Build pipelines.", p.Description)
	assert.Equal(t, "Remote", p.Location)
	assert.Equal(t, "2026-02-01", p.PostedDate)
}

func TestExtractEmptyDocument(t *testing.T) {
	p := newTestExtractor().Extract(doc("https://x/6", ""))
	assert.Equal(t, "https://x/6", p.URL)
	assert.Equal(t, domain.Unknown, p.Title)
	assert.Equal(t, domain.Unknown, p.Description)

	p = newTestExtractor().Extract(nil)
	assert.Equal(t, domain.Unknown, p.Company)
}

func TestChainRecoversPanickingRule(t *testing.T) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(`<h1>PM Role</h1>`))
	require.NoError(t, err)

	c := Chain{
		{Name: "boom", Find: func(*goquery.Document) string { panic("bad rule") }},
		Text("h1"),
	}
	out := c.Resolve(gq)
	assert.True(t, out.Matched)
	assert.Equal(t, "PM Role", out.Value)
}

func TestChainNilDocument(t *testing.T) {
	out := Chain{Text("h1")}.Resolve(nil)
	assert.False(t, out.Matched)
	assert.Equal(t, domain.Unknown, out.Value)
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Denver, CO", NormalizeLocation("Location: Denver, CO, denver"))
	assert.Equal(t, "", NormalizeLocation("   "))
}

func TestExtractLabeledText(t *testing.T) {
	s := "Job type: Contract\nSalary: n/a"
	assert.Equal(t, "Contract", ExtractLabeledText(s, "job type:"))
	assert.Equal(t, "", ExtractLabeledText(s, "location:"))
}

func TestLabelMatchingKeepsOffsetsOnNonASCII(t *testing.T) {
	assert.Equal(t, "Denver, CO", ExtractLabeledText("İİİİ Location: Denver, CO", "location:"))
	assert.Equal(t, "Zürich", ExtractLabeledText("ÅSTRÖM AB · LOCATION: Zürich", "location:"))

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<ul><li>İİİİ Employment type: Contract</li></ul>`))
	require.NoError(t, err)
	out := Chain{Criteria("li", "employment type", ".missing")}.Resolve(gq)
	assert.True(t, out.Matched)
	assert.Equal(t, "Contract", out.Value)
}
