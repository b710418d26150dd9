package mailbox

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

var (
	reJobID = regexp.MustCompile(`/jobs/view/(?:[^/?#]*-)?(\d+)`)
	reURL   = regexp.MustCompile(`https?://[^\s<>"']+`)
)

const maxPartBytes = 6 << 20

// JobLinks returns the canonical job posting URLs found in a raw RFC822
// message, in first-seen order.
func JobLinks(raw []byte) ([]string, error) {
	plain, html, err := textParts(raw)
	if err != nil {
		return nil, err
	}

	var out []string
	seen := map[string]bool{}
	add := func(href string) {
		if u := CanonicalJobURL(href); u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}

	if html != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err == nil {
			doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				add(href)
			})
		}
	}
	for _, u := range reURL.FindAllString(plain, -1) {
		add(strings.TrimRight(u, ".,);:]\"'"))
	}
	return out, nil
}

// CanonicalJobURL unwraps redirect links and reduces a LinkedIn job link to
// https://www.linkedin.com/jobs/view/<id>/. Other links return "".
func CanonicalJobURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	// wrapper with url= param
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			u = uu
		}
	}
	// google redirect /url?q=
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				u = uu
			}
		}
	}

	if !strings.Contains(strings.ToLower(u.Host), "linkedin.com") {
		return ""
	}
	m := reJobID.FindStringSubmatch(u.Path)
	if len(m) != 2 {
		return ""
	}
	return "https://www.linkedin.com/jobs/view/" + m[1] + "/"
}

// textParts returns the largest text/plain and text/html parts of a message.
func textParts(raw []byte) (plain, html string, err error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", "", errors.Wrap(err, "parse message")
	}
	if mr == nil {
		return "", "", errors.New("parse message: no reader")
	}
	defer mr.Close()

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return plain, html, errors.Wrap(err, "read part")
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, _ := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))

		switch {
		case strings.HasPrefix(ct, "text/html"):
			if len(b) > len(html) {
				html = string(b)
			}
		case strings.HasPrefix(ct, "text/plain"), ct == "":
			if len(b) > len(plain) {
				plain = string(b)
			}
		}
	}
	return plain, html, nil
}
