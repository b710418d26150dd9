package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobtrack/internal/domain"
)

// Rule pulls one candidate value out of a document. An empty result means
// the rule did not match.
type Rule struct {
	Name string
	Find func(doc *goquery.Document) string
}

// Outcome is the result of resolving one field.
type Outcome struct {
	Value   string
	Matched bool
	Rule    string // name of the rule that matched, empty on a miss
}

// Chain is an ordered list of rules for one field; the first rule that
// yields non-empty text wins.
type Chain []Rule

func (c Chain) Resolve(doc *goquery.Document) Outcome {
	if doc == nil {
		return Outcome{Value: domain.Unknown}
	}
	for _, r := range c {
		if v := r.try(doc); v != "" {
			return Outcome{Value: v, Matched: true, Rule: r.Name}
		}
	}
	return Outcome{Value: domain.Unknown}
}

// try runs the rule in isolation: a panicking rule counts as a miss.
func (r Rule) try(doc *goquery.Document) (v string) {
	if r.Find == nil {
		return ""
	}
	defer func() {
		if rec := recover(); rec != nil {
			v = ""
		}
	}()
	return CleanText(r.Find(doc))
}

// Text matches the text of the first element for sel.
func Text(sel string) Rule {
	return Rule{
		Name: fmt.Sprintf("text(%s)", sel),
		Find: func(doc *goquery.Document) string {
			return doc.Find(sel).First().Text()
		},
	}
}

// Attr matches an attribute of the first element for sel, e.g. meta content.
func Attr(sel, attr string) Rule {
	return Rule{
		Name: fmt.Sprintf("attr(%s@%s)", sel, attr),
		Find: func(doc *goquery.Document) string {
			v, _ := doc.Find(sel).First().Attr(attr)
			return v
		},
	}
}

// Criteria matches labelled list items such as
//
//	<li><h3>Employment type</h3><span class="value">Full-time</span></li>
//
// It returns valueSel's text inside the first item mentioning label, or the
// text after the label when valueSel is empty or missing.
func Criteria(itemSel, label, valueSel string) Rule {
	want := foldPattern(label)
	return Rule{
		Name: fmt.Sprintf("criteria(%s:%s)", itemSel, label),
		Find: func(doc *goquery.Document) string {
			var out string
			doc.Find(itemSel).EachWithBreak(func(_ int, item *goquery.Selection) bool {
				txt := CleanText(item.Text())
				loc := want.FindStringIndex(txt)
				if loc == nil {
					return true
				}
				if valueSel != "" {
					if v := CleanText(item.Find(valueSel).First().Text()); v != "" {
						out = v
						return false
					}
				}
				out = strings.TrimLeft(txt[loc[1]:], " :-")
				return out == ""
			})
			return out
		},
	}
}

// Labeled scans the text of sel for "Label: value" forms and returns the
// value up to the next line break or separator.
func Labeled(sel string, labels ...string) Rule {
	return Rule{
		Name: fmt.Sprintf("labeled(%s:%s)", sel, strings.Join(labels, "|")),
		Find: func(doc *goquery.Document) string {
			return ExtractLabeledText(doc.Find(sel).First().Text(), labels...)
		},
	}
}

// ExtractLabeledText returns the text following the first label found in s.
func ExtractLabeledText(s string, labels ...string) string {
	for _, lab := range labels {
		loc := foldPattern(lab).FindStringIndex(s)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(s[loc[1]:])

		for _, cut := range []string{"\n", "\r", " | ", " · "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}

		rest = CleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}

// foldPattern matches label case-insensitively; reported offsets index the
// searched text, not a lowered copy of it.
func foldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(label))
}
