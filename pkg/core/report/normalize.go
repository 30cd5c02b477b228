package report

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markupTag matches the rich-text elements the LIS editor emits. Prose such
// as "glucose<normal" or "A & B" does not match and is left verbatim.
var markupTag = regexp.MustCompile(`(?i)<\s*/?\s*(br|p|div|li|ul|ol|span|b|i|u|strong|em|font|table|tr|td)\b[^<>]*>`)

// Normalize cleans free-text fields in place and returns r.
//
// The LIS sometimes stores clinical notes and comments as rich text. Fields
// holding known HTML elements are flattened to plain text with line breaks
// kept; any other text is only trimmed. Measured values and ranges are only
// trimmed.
func Normalize(r *Report) *Report {
	if r == nil {
		return nil
	}
	r.LabID = strings.TrimSpace(r.LabID)
	r.ClinicalInfo = htmlToText(r.ClinicalInfo)
	r.Comment = htmlToText(r.Comment)

	for i := range r.TestReqest {
		t := &r.TestReqest[i]
		for j := range t.Testparameters {
			p := &t.Testparameters[j]
			p.Value = strings.TrimSpace(p.Value)
			p.NormalRange = strings.TrimSpace(p.NormalRange)
			p.HistoryValue = strings.TrimSpace(p.HistoryValue)
			if p.ParameterComment != nil {
				c := htmlToText(*p.ParameterComment)
				p.ParameterComment = &c
			}
		}
	}
	return r
}

func htmlToText(s string) string {
	if !markupTag.MatchString(s) {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
