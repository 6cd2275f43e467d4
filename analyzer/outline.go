package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Outline parses the content as an HTML fragment and reports its top-level
// heading structure. Markdown headings are not visible here.
func Outline(content string) HeadingOutline {
	outline := HeadingOutline{H1Text: []string{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return outline
	}

	outline.H1Count = doc.Find("h1").Length()
	outline.H2Count = doc.Find("h2").Length()
	outline.H3Count = doc.Find("h3").Length()

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		outline.H1Text = append(outline.H1Text, strings.TrimSpace(s.Text()))
	})

	return outline
}
