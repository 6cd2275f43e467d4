package analyzer

import (
	"math"
	"regexp"
	"strings"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	headingRe   = regexp.MustCompile(`(?m)<h[1-6][^>]*>.*?</h[1-6]>|^#{1,6}\s+.+$`)
	paragraphRe = regexp.MustCompile(`(?m)<p[^>]*>.*?</p>|^[^#<>\n].+$`)
)

// StripTags removes anything that looks like a markup tag.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// CountWords counts whitespace-separated tokens. Punctuation is not normalised.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountHeadings counts HTML heading elements and markdown ATX headings.
// Mixed documents are counted under both syntaxes without deduplication.
func CountHeadings(content string) int {
	return len(headingRe.FindAllStringIndex(content, -1))
}

// CountParagraphs counts <p> elements plus plain lines that do not start
// with '#', '<' or '>'.
func CountParagraphs(content string) int {
	return len(paragraphRe.FindAllStringIndex(content, -1))
}

// KeywordDensity returns, per keyword, the percentage of words that are
// whole-word case-insensitive matches, rounded to two decimals. The map is
// empty when the content has no words.
func KeywordDensity(content string, keywords []string) map[string]float64 {
	result := make(map[string]float64)

	clean := strings.ToLower(StripTags(content))
	total := CountWords(clean)
	if total == 0 {
		return result
	}

	for _, keyword := range keywords {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `\b`)
		if err != nil {
			result[keyword] = 0
			continue
		}
		matches := len(re.FindAllStringIndex(clean, -1))
		result[keyword] = round2(float64(matches) / float64(total) * 100)
	}

	return result
}

// round2 rounds v*100 half away from zero. The product is itself rounded,
// so 2.675 (stored just below the half) becomes 267.5 and yields 2.68, while
// 1.005 stays below the half and yields 1.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ratio guards the denominator and returns 0 when it is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
