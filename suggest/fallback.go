package suggest

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/seo-optimizer/seoengine/analyzer"
)

const (
	maxTitleLength       = 60
	maxDescriptionLength = 155
	keywordSourceLength  = 500
	maxExtractedKeywords = 8
)

type keywordTier struct {
	pattern      string // %s is replaced with the topic
	searchVolume string
	difficulty   string
	relevance    float64
}

var keywordTiers = []keywordTier{
	{"%s", "10K-100K", "High", 10},
	{"best %s", "1K-10K", "Medium", 9},
	{"%s guide", "1K-10K", "Medium", 8},
	{"how to use %s", "1K-10K", "Low", 8},
	{"%s tutorial", "1K-10K", "Medium", 7},
	{"%s for beginners", "500-1K", "Low", 7},
	{"advanced %s techniques", "100-500", "Low", 6},
	{"%s vs alternatives", "500-1K", "Medium", 6},
	{"%s benefits", "500-1K", "Low", 5},
	{"%s examples", "500-1K", "Low", 5},
}

// FallbackKeywords returns the templated keyword list for topic. The result
// depends only on its arguments.
func FallbackKeywords(topic string, count int) []KeywordSuggestion {
	if count <= 0 || count > len(keywordTiers) {
		count = len(keywordTiers)
	}

	out := make([]KeywordSuggestion, 0, count)
	for _, tier := range keywordTiers[:count] {
		out = append(out, KeywordSuggestion{
			Keyword:      strings.Replace(tier.pattern, "%s", topic, 1),
			SearchVolume: tier.searchVolume,
			Difficulty:   tier.difficulty,
			Relevance:    tier.relevance,
		})
	}
	return out
}

// FallbackMetaTags derives meta tags from the post itself
func FallbackMetaTags(title, content string) MetaTagSuggestion {
	return MetaTagSuggestion{
		Title:       DefaultTitle(title),
		Description: DefaultDescription(content),
		Keywords:    ExtractKeywords(title, content),
	}
}

// DefaultTitle cuts titles longer than 60 characters to 57 plus an ellipsis
func DefaultTitle(title string) string {
	if utf8.RuneCountInString(title) > maxTitleLength {
		return truncateRunes(title, maxTitleLength-3) + "..."
	}
	return title
}

// DefaultDescription takes the first line of the tag-stripped content, cut
// to 155 characters with an ellipsis when longer.
func DefaultDescription(content string) string {
	first, _, _ := strings.Cut(analyzer.StripTags(content), "\n")
	if utf8.RuneCountInString(first) > maxDescriptionLength {
		return truncateRunes(first, maxDescriptionLength) + "..."
	}
	return first
}

var nonWordRe = regexp.MustCompile(`\W+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "with": true, "by": true, "a": true,
	"an": true, "is": true, "was": true, "be": true, "are": true,
}

// ExtractKeywords ranks the words of the title and the start of the content
// by frequency. Ties keep first-seen order.
func ExtractKeywords(title, content string) []string {
	text := title + " " + truncateRunes(content, keywordSourceLength)
	text = strings.ToLower(analyzer.StripTags(text))

	counts := make(map[string]int)
	var order []string
	for _, word := range nonWordRe.Split(text, -1) {
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxExtractedKeywords {
		order = order[:maxExtractedKeywords]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
