package analyzer

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	latinLetterRe   = regexp.MustCompile(`[a-zA-Z]`)
	vowelGroupRe    = regexp.MustCompile(`[aeiouy]+`)
)

// Flesch reading-ease constants.
const (
	fleschBase            = 206.835
	fleschSentenceWeight  = 1.015
	fleschSyllablesWeight = 84.6
)

// Readability approximates Flesch reading ease and maps it onto 0-10.
// It returns 0 when there are no sentences or no words.
func Readability(content string) float64 {
	clean := StripTags(content)

	sentences := 0
	for _, s := range sentenceSplitRe.Split(clean, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	var words []string
	for _, w := range strings.Fields(clean) {
		if latinLetterRe.MatchString(w) {
			words = append(words, w)
		}
	}

	if sentences == 0 || len(words) == 0 {
		return 0
	}

	avgSentenceLength := float64(len(words)) / float64(sentences)

	syllables := 0
	for _, w := range words {
		syllables += EstimateSyllables(w)
	}
	avgSyllablesPerWord := float64(syllables) / float64(len(words))

	raw := fleschBase - fleschSentenceWeight*avgSentenceLength - fleschSyllablesWeight*avgSyllablesPerWord
	return math.Min(10, math.Max(0, raw/10))
}

// EstimateSyllables counts vowel groups after dropping a silent trailing e.
// Every word has at least one syllable.
func EstimateSyllables(word string) int {
	word = strings.ToLower(word)
	if utf8.RuneCountInString(word) > 2 && strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") {
		word = word[:len(word)-1]
	}

	groups := len(vowelGroupRe.FindAllStringIndex(word, -1))
	if groups == 0 {
		return 1
	}
	return groups
}
