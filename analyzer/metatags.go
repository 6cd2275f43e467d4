package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	leadingUpperRe   = regexp.MustCompile(`^[A-Z]`)
	completeSentence = regexp.MustCompile(`^[A-Z].*[.!?]$`)
)

// TitleScore starts at 10 and subtracts length and capitalisation penalties.
func (g Guidelines) TitleScore(title string) TextDimension {
	length := utf8.RuneCountInString(title)
	min, max := g.IdealTitleLength.Min, g.IdealTitleLength.Max

	score := 10.0
	var notes []string

	if float64(length) < min {
		score -= 3
		notes = append(notes, fmt.Sprintf("Title is too short (%d chars). Aim for %s-%s characters.", length, num(min), num(max)))
	} else if float64(length) > max {
		score -= 2
		notes = append(notes, fmt.Sprintf("Title is too long (%d chars). Aim for %s-%s characters.", length, num(min), num(max)))
	}

	if !leadingUpperRe.MatchString(title) {
		score -= 1
		notes = append(notes, "Capitalize the first letter of your title.")
	}

	return TextDimension{Value: title, Score: score, Recommendation: strings.Join(notes, " ")}
}

// DescriptionScore penalises length outside the ideal range and text that
// is not a single capitalised sentence.
func (g Guidelines) DescriptionScore(description string) TextDimension {
	length := utf8.RuneCountInString(description)
	min, max := g.IdealDescriptionLength.Min, g.IdealDescriptionLength.Max

	score := 10.0
	var notes []string

	if float64(length) < min {
		score -= 3
		notes = append(notes, fmt.Sprintf("Description is too short (%d chars). Aim for %s-%s characters.", length, num(min), num(max)))
	} else if float64(length) > max {
		score -= 2
		notes = append(notes, fmt.Sprintf("Description is too long (%d chars). Aim for %s-%s characters.", length, num(min), num(max)))
	}

	if !completeSentence.MatchString(description) {
		score -= 1
		notes = append(notes, "Format your description as a complete sentence.")
	}

	return TextDimension{Value: description, Score: score, Recommendation: strings.Join(notes, " ")}
}

// KeywordsScore rewards 3-10 keywords with at least one multi-word phrase.
func KeywordsScore(keywords []string) KeywordsDimension {
	score := 10.0
	var notes []string

	switch {
	case len(keywords) == 0:
		score = 0
		notes = append(notes, "No keywords defined. Add relevant keywords for better SEO.")
	case len(keywords) < 3:
		score -= 3
		notes = append(notes, fmt.Sprintf("Only %d keywords defined. Add more relevant keywords (aim for 5-8).", len(keywords)))
	case len(keywords) > 10:
		score -= 2
		notes = append(notes, fmt.Sprintf("Too many keywords (%d). Focus on 5-8 most relevant ones.", len(keywords)))
	}

	singleWord := 0
	for _, k := range keywords {
		if !strings.Contains(k, " ") {
			singleWord++
		}
	}
	if singleWord == len(keywords) && len(keywords) > 2 {
		score -= 2
		notes = append(notes, "Include some long-tail keywords (phrases) for better targeting.")
	}

	value := keywords
	if value == nil {
		value = []string{}
	}
	return KeywordsDimension{Value: value, Score: score, Recommendation: strings.Join(notes, " ")}
}

// num formats a float the shortest way, so 50 prints as "50" and 0.5 as "0.5".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
