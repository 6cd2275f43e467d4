package analyzer

import (
	"fmt"
	"math"
)

// Component weights of the overall score.
const (
	titleWeight       = 0.15
	descriptionWeight = 0.15
	keywordsWeight    = 0.10
	contentWeight     = 0.40
	technicalWeight   = 0.20
)

// Minimum meta-tag score that keeps a recommendation out of the list.
const recommendationThreshold = 7

// WordCountScore ramps up to 7 at the minimum, peaks at 10 on the ideal
// count and decays to at most 2 points below 7 past the maximum.
func (g Guidelines) WordCountScore(wordCount int) float64 {
	wc := float64(wordCount)
	min := float64(g.MinWordCount)
	max := float64(g.MaxWordCount)
	ideal := float64(g.IdealWordCount)

	switch {
	case wc < min:
		return ratio(wc, min) * 7
	case wc > max:
		return 7 - math.Min(2, ratio(wc-max, max)*3)
	default:
		distance := ratio(math.Abs(wc-ideal), max-min)
		return 10 - distance*3
	}
}

// HeadingsScore gives up to 7 below the minimum and one extra point per
// heading above it, capped at 10.
func (g Guidelines) HeadingsScore(headings int) float64 {
	min := float64(g.MinHeadings)
	h := float64(headings)
	if h < min {
		return ratio(h, min) * 7
	}
	return math.Min(10, 7+(h-min))
}

// ParagraphsScore judges paragraph count and average paragraph length.
func ParagraphsScore(paragraphs, wordCount int) float64 {
	den := paragraphs
	if den == 0 {
		den = 1
	}
	avgWords := float64(wordCount) / float64(den)

	switch {
	case paragraphs < 3:
		return 5
	case avgWords > 150:
		return 6
	case avgWords < 30:
		return 7
	default:
		return 10
	}
}

// ContentScore is the weighted content sub-score clamped to 0-10.
func (g Guidelines) ContentScore(wordCount, headings, paragraphs int, readability float64) float64 {
	score := g.WordCountScore(wordCount)*0.3 +
		g.HeadingsScore(headings)*0.3 +
		ParagraphsScore(paragraphs, wordCount)*0.2 +
		readability*0.2
	return math.Min(10, math.Max(0, score))
}

// TechnicalScore averages the three technical dimensions.
func TechnicalScore(slug, imageAlt, internalLinks float64) float64 {
	return (slug + imageAlt + internalLinks) / 3
}

// SubScores are the 0-10 inputs of the overall score.
type SubScores struct {
	Title       float64
	Description float64
	Keywords    float64
	Content     float64
	Technical   float64
}

// OverallScore maps the weighted sub-scores onto an integer 0-100.
func OverallScore(s SubScores) int {
	weighted := s.Title*titleWeight +
		s.Description*descriptionWeight +
		s.Keywords*keywordsWeight +
		s.Content*contentWeight +
		s.Technical*technicalWeight
	return int(math.Round(weighted * 10))
}

// recommendationInput carries what the recommendation rules look at.
type recommendationInput struct {
	title         TextDimension
	description   TextDimension
	keywords      KeywordsDimension
	wordCount     int
	headings      int
	density       map[string]float64
	internalLinks int
	readability   float64
}

// recommendations evaluates each rule in a fixed order; nothing is deduplicated.
func (g Guidelines) recommendations(in recommendationInput) []string {
	recs := []string{}

	if in.title.Score < recommendationThreshold && in.title.Recommendation != "" {
		recs = append(recs, in.title.Recommendation)
	}
	if in.description.Score < recommendationThreshold && in.description.Recommendation != "" {
		recs = append(recs, in.description.Recommendation)
	}
	if in.keywords.Score < recommendationThreshold && in.keywords.Recommendation != "" {
		recs = append(recs, in.keywords.Recommendation)
	}

	if msg := g.wordCountAdvice(in.wordCount); msg != "" {
		recs = append(recs, msg)
	}
	if msg := g.headingsAdvice(in.headings); msg != "" {
		recs = append(recs, msg)
	}

	seen := make(map[string]bool, len(in.keywords.Value))
	for _, keyword := range in.keywords.Value {
		if seen[keyword] {
			continue
		}
		seen[keyword] = true

		density, ok := in.density[keyword]
		if !ok {
			continue
		}
		if density > g.KeywordDensity.Max {
			recs = append(recs, fmt.Sprintf("Keyword \"%s\" appears too frequently (%s%%). Reduce usage to avoid keyword stuffing.", keyword, num(density)))
		} else if density < g.KeywordDensity.Min {
			recs = append(recs, fmt.Sprintf("Increase usage of keyword \"%s\" from %s%% to at least %s%%.", keyword, num(density), num(g.KeywordDensity.Min)))
		}
	}

	if in.internalLinks < 2 {
		recs = append(recs, "Add more internal links to related content to improve SEO and user experience.")
	}

	switch {
	case in.readability < 4:
		recs = append(recs, "Content readability is low. Use shorter sentences and simpler words to improve readability.")
	case in.readability < 6:
		recs = append(recs, "Consider improving content readability by using simpler language and shorter paragraphs.")
	}

	return recs
}

func (g Guidelines) wordCountAdvice(wordCount int) string {
	if wordCount < g.MinWordCount {
		return fmt.Sprintf("Increase your content length to at least %d words for better SEO.", g.MinWordCount)
	}
	if wordCount > g.MaxWordCount {
		return fmt.Sprintf("Consider breaking this content into multiple posts as it exceeds %d words.", g.MaxWordCount)
	}
	return ""
}

func (g Guidelines) headingsAdvice(headings int) string {
	if headings < g.MinHeadings {
		return fmt.Sprintf("Add more headings to structure your content. Aim for at least %d.", g.MinHeadings)
	}
	return ""
}

func paragraphsAdvice(paragraphs int) string {
	if paragraphs < 5 {
		return "Consider breaking your content into more paragraphs for better readability."
	}
	return ""
}
