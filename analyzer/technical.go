package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxSlugLength = 75

var (
	slugRe   = regexp.MustCompile(`^[a-z0-9-]+$`)
	imgRe    = regexp.MustCompile(`<img[^>]+>`)
	imgAltRe = regexp.MustCompile(`<img[^>]+alt=["'][^"']*["'][^>]*>`)
	anchorRe = regexp.MustCompile(`<a[^>]+href=["'][^"']*["'][^>]*>.*?</a>`)
)

// SlugScore checks length, allowed characters and doubled hyphens.
func SlugScore(slug string) Dimension {
	score := 10.0
	var notes []string

	if utf8.RuneCountInString(slug) > maxSlugLength {
		score -= 2
		notes = append(notes, fmt.Sprintf("URL slug is too long. Keep it under %d characters.", maxSlugLength))
	}

	if !slugRe.MatchString(slug) {
		score -= 3
		notes = append(notes, "URL slug contains invalid characters. Use only lowercase letters, numbers, and hyphens.")
	}

	if strings.Contains(slug, "--") {
		score -= 1
		notes = append(notes, "Avoid consecutive hyphens in the URL slug.")
	}

	return Dimension{Score: score, Recommendation: strings.Join(notes, " ")}
}

// ImageAltScore scales the share of <img> tags carrying an alt attribute
// onto 0-10. Content without images is fully compliant.
func ImageAltScore(content string) Dimension {
	images := len(imgRe.FindAllStringIndex(content, -1))
	if images == 0 {
		return Dimension{Score: 10}
	}

	withAlt := len(imgAltRe.FindAllStringIndex(content, -1))
	score := math.Round(ratio(float64(withAlt), float64(images)) * 10)

	d := Dimension{Score: score}
	if score < 10 {
		d.Recommendation = fmt.Sprintf("%d image(s) missing alt text. Add descriptive alt attributes to all images.", images-withAlt)
	}
	return d
}

// InternalLinksScore counts anchors with an href. Hosts are not inspected,
// so external links count too.
func InternalLinksScore(content string) CountDimension {
	count := len(anchorRe.FindAllStringIndex(content, -1))

	switch count {
	case 0:
		return CountDimension{
			Count:          0,
			Score:          5,
			Recommendation: "No internal links found. Add links to related content for better SEO.",
		}
	case 1:
		return CountDimension{
			Count:          1,
			Score:          7,
			Recommendation: "Only one internal link found. Consider adding more links to related content.",
		}
	}
	return CountDimension{Count: count, Score: 10}
}
