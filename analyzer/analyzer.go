package analyzer

// Analyzer scores documents against a fixed set of guidelines. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	guidelines Guidelines
}

// New creates an Analyzer using DefaultGuidelines
func New() *Analyzer {
	return &Analyzer{guidelines: DefaultGuidelines}
}

// Guidelines returns the thresholds this analyzer scores against
func (a *Analyzer) Guidelines() Guidelines {
	return a.guidelines
}

// Analyze performs a complete SEO analysis of the given document
func (a *Analyzer) Analyze(doc Document) *Result {
	g := a.guidelines

	wordCount := CountWords(doc.Content)
	headings := CountHeadings(doc.Content)
	paragraphs := CountParagraphs(doc.Content)
	readability := Readability(doc.Content)
	density := KeywordDensity(doc.Content, doc.SEOKeywords)

	title := g.TitleScore(doc.SEOTitle)
	description := g.DescriptionScore(doc.SEODescription)
	keywords := KeywordsScore(doc.SEOKeywords)

	slug := SlugScore(doc.Slug)
	imageAlt := ImageAltScore(doc.Content)
	links := InternalLinksScore(doc.Content)

	recommendations := g.recommendations(recommendationInput{
		title:         title,
		description:   description,
		keywords:      keywords,
		wordCount:     wordCount,
		headings:      headings,
		density:       density,
		internalLinks: links.Count,
		readability:   readability,
	})

	score := OverallScore(SubScores{
		Title:       title.Score,
		Description: description.Score,
		Keywords:    keywords.Score,
		Content:     g.ContentScore(wordCount, headings, paragraphs, readability),
		Technical:   TechnicalScore(slug.Score, imageAlt.Score, links.Score),
	})

	return &Result{
		Score:           score,
		Recommendations: recommendations,
		KeywordDensity:  density,
		MetaTags: MetaTags{
			Title:       title,
			Description: description,
			Keywords:    keywords,
		},
		ContentAnalysis: ContentAnalysis{
			Headings: CountDimension{
				Count:          headings,
				Score:          g.HeadingsScore(headings),
				Recommendation: g.headingsAdvice(headings),
			},
			Paragraphs: CountDimension{
				Count:          paragraphs,
				Score:          ParagraphsScore(paragraphs, wordCount),
				Recommendation: paragraphsAdvice(paragraphs),
			},
			WordCount: CountDimension{
				Count:          wordCount,
				Score:          g.WordCountScore(wordCount),
				Recommendation: g.wordCountAdvice(wordCount),
			},
			ReadabilityScore: readability,
			Outline:          Outline(doc.Content),
		},
		TechnicalSEO: TechnicalSEO{
			SlugOptimization: slug,
			ImageAlt:         imageAlt,
			InternalLinks:    links,
		},
	}
}
