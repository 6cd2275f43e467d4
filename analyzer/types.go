package analyzer

// Document is the blog-post projection the analyzer scores
type Document struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Content        string   `json:"content"`
	SEOTitle       string   `json:"seoTitle"`
	SEODescription string   `json:"seoDescription"`
	SEOKeywords    []string `json:"seoKeywords"`
}

// Result represents the complete SEO analysis of a document
type Result struct {
	Score           int                `json:"score"`
	Recommendations []string           `json:"recommendations"`
	KeywordDensity  map[string]float64 `json:"keywordDensity"`
	MetaTags        MetaTags           `json:"metaTags"`
	ContentAnalysis ContentAnalysis    `json:"contentAnalysis"`
	TechnicalSEO    TechnicalSEO       `json:"technicalSeo"`
}

type MetaTags struct {
	Title       TextDimension     `json:"title"`
	Description TextDimension     `json:"description"`
	Keywords    KeywordsDimension `json:"keywords"`
}

type ContentAnalysis struct {
	Headings         CountDimension `json:"headings"`
	Paragraphs       CountDimension `json:"paragraphs"`
	WordCount        CountDimension `json:"wordCount"`
	ReadabilityScore float64        `json:"readabilityScore"`
	Outline          HeadingOutline `json:"outline"`
}

type TechnicalSEO struct {
	SlugOptimization Dimension      `json:"slugOptimization"`
	ImageAlt         Dimension      `json:"imageAlt"`
	InternalLinks    CountDimension `json:"internalLinks"`
}

// Dimension is a score on the 0-10 scale with an optional recommendation.
type Dimension struct {
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation,omitempty"`
}

type TextDimension struct {
	Value          string  `json:"value"`
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation,omitempty"`
}

type KeywordsDimension struct {
	Value          []string `json:"value"`
	Score          float64  `json:"score"`
	Recommendation string   `json:"recommendation,omitempty"`
}

type CountDimension struct {
	Count          int     `json:"count"`
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// HeadingOutline is informational; it never contributes to a score.
type HeadingOutline struct {
	H1Count int      `json:"h1Count"`
	H2Count int      `json:"h2Count"`
	H3Count int      `json:"h3Count"`
	H1Text  []string `json:"h1Text"`
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Guidelines holds the thresholds every score is tuned against.
type Guidelines struct {
	MinWordCount           int   `json:"minWordCount"`
	IdealWordCount         int   `json:"idealWordCount"`
	MaxWordCount           int   `json:"maxWordCount"`
	MinHeadings            int   `json:"minHeadings"`
	IdealTitleLength       Range `json:"idealTitleLength"`
	IdealDescriptionLength Range `json:"idealDescriptionLength"`
	KeywordDensity         Range `json:"keywordDensity"`
}

// DefaultGuidelines are fixed for the life of the process.
var DefaultGuidelines = Guidelines{
	MinWordCount:           300,
	IdealWordCount:         1200,
	MaxWordCount:           2500,
	MinHeadings:            3,
	IdealTitleLength:       Range{Min: 50, Max: 60},
	IdealDescriptionLength: Range{Min: 140, Max: 160},
	KeywordDensity:         Range{Min: 0.5, Max: 2.5},
}
