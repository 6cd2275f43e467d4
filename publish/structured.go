package publish

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/seo-optimizer/seoengine/store"
)

// BlogPosting is the schema.org JSON-LD description of a post
type BlogPosting struct {
	Context          string       `json:"@context"`
	Type             string       `json:"@type"`
	MainEntityOfPage typedID      `json:"mainEntityOfPage"`
	Headline         string       `json:"headline"`
	Description      string       `json:"description"`
	Image            []string     `json:"image"`
	Author           typedName    `json:"author"`
	Publisher        organization `json:"publisher"`
	DatePublished    string       `json:"datePublished"`
	DateModified     string       `json:"dateModified"`
	Keywords         string       `json:"keywords"`
}

type typedID struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

type typedName struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type organization struct {
	Type string    `json:"@type"`
	Name string    `json:"name"`
	Logo imageLink `json:"logo"`
}

type imageLink struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

// StructuredData describes post as a BlogPosting. authorName overrides the
// post's own author when set; now stands in for a missing publish date.
func StructuredData(post *store.BlogPost, authorName, siteName, baseURL string, now time.Time) BlogPosting {
	base := strings.TrimRight(baseURL, "/")

	published := now
	if post.PublishedAt != nil {
		published = *post.PublishedAt
	}
	modified := published
	if !post.UpdatedAt.IsZero() {
		modified = post.UpdatedAt
	}

	if authorName == "" {
		authorName = post.AuthorName
	}

	images := []string{}
	if post.FeaturedImage != "" {
		images = append(images, post.FeaturedImage)
	}

	return BlogPosting{
		Context:          "https://schema.org",
		Type:             "BlogPosting",
		MainEntityOfPage: typedID{Type: "WebPage", ID: PostURL(base, post.Slug)},
		Headline:         post.Title,
		Description:      post.Summary,
		Image:            images,
		Author:           typedName{Type: "Person", Name: authorName},
		Publisher: organization{
			Type: "Organization",
			Name: siteName,
			Logo: imageLink{Type: "ImageObject", URL: base + "/logo.png"},
		},
		DatePublished: published.UTC().Format(time.RFC3339),
		DateModified:  modified.UTC().Format(time.RFC3339),
		Keywords:      strings.Join(post.SEOKeywords, ", "),
	}
}

// JSON renders the document indented by two spaces
func (b BlogPosting) JSON() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}
