// Package publish renders the crawler-facing documents of the blog:
// sitemap.xml, robots.txt and JSON-LD structured data.
package publish

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/seo-optimizer/seoengine/store"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

const lastModLayout = "2006-01-02"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap lists the home page, the blog index, the important pages and every
// post, each tier with its own priority. now supplies lastmod for posts that
// carry no dates.
func Sitemap(baseURL string, importantPages []string, posts []*store.BlogPost, now time.Time) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")

	set := urlSet{Xmlns: sitemapNamespace}
	set.URLs = append(set.URLs,
		sitemapURL{Loc: base, ChangeFreq: "daily", Priority: "1.0"},
		sitemapURL{Loc: base + "/blog", ChangeFreq: "daily", Priority: "0.9"},
	)
	for _, page := range importantPages {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + page, ChangeFreq: "weekly", Priority: "0.8"})
	}
	for _, post := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        PostURL(base, post.Slug),
			LastMod:    lastModified(post, now).UTC().Format(lastModLayout),
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// PostURL is the public address of a post
func PostURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/blog/" + slug
}

func lastModified(post *store.BlogPost, now time.Time) time.Time {
	switch {
	case !post.UpdatedAt.IsZero():
		return post.UpdatedAt
	case post.PublishedAt != nil:
		return *post.PublishedAt
	default:
		return now
	}
}
