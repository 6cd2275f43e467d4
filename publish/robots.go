package publish

import (
	"fmt"
	"strings"

	"github.com/osteele/liquid"
)

const robotsSource = `User-agent: *
Allow: /
Sitemap: {{ base_url }}/sitemap.xml

# Disallow admin and private areas
Disallow: /admin/
Disallow: /api/
Disallow: /private/
Disallow: /account/

# Allow search crawlers to access key content
Allow: /blog/
Allow: /features/
Allow: /pricing/
`

var robotsTemplate *liquid.Template

func init() {
	tpl, err := liquid.NewEngine().ParseString(robotsSource)
	if err != nil {
		panic(fmt.Sprintf("publish: invalid robots template: %v", err))
	}
	robotsTemplate = tpl
}

// RobotsTxt renders the robots.txt served at the site root
func RobotsTxt(baseURL string) (string, error) {
	out, err := robotsTemplate.RenderString(map[string]interface{}{
		"base_url": strings.TrimRight(baseURL, "/"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render robots.txt: %w", err)
	}
	return out, nil
}
