package suggest

import (
	"fmt"

	"github.com/osteele/liquid"
)

const keywordPromptSource = `Generate {{ count }} SEO keyword suggestions for a blog about "{{ topic }}". ` +
	`Include long-tail keywords. Format each as a JSON object with properties: keyword, ` +
	`searchVolume (string like "1K-10K"), difficulty (string like "Easy", "Medium", "Hard"), ` +
	`and relevance (number 1-10).`

const metaPromptSource = `Based on the following blog title and content, generate optimized SEO meta tags:

Title: {{ title }}

{{ excerpt }}... (content truncated for brevity)

Generate these as a JSON object with:
1. title: An SEO-optimized title (50-60 characters)
2. description: An engaging meta description (140-160 characters)
3. keywords: An array of 5-8 relevant keywords/phrases

Format as valid JSON only.`

// promptExcerptLength is how much of the content the meta prompt carries
const promptExcerptLength = 1000

var (
	keywordPrompt *liquid.Template
	metaPrompt    *liquid.Template
)

func init() {
	engine := liquid.NewEngine()
	keywordPrompt = mustParse(engine, keywordPromptSource)
	metaPrompt = mustParse(engine, metaPromptSource)
}

func mustParse(engine *liquid.Engine, source string) *liquid.Template {
	tpl, err := engine.ParseString(source)
	if err != nil {
		panic(fmt.Sprintf("suggest: invalid prompt template: %v", err))
	}
	return tpl
}

func renderKeywordPrompt(topic string, count int) (string, error) {
	out, err := keywordPrompt.RenderString(map[string]interface{}{
		"topic": topic,
		"count": count,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func renderMetaPrompt(title, content string) (string, error) {
	out, err := metaPrompt.RenderString(map[string]interface{}{
		"title":   title,
		"excerpt": truncateRunes(content, promptExcerptLength),
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
