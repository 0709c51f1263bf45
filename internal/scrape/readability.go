package scrape

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/go-shiori/go-readability"
)

// ReadabilityStrategy uses the selector heuristics for links, dates and
// authors, and extracts the article body with readability rendered as
// markdown. It falls back to paragraph extraction when readability finds
// nothing.
type ReadabilityStrategy struct {
	SelectorStrategy
	markdown *converter.Converter
}

// NewReadabilityStrategy builds a ReadabilityStrategy with a markdown converter.
func NewReadabilityStrategy() *ReadabilityStrategy {
	return &ReadabilityStrategy{
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// ExtractText returns the readability article body as markdown.
func (r *ReadabilityStrategy) ExtractText(page Page) (string, error) {
	if strings.TrimSpace(page.HTML) == "" {
		return "", nil
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(page.HTML), page.URL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return r.SelectorStrategy.ExtractText(page)
	}

	domain := ""
	if page.URL != nil {
		domain = page.URL.Scheme + "://" + page.URL.Host
	}
	text, err := r.markdown.ConvertString(article.Content, converter.WithDomain(domain))
	if err != nil {
		return "", fmt.Errorf("convert article to markdown: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return r.SelectorStrategy.ExtractText(page)
	}
	return text, nil
}
