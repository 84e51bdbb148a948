// Package readability implements the rich content-extraction capability
// with go-readability.
package readability

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/user/revenue-tracker/internal/repository"
)

// Extractor runs Mozilla's Readability algorithm over fetched markup.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractArticle(ctx context.Context, pageURL string, html []byte) (*repository.RichContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, repository.ErrEmptyContent
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("readability: %w", repository.ErrEmptyContent)
	}
	return &repository.RichContent{Title: strings.TrimSpace(article.Title), Text: text}, nil
}
