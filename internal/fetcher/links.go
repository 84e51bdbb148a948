package fetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/revenue-tracker/pkg/utils"
)

// genericLinkHints are tried after the source's own article-link hint.
var genericLinkHints = []string{
	"article a",
	".article-link",
	".post-title a",
	"h2 a",
	"h3 a",
	".headline a",
}

// DiscoverLinks scans a listing page for article links using hints in order.
// Results are canonical, absolute, free of denylisted listings and assets,
// and unique; order follows first discovery.
func DiscoverLinks(pageURL *url.URL, body []byte, hints []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", pageURL, err)
	}

	self, _ := utils.CanonicalURL(pageURL.String())
	seen := make(map[string]bool)
	var links []string

	for _, hint := range hints {
		if strings.TrimSpace(hint) == "" {
			continue
		}
		doc.Find(hint).Each(func(_ int, s *goquery.Selection) {
			href, ok := hrefOf(s)
			if !ok {
				return
			}
			link, err := utils.ResolveCanonical(pageURL, href)
			if err != nil || link == self || seen[link] || !utils.IsArticleURL(link) {
				return
			}
			seen[link] = true
			links = append(links, link)
		})
	}
	return links, nil
}

// hrefOf returns the link target of an anchor, or of the first anchor inside
// a container element.
func hrefOf(s *goquery.Selection) (string, bool) {
	if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return href, true
	}
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return href, true
}

func linkHints(sourceHint string) []string {
	return append([]string{sourceHint}, genericLinkHints...)
}
