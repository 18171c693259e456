package source

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractHTMLLinks returns the href of every anchor in document order,
// resolved against the document's <base> element and then base. Links
// that stay relative or only point at a fragment are dropped.
func ExtractHTMLLinks(data []byte, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &SourceError{Message: err.Error(), Cause: ErrCauseParseFailure}
	}

	resolveBase := base
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if parsed, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if resolveBase != nil {
				parsed = resolveBase.ResolveReference(parsed)
			}
			if parsed.IsAbs() {
				resolveBase = parsed
			}
		}
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := resolveLink(href, resolveBase); ok {
			links = append(links, link)
		}
	})
	return links, nil
}

func resolveLink(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !parsed.IsAbs() {
		if base == nil {
			return "", false
		}
		parsed = base.ResolveReference(parsed)
	}
	return parsed.String(), true
}
