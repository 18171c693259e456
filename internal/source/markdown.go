package source

import (
	"net/url"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// ExtractMarkdownLinks returns the destination of every inline link,
// reference link and autolink in the document.
func ExtractMarkdownLinks(data []byte, base *url.URL) ([]string, error) {
	// parsers keep state; one per document
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse(data, p)

	var links []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			if resolved, ok := resolveLink(string(link.Destination), base); ok {
				links = append(links, resolved)
			}
		}
		return ast.GoToNext
	})
	return links, nil
}
