package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContent are elements whose contents are never text a reader would see.
const nonContent = "script, style, noscript, template"

// HTMLText strips script and style blocks and all remaining tags, then collapses whitespace.
func HTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(nonContent).Remove()

	// Block boundaries would otherwise glue adjacent words together ("AboutServices").
	doc.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, td, th, section, article, header, footer, nav").
		Each(func(_ int, s *goquery.Selection) {
			s.AppendHtml(" ")
		})

	return CollapseWhitespace(doc.Text()), nil
}
