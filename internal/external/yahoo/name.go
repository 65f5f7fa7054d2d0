package yahoo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errNoTitle = errors.New("no usable page title")

// titleCuts end the company name inside a quote page title, e.g.
// "トヨタ自動車(株)【7203】：株価・株式情報 - Yahoo!ファイナンス"
var titleCuts = []string{"【", "：", " - ", "|"}

// ResolveName scrapes the quote page title for a display name
func (c *Client) ResolveName(ctx context.Context, code string) (string, error) {
	body, err := c.httpClient.GetBody(ctx, c.endpoint(c.cfg.PageURL, code, nil))
	if err != nil {
		return "", fmt.Errorf("fetch quote page %s: %w", code, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse quote page %s: %w", code, err)
	}

	name := extractName(doc)
	if name == "" {
		return "", fmt.Errorf("%s: %w", code, errNoTitle)
	}

	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"name": name,
	}).Debug("Resolved name from quote page")

	return name, nil
}

func extractName(doc *goquery.Document) string {
	candidates := []string{doc.Find("title").First().Text()}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		candidates = append(candidates, og)
	}
	candidates = append(candidates, doc.Find("h1").First().Text())

	for _, raw := range candidates {
		if name := cleanTitle(raw); name != "" {
			return name
		}
	}
	return ""
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, cut := range titleCuts {
		if i := strings.Index(title, cut); i >= 0 {
			title = title[:i]
		}
	}
	title = strings.TrimSpace(title)

	// an error page titled only with the site name is not a company name
	if title == "" || strings.Contains(title, "Yahoo") {
		return ""
	}
	return title
}
