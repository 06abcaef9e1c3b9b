// Package fetch loads static pages into in-memory documents, for reports
// on pages that need no browser.
package fetch

import (
	"context"
	"strings"

	"github.com/jakopako/pinpoint/internal/dom/htmldoc"
)

// A Fetcher returns the html of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Load fetches url and parses it. The document reports url as its URL.
func Load(ctx context.Context, f Fetcher, url string, opts ...htmldoc.Option) (*htmldoc.Document, error) {
	res, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return htmldoc.Parse(strings.NewReader(res), append([]htmldoc.Option{htmldoc.WithURL(url)}, opts...)...)
}
