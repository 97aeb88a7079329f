package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/samvad-hq/annif-client/pkg/corpus"
)

// Resolved is a corpus entry with its text in hand.
type Resolved struct {
	Entry corpus.Entry
	Title string
	Text  string
}

// PageFetcher retrieves a web page's text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// TextResolver turns corpus entries into submit-ready text.
type TextResolver struct {
	pages PageFetcher
}

// NewTextResolver builds a resolver; pages may be nil when the corpus has no url entries.
func NewTextResolver(pages PageFetcher) *TextResolver {
	return &TextResolver{pages: pages}
}

// Resolve loads the entry's text from its source.
func (r *TextResolver) Resolve(ctx context.Context, e corpus.Entry) (Resolved, error) {
	out := Resolved{Entry: e, Title: e.Title}

	switch e.Source() {
	case corpus.SourceInline:
		text, err := annif.InlineText(e.Text).Resolve()
		if err != nil {
			return Resolved{}, err
		}
		out.Text = text
	case corpus.SourceFile:
		f, err := os.Open(e.File)
		if err != nil {
			return Resolved{}, fmt.Errorf("open document file: %w", err)
		}
		defer f.Close()
		text, err := annif.StreamText(f).Resolve()
		if err != nil {
			return Resolved{}, err
		}
		out.Text = text
	case corpus.SourceURL:
		if r.pages == nil {
			return Resolved{}, fmt.Errorf("no page fetcher configured for %s", e.URL)
		}
		page, err := r.pages.Fetch(ctx, e.URL)
		if err != nil {
			return Resolved{}, fmt.Errorf("fetch %s: %w", e.URL, err)
		}
		out.Text = page.Text()
		if out.Title == "" {
			out.Title = page.Title
		}
	default:
		return Resolved{}, fmt.Errorf("document %q has no text source", e.ID)
	}

	if out.Text == "" {
		return Resolved{}, fmt.Errorf("document %q resolved to empty text", e.ID)
	}
	return out, nil
}
