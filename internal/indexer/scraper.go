package indexer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/annif-client/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	scraperUserAgent = "annif-indexer (+https://github.com/samvad-hq/annif-client)"
)

// Page is the text extracted from a fetched web page.
type Page struct {
	Title       string
	Description string
	Body        string
}

// Text joins the page parts into the text submitted for indexing.
func (p Page) Text() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Title, p.Description, p.Body} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Scraper fetches web pages and extracts their readable text. Consecutive
// fetches are spaced at least delay apart.
type Scraper struct {
	client httpclient.Client
	delay  time.Duration

	mu        sync.Mutex
	lastFetch time.Time
}

// NewScraper constructs a scraper with the provided HTTP client (or a default one).
func NewScraper(client httpclient.Client, delay time.Duration) *Scraper {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	return &Scraper{client: client, delay: delay}
}

// Fetch downloads url and extracts its text.
func (s *Scraper) Fetch(ctx context.Context, url string) (Page, error) {
	if err := s.throttle(ctx); err != nil {
		return Page{}, err
	}

	resp, err := s.client.Get(ctx, url, map[string]string{
		"User-Agent": scraperUserAgent,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return Page{}, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return Page{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	return parsePage(body)
}

// throttle waits until delay has passed since the previous fetch.
func (s *Scraper) throttle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delay > 0 && !s.lastFetch.IsZero() {
		if wait := s.delay - time.Since(s.lastFetch); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	s.lastFetch = time.Now()
	return nil
}

func parsePage(body []byte) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	meta := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	page := Page{
		Title: firstNonEmpty(
			meta(`meta[property="og:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			meta(`meta[property="og:description"]`),
			meta(`meta[name="description"]`),
		),
	}

	doc.Find("script, style, noscript, template, nav, header, footer, aside").Remove()
	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	page.Body = collapseWhitespace(content.Text())

	return page, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
