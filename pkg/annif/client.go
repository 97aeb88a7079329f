// Package annif is a client for the Annif subject indexing REST API.
package annif

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samvad-hq/annif-client/pkg/httpclient"
)

// DefaultBaseURL is the public Annif API endpoint.
const DefaultBaseURL = "https://api.annif.org/v1/"

// Client issues Annif API calls. It is immutable after New and safe for concurrent use.
type Client struct {
	baseURL string
	headers map[string]string
	http    httpclient.Client
	log     Logger
}

// New builds a client. Without WithBaseURL it targets DefaultBaseURL.
func New(opts ...Option) *Client {
	o := clientOptions{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.http == nil {
		o.http = httpclient.NewRestyClient(o.timeout)
	}
	if o.log == nil {
		o.log = noopLogger{}
	}

	return &Client{
		baseURL: o.baseURL,
		headers: map[string]string{"User-Agent": UserAgent},
		http:    o.http,
		log:     o.log,
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// String exposes only the base URL.
func (c *Client) String() string {
	return fmt.Sprintf("annif.Client(base_url=%q)", c.baseURL)
}

// GoString keeps %#v from printing the header set.
func (c *Client) GoString() string { return c.String() }

// Info returns the service banner.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	resp, err := c.do(ctx, httpclient.Request{Method: http.MethodGet, URL: c.baseURL})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var info Info
	if err := decode(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Projects lists the projects available on the service.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	resp, err := c.do(ctx, httpclient.Request{Method: http.MethodGet, URL: c.baseURL + "projects"})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var env struct {
		Projects []Project `json:"projects"`
	}
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	return env.Projects, nil
}

// Project fetches a single project by ID.
func (c *Client) Project(ctx context.Context, projectID string) (*Project, error) {
	resp, err := c.do(ctx, httpclient.Request{Method: http.MethodGet, URL: c.projectURL(projectID, "")})
	if err != nil {
		return nil, err
	}
	if err := checkProjectStatus(resp, ""); err != nil {
		return nil, err
	}

	var p Project
	if err := decode(resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DetectLanguage ranks the candidate languages for text.
func (c *Client) DetectLanguage(ctx context.Context, text Text, languages []string) (*LanguageDetection, error) {
	body, err := text.Resolve()
	if err != nil {
		return nil, err
	}
	if languages == nil {
		languages = []string{}
	}

	resp, err := c.do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "detect-language",
		JSON: map[string]any{
			"text":      body,
			"languages": languages,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := checkProjectStatus(resp, detectLanguageNotFound); err != nil {
		return nil, err
	}

	var out LanguageDetection
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest returns subject suggestions for text from the given project.
// The text travels form-encoded; limit and threshold only when supplied.
func (c *Client) Suggest(ctx context.Context, projectID string, text Text, opts ...SuggestOption) ([]SuggestionResult, error) {
	body, err := text.Resolve()
	if err != nil {
		return nil, err
	}
	form := newSuggestParams(opts).encode(map[string]string{"text": body})

	resp, err := c.do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.projectURL(projectID, "suggest"),
		Form:   form,
	})
	if err != nil {
		return nil, err
	}
	if err := checkProjectStatus(resp, ""); err != nil {
		return nil, err
	}

	var env struct {
		Results []SuggestionResult `json:"results"`
	}
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

// Analyze is the former name of Suggest.
//
// Deprecated: use Suggest.
func (c *Client) Analyze(ctx context.Context, projectID string, text Text, opts ...SuggestOption) ([]SuggestionResult, error) {
	return c.Suggest(ctx, projectID, text, opts...)
}

// SuggestBatch suggests subjects for several documents in one request. The
// per-document envelopes are returned as the service sent them.
func (c *Client) SuggestBatch(ctx context.Context, projectID string, docs []Document, opts ...SuggestOption) ([]BatchResult, error) {
	if docs == nil {
		docs = []Document{}
	}
	query := newSuggestParams(opts).encode(nil)

	resp, err := c.do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.projectURL(projectID, "suggest-batch"),
		Query:  query,
		JSON:   map[string]any{"documents": docs},
	})
	if err != nil {
		return nil, err
	}
	if err := checkProjectStatus(resp, ""); err != nil {
		return nil, err
	}

	var out []BatchResult
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Learn trains the project further on documents with known subjects. The
// documents array is the request body itself. The raw response is returned.
func (c *Client) Learn(ctx context.Context, projectID string, docs []Document) (httpclient.Response, error) {
	if docs == nil {
		docs = []Document{}
	}

	resp, err := c.do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.projectURL(projectID, "learn"),
		JSON:   docs,
	})
	if err != nil {
		return nil, err
	}
	if err := checkProjectStatus(resp, ""); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) projectURL(projectID, action string) string {
	u := c.baseURL + "projects/" + url.PathEscape(projectID)
	if action != "" {
		u += "/" + action
	}
	return u
}

// do attaches the client headers and logs the exchange. Transport errors are
// returned untouched.
func (c *Client) do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req.Headers = c.headers

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("annif request failed", "annif_request", map[string]any{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
		return nil, err
	}
	c.log.DebugObj("annif request completed", "annif_request", map[string]any{
		"method":     req.Method,
		"url":        req.URL,
		"status":     resp.StatusCode(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

// checkProjectStatus converts a 404 into a NotFoundError before the generic check.
// An empty fallback keeps the service detail verbatim, even when it is missing.
func checkProjectStatus(resp httpclient.Response, fallback string) error {
	if resp.StatusCode() == http.StatusNotFound {
		return newNotFoundError(resp.Body(), fallback)
	}
	return checkStatus(resp)
}

func checkStatus(resp httpclient.Response) error {
	code := resp.StatusCode()
	if code < 200 || code > 299 {
		return &HTTPError{StatusCode: code, Body: resp.Body()}
	}
	return nil
}

func decode(resp httpclient.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
