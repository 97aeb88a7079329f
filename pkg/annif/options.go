package annif

import (
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/annif-client/pkg/httpclient"
)

const defaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
	timeout time.Duration
	http    httpclient.Client
	log     Logger
}

// WithBaseURL overrides DefaultBaseURL. The value is stored verbatim, so it
// normally ends with a slash.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithTimeout sets the transport timeout used when the client builds its own transport.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPClient injects the transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *clientOptions) { o.http = c }
}

// WithRestyClient injects a preconfigured resty client.
func WithRestyClient(c *resty.Client) Option {
	return func(o *clientOptions) { o.http = httpclient.WrapResty(c) }
}

// WithLogger enables request logging.
func WithLogger(log Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// SuggestOption sets an optional suggest parameter. Parameters that are not
// set are left out of the request entirely.
type SuggestOption func(*suggestParams)

type suggestParams struct {
	limit     *int
	threshold *float64
}

// WithLimit caps the number of suggestions returned.
func WithLimit(n int) SuggestOption {
	return func(p *suggestParams) { p.limit = &n }
}

// WithThreshold drops suggestions scoring below t.
func WithThreshold(t float64) SuggestOption {
	return func(p *suggestParams) { p.threshold = &t }
}

func newSuggestParams(opts []SuggestOption) suggestParams {
	var p suggestParams
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

// encode writes the supplied parameters into dst.
func (p suggestParams) encode(dst map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, 2)
	}
	if p.limit != nil {
		dst["limit"] = strconv.Itoa(*p.limit)
	}
	if p.threshold != nil {
		dst["threshold"] = strconv.FormatFloat(*p.threshold, 'f', -1, 64)
	}
	return dst
}
