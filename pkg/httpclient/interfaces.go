package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Request describes a single outgoing call. At most one of Form or JSON is used as the body.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Form    map[string]string
	JSON    any
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}
