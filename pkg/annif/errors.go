package annif

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// detectLanguageNotFound is used when a detect-language 404 carries no detail.
const detectLanguageNotFound = "language detection is not available"

// NotFoundError reports a 404 from the service. Detail is the service's own message.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return ErrNotFound.Error()
	}
	return e.Detail
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// HTTPError reports any other non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	snippet := bodySnippet(e.Body)
	if snippet == "" {
		return fmt.Sprintf("http response status %d", e.StatusCode)
	}
	return fmt.Sprintf("http response status %d: %s", e.StatusCode, snippet)
}

func newNotFoundError(body []byte, fallback string) *NotFoundError {
	var payload struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(body, &payload)
	if payload.Detail == "" {
		return &NotFoundError{Detail: fallback}
	}
	return &NotFoundError{Detail: payload.Detail}
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
