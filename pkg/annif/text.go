package annif

import (
	"fmt"
	"io"
)

// Text is the input of Suggest and DetectLanguage: either an inline string or
// a reader whose full contents are used.
type Text struct {
	inline string
	src    io.Reader
}

// InlineText wraps an in-memory string.
func InlineText(s string) Text {
	return Text{inline: s}
}

// StreamText wraps a reader. It is drained completely, once, when the request is built.
func StreamText(r io.Reader) Text {
	if r == nil {
		return Text{}
	}
	return Text{src: r}
}

// IsStream reports whether the text is backed by a reader.
func (t Text) IsStream() bool { return t.src != nil }

// Resolve returns the string form of the text, reading the stream if needed.
func (t Text) Resolve() (string, error) {
	if t.src == nil {
		return t.inline, nil
	}
	raw, err := io.ReadAll(t.src)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(raw), nil
}
