// Package corpus loads the documents the indexer submits to Annif.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/annif-client/pkg/annif"
	"gopkg.in/yaml.v3"
)

// Source kinds an entry can draw its text from.
const (
	SourceInline = "inline"
	SourceFile   = "file"
	SourceURL    = "url"
)

// Entry is one corpus document. Exactly one of Text, File or URL is set.
type Entry struct {
	ID       string          `json:"id" yaml:"id"`
	Title    string          `json:"title" yaml:"title"`
	Text     string          `json:"text" yaml:"text"`
	File     string          `json:"file" yaml:"file"`
	URL      string          `json:"url" yaml:"url"`
	Subjects []annif.Subject `json:"subjects" yaml:"subjects"`
}

// Source reports where the entry's text comes from.
func (e Entry) Source() string {
	switch {
	case e.Text != "":
		return SourceInline
	case e.File != "":
		return SourceFile
	case e.URL != "":
		return SourceURL
	default:
		return ""
	}
}

type corpusFile struct {
	Documents []Entry `json:"documents" yaml:"documents"`
}

// Corpus is an immutable, validated set of entries.
type Corpus struct {
	mu      sync.RWMutex
	entries []Entry
	idx     map[string]Entry
}

// Load reads a YAML or JSON corpus file. Relative file paths inside it are
// resolved against the corpus file's directory.
func Load(path string) (*Corpus, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("corpus file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	parsed, err := parseCorpus(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return New(filepath.Dir(path), parsed.Documents)
}

// New validates entries and builds a Corpus. baseDir anchors relative file paths.
func New(baseDir string, entries []Entry) (*Corpus, error) {
	if len(entries) == 0 {
		return nil, errors.New("corpus contains no documents")
	}

	c := &Corpus{
		entries: make([]Entry, len(entries)),
		idx:     make(map[string]Entry, len(entries)),
	}
	for i := range entries {
		e := sanitizeEntry(entries[i], baseDir)
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("documents[%d]: %w", i, err)
		}
		if _, exists := c.idx[e.ID]; exists {
			return nil, fmt.Errorf("duplicate document id %q", e.ID)
		}
		c.entries[i] = e
		c.idx[e.ID] = e
	}
	return c, nil
}

func parseCorpus(data []byte, ext string) (corpusFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out corpusFile
		if err := d.fn(data, &out); err != nil {
			lastErr = fmt.Errorf("decode %s corpus: %w", d.name, err)
			continue
		}
		return out, nil
	}
	if lastErr != nil {
		return corpusFile{}, lastErr
	}
	return corpusFile{}, errors.New("corpus file format not recognized (expected YAML or JSON)")
}

func sanitizeEntry(e Entry, baseDir string) Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.Title = strings.TrimSpace(e.Title)
	e.File = strings.TrimSpace(e.File)
	e.URL = strings.TrimSpace(e.URL)
	if strings.TrimSpace(e.Text) == "" {
		e.Text = ""
	}
	if e.File != "" && !filepath.IsAbs(e.File) && baseDir != "" {
		e.File = filepath.Join(baseDir, e.File)
	}
	return e
}

func validateEntry(e Entry) error {
	if e.ID == "" {
		return errors.New("id is required")
	}
	sources := 0
	for _, s := range []string{e.Text, e.File, e.URL} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("document %q needs exactly one of text, file or url", e.ID)
	}
	for i, s := range e.Subjects {
		if strings.TrimSpace(s.URI) == "" {
			return fmt.Errorf("document %q subjects[%d]: uri is required", e.ID, i)
		}
	}
	return nil
}

// All returns a copy of the entries in file order.
func (c *Corpus) All() []Entry {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByID returns the entry with the given id.
func (c *Corpus) ByID(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.idx[id]
	return e, ok
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
