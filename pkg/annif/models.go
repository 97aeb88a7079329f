package annif

import "encoding/json"

// Info is the service banner returned by the API root.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`

	// Raw holds the verbatim JSON object as returned by the service.
	Raw json.RawMessage `json:"-"`
}

// Backend names the algorithm behind a project.
type Backend struct {
	BackendID string `json:"backend_id"`
}

// Project is a subject indexing model exposed by the service.
type Project struct {
	ProjectID        string   `json:"project_id"`
	Name             string   `json:"name"`
	Language         string   `json:"language"`
	Backend          *Backend `json:"backend,omitempty"`
	IsTrained        *bool    `json:"is_trained,omitempty"`
	ModificationTime string   `json:"modification_time,omitempty"`

	// Raw holds the verbatim JSON object so fields unknown to this client pass through.
	Raw json.RawMessage `json:"-"`
}

// SuggestionResult is a single subject suggested for a text.
type SuggestionResult struct {
	URI      string  `json:"uri"`
	Label    string  `json:"label"`
	Notation *string `json:"notation,omitempty"`
	Score    float64 `json:"score"`
}

// Subject is a known subject attached to a training document.
type Subject struct {
	URI   string `json:"uri"`
	Label string `json:"label,omitempty"`
}

// Document is the unit submitted to suggest-batch and learn.
type Document struct {
	DocumentID string    `json:"document_id,omitempty"`
	Text       string    `json:"text"`
	Subjects   []Subject `json:"subjects,omitempty"`
}

// BatchResult carries the suggestions for one document of a batch.
type BatchResult struct {
	DocumentID string             `json:"document_id,omitempty"`
	Results    []SuggestionResult `json:"results"`
}

// LanguageResult is one candidate language. Language is empty when the
// service could not identify the text.
type LanguageResult struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

// LanguageDetection is the detect-language envelope, ranked by the service.
type LanguageDetection struct {
	Results []LanguageResult `json:"results"`
}

func (i *Info) UnmarshalJSON(data []byte) error {
	type plain Info
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*i = Info(v)
	i.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (i Info) MarshalJSON() ([]byte, error) {
	if len(i.Raw) > 0 {
		return i.Raw, nil
	}
	type plain Info
	return json.Marshal(plain(i))
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Project(v)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p Project) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	type plain Project
	return json.Marshal(plain(p))
}
