package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/annif-client/pkg/annif"
)

// Event is the payload published downstream for each indexed document.
type Event struct {
	EventID    string                   `json:"event_id"`
	ProjectID  string                   `json:"project_id"`
	DocumentID string                   `json:"document_id"`
	Title      string                   `json:"title,omitempty"`
	Source     string                   `json:"source"`
	Results    []annif.SuggestionResult `json:"results"`
	IndexedAt  time.Time                `json:"indexed_at"`
}

// NewEvent constructs an Event for one document's suggestions.
func NewEvent(projectID, documentID, title, source string, results []annif.SuggestionResult) Event {
	if results == nil {
		results = []annif.SuggestionResult{}
	}
	return Event{
		EventID:    uuid.NewString(),
		ProjectID:  projectID,
		DocumentID: documentID,
		Title:      title,
		Source:     source,
		Results:    results,
		IndexedAt:  time.Now().UTC(),
	}
}

// attributes are the message attributes queue-style sinks attach to each event.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"project_id":  e.ProjectID,
		"document_id": e.DocumentID,
	}
}
