package indexer

import (
	"context"

	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/samvad-hq/annif-client/pkg/corpus"
	"github.com/samvad-hq/annif-client/pkg/httpclient"
	"github.com/samvad-hq/annif-client/pkg/publishers"
)

// Annif is the part of the API client the indexer drives.
type Annif interface {
	SuggestBatch(ctx context.Context, projectID string, docs []annif.Document, opts ...annif.SuggestOption) ([]annif.BatchResult, error)
	Learn(ctx context.Context, projectID string, docs []annif.Document) (httpclient.Response, error)
}

// Resolver loads the text of a corpus entry.
type Resolver interface {
	Resolve(ctx context.Context, e corpus.Entry) (Resolved, error)
}

// EventPublisher publishes suggestion events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
}

// Deduper remembers which documents were already handled per project.
type Deduper interface {
	Seen(projectID, documentID string) (bool, error)
	Mark(projectID, documentID string) error
}
