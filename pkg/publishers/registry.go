package publishers

import (
	"context"
	"fmt"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to their builders.
type Registry map[string]Builder

// DefaultRegistry knows every sink this package ships.
func DefaultRegistry() Registry {
	return Registry{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	}
}

// Build constructs the publisher for one config entry.
func (r Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	build, ok := r[cfg.Type]
	if !ok || build == nil {
		return nil, fmt.Errorf("no publisher registered for type %q (publisher %q)", cfg.Type, cfg.ID)
	}
	return build(ctx, cfg, orDiscard(log))
}

// BuildAll constructs every publisher, closing the ones already built if any fails.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			_ = closeAll(pubs)
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
