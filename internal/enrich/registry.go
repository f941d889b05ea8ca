package enrich

import (
	"fmt"

	"PaperFeed/internal/ports"
)

// Registry keeps abstract fetchers in registration order.
type Registry struct {
	fetchers []ports.AbstractFetcher
	names    map[string]int
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: map[string]int{}}
}

// Register adds a fetcher or replaces the one registered under the same name.
func (r *Registry) Register(fetcher ports.AbstractFetcher) {
	if r.names == nil {
		r.names = map[string]int{}
	}
	if i, ok := r.names[fetcher.Name()]; ok {
		r.fetchers[i] = fetcher
		return
	}
	r.names[fetcher.Name()] = len(r.fetchers)
	r.fetchers = append(r.fetchers, fetcher)
}

// Resolve returns the first fetcher supporting paperURL.
func (r *Registry) Resolve(paperURL string) (ports.AbstractFetcher, error) {
	for _, fetcher := range r.fetchers {
		if fetcher.Supports(paperURL) {
			return fetcher, nil
		}
	}
	return nil, fmt.Errorf("no abstract fetcher for %s", paperURL)
}

// Len reports how many fetchers are registered.
func (r *Registry) Len() int {
	return len(r.fetchers)
}
