package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/marmos91/dittozip/pkg/download"
	"github.com/marmos91/dittozip/pkg/fetch"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
)

// Registry holds the shared resources every adapter serves from: the
// catalog, the content store, the URL opener bound to that content store
// and the download service built on top of them.
//
// Example usage:
//
//	reg := NewRegistry(catalogStore, contentStore, nil)
//	reg.SetService(download.NewService(reg.Catalog(), policy, assembler))
//
//	svc, _ := reg.Service()
type Registry struct {
	mu      sync.RWMutex
	catalog catalog.Store
	content content.ContentStore
	opener  *fetch.Mux
	service *download.Service
	closed  bool
}

// NewRegistry creates a registry for the given stores. client is used for
// http(s) URLs; nil selects the opener's default client.
//
// Panics if either store is nil (indicates programmer error).
func NewRegistry(catalogStore catalog.Store, contentStore content.ContentStore, client *http.Client) *Registry {
	if catalogStore == nil {
		panic("catalog store cannot be nil")
	}
	if contentStore == nil {
		panic("content store cannot be nil")
	}

	return &Registry{
		catalog: catalogStore,
		content: contentStore,
		opener:  fetch.NewDefaultMux(contentStore, client),
	}
}

// Catalog returns the catalog store.
func (r *Registry) Catalog() catalog.Store {
	return r.catalog
}

// Content returns the content store.
func (r *Registry) Content() content.ContentStore {
	return r.content
}

// Opener returns the URL opener resolving content, file and http(s) URLs.
func (r *Registry) Opener() fetch.Opener {
	return r.opener
}

// SetService registers the download service. It can be set only once.
func (r *Registry) SetService(svc *download.Service) error {
	if svc == nil {
		return fmt.Errorf("cannot register nil download service")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.service != nil {
		return fmt.Errorf("download service already registered")
	}
	r.service = svc
	return nil
}

// Service returns the registered download service.
func (r *Registry) Service() (*download.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("registry is closed")
	}
	if r.service == nil {
		return nil, fmt.Errorf("no download service registered")
	}
	return r.service, nil
}

// Healthcheck verifies the catalog is reachable.
func (r *Registry) Healthcheck(ctx context.Context) error {
	return r.catalog.Healthcheck(ctx)
}

// Close releases the stores that hold resources. Safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, s := range []any{r.catalog, r.content} {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
