// Package fetch opens the URLs that archive entries are streamed from.
//
// Entries reference their bytes by URL: dataset files and stored documents
// use "content:<id>", generated documents use "file:" URLs pointing at
// temporary files, and external resources may use http(s).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/marmos91/dittozip/pkg/store/content"
)

// ErrUnsupportedScheme is returned for URLs no opener is registered for.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// Opener opens a URL for reading. The caller must close the reader.
type Opener interface {
	Open(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, u *url.URL) (io.ReadCloser, error)

func (f OpenerFunc) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	return f(ctx, u)
}

// Mux dispatches to an Opener by URL scheme.
type Mux struct {
	openers map[string]Opener
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{openers: make(map[string]Opener)}
}

// NewDefaultMux wires the content store, local files and HTTP(S).
func NewDefaultMux(store content.ContentStore, client *http.Client) *Mux {
	mux := NewMux()
	mux.Handle(catalog.ContentScheme, NewContentOpener(store))
	mux.Handle("file", FileOpener{})

	httpOpener := NewHTTPOpener(client)
	mux.Handle("http", httpOpener)
	mux.Handle("https", httpOpener)
	return mux
}

// Handle registers opener for scheme, replacing any previous one.
func (m *Mux) Handle(scheme string, opener Opener) {
	m.openers[scheme] = opener
}

// Open implements Opener.
func (m *Mux) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if u == nil {
		return nil, fmt.Errorf("nil URL: %w", ErrUnsupportedScheme)
	}

	opener, ok := m.openers[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("%q: %w", u.Scheme, ErrUnsupportedScheme)
	}
	return opener.Open(ctx, u)
}

// ContentOpener reads "content:" URLs from a content store.
type ContentOpener struct {
	store content.ContentStore
}

// NewContentOpener creates a ContentOpener.
func NewContentOpener(store content.ContentStore) *ContentOpener {
	return &ContentOpener{store: store}
}

func (o *ContentOpener) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	id, err := catalog.ParseContentURL(u)
	if err != nil {
		return nil, err
	}
	return o.store.ReadContent(ctx, id)
}

// FileOpener reads "file:" URLs from the local filesystem.
type FileOpener struct{}

func (FileOpener) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return nil, fmt.Errorf("empty file URL %q", u.String())
	}
	return os.Open(path)
}

// FileURL returns the "file:" URL of an absolute local path.
func FileURL(path string) *url.URL {
	return &url.URL{Scheme: "file", Path: path}
}

// HTTPOpener performs GET requests. Any non-2xx response is an error.
type HTTPOpener struct {
	client *http.Client
}

// NewHTTPOpener creates an HTTPOpener. A nil client gets a 60s timeout client.
func NewHTTPOpener(client *http.Client) *HTTPOpener {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPOpener{client: client}
}

func (o *HTTPOpener) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", u.Redacted(), err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", u.Redacted(), resp.Status)
	}
	return resp.Body, nil
}
