package catalog

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ContentScheme is the URL scheme of content store references.
const ContentScheme = "content"

// NewContentURL returns the opaque URL "content:<id>".
func NewContentURL(id ContentID) *url.URL {
	return &url.URL{Scheme: ContentScheme, Opaque: url.PathEscape(string(id))}
}

// ParseContentURL extracts the content ID from a "content:" URL.
func ParseContentURL(u *url.URL) (ContentID, error) {
	if u == nil || u.Scheme != ContentScheme {
		return "", fmt.Errorf("not a %s URL: %v", ContentScheme, u)
	}

	raw := u.Opaque
	if raw == "" {
		raw = strings.TrimPrefix(u.Path, "/")
	}

	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid content URL %q: %w", u.String(), err)
	}
	if id == "" {
		return "", fmt.Errorf("empty content id in %q", u.String())
	}
	return ContentID(id), nil
}

// JoinPath builds the relative path of a child named name under a folder
// with relative path parent.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return path.Join(parent, name)
}
