package catalog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentURLRoundTrip(t *testing.T) {
	for _, id := range []ContentID{"abc", "a/b c", "9f1c-77"} {
		u := NewContentURL(id)
		parsed, err := url.Parse(u.String())
		require.NoError(t, err)

		got, err := ParseContentURL(parsed)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestParseContentURLRejectsOtherSchemes(t *testing.T) {
	u, err := url.Parse("file:///tmp/x")
	require.NoError(t, err)

	_, err = ParseContentURL(u)
	assert.Error(t, err)

	_, err = ParseContentURL(&url.URL{Scheme: ContentScheme})
	assert.Error(t, err)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a", JoinPath("", "a"))
	assert.Equal(t, "a/b", JoinPath("a", "b"))
}

func TestIsCode(t *testing.T) {
	err := NewError(ErrNotFound, "item not found", "x")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsCode(err, ErrIOError))
	assert.Equal(t, "item not found: x", err.Error())
}
