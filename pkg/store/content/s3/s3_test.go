package s3

import (
	"context"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/content"
	contenttesting "github.com/marmos91/dittozip/pkg/store/content/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3ContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.WritableContentStore {
			store, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
				Client:    newFakeS3("datasets"),
				Bucket:    "datasets",
				KeyPrefix: "dittozip/",
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestS3ContentStoreKeyPrefix(t *testing.T) {
	fake := newFakeS3("datasets")
	store, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
		Client:    fake,
		Bucket:    "datasets",
		KeyPrefix: "blobs/",
	})
	require.NoError(t, err)

	require.NoError(t, store.WriteContent(context.Background(), "abc", []byte("x")))
	assert.Contains(t, fake.objects, "blobs/abc")
}

func TestS3ContentStoreMissingBucket(t *testing.T) {
	_, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
		Client: newFakeS3("datasets"),
		Bucket: "other",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrUnavailable)
}

func TestS3ContentStoreConfigValidation(t *testing.T) {
	_, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewS3ContentStore(context.Background(), S3ContentStoreConfig{Client: newFakeS3("b")})
	assert.Error(t, err)
}
