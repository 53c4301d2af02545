package memory

import (
	"context"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/content"
	contenttesting "github.com/marmos91/dittozip/pkg/store/content/testing"
	"github.com/stretchr/testify/require"
)

func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.WritableContentStore {
			store, err := NewMemoryContentStore(context.Background())
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}
