// Package testing holds a conformance suite every content store backend runs.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/content"
)

// StoreTestSuite checks the behavior the download pipeline and the importer
// rely on: bytes come back exactly as written, sizes match, missing content
// surfaces as content.ErrContentNotFound.
//
//	suite := &contenttesting.StoreTestSuite{
//	    NewStore: func() content.WritableContentStore { return memory.New() },
//	}
//	suite.Run(t)
type StoreTestSuite struct {
	// NewStore returns an empty store. It is called once per subtest.
	NewStore func() content.WritableContentStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Payloads", suite.RunPayloadTests)
	t.Run("Missing", suite.RunMissingTests)
	t.Run("Lifecycle", suite.RunLifecycleTests)
}

func testContext() context.Context {
	return context.Background()
}
