package download

import (
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizedFile(id string, size int64) *catalog.Item {
	return &catalog.Item{ID: catalog.ItemID(id), Kind: catalog.ItemKindFile, Size: size, Path: id}
}

func sizedFolder(id string) *catalog.Item {
	return &catalog.Item{ID: catalog.ItemID(id), Kind: catalog.ItemKindFolder, Path: id}
}

func TestLimitsCheck(t *testing.T) {
	items := []*catalog.Item{
		sizedFile("a", 10*MegaByte),
		sizedFile("b", 5*MegaByte),
		sizedFolder("docs"),
	}

	tests := []struct {
		name   string
		limits Limits
		want   error
	}{
		{"WithinLimits", LimitsFromMB(100, 10), nil},
		{"Disabled", Limits{}, nil},
		{"TooManyFilesCountsFolders", LimitsFromMB(100, 2), &TooManyFilesError{Actual: 3, Limit: 2}},
		{"TooLarge", LimitsFromMB(12, 10), &PayloadTooLargeError{ActualMB: 15, LimitMB: 12}},
		{"CountCheckedFirst", LimitsFromMB(1, 1), &TooManyFilesError{Actual: 3, Limit: 1}},
		{"ExactlyAtLimit", LimitsFromMB(15, 3), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.Check(items)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, err)
		})
	}
}

func TestLimitsCheckFile(t *testing.T) {
	limits := LimitsFromMB(1, 1)

	assert.NoError(t, limits.CheckFile(sizedFile("small", MegaByte)))

	err := limits.CheckFile(sizedFile("big", 3*MegaByte+1))
	var sizeErr *PayloadTooLargeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(3), sizeErr.ActualMB)
	assert.Equal(t, int64(1), sizeErr.LimitMB)
}

func TestTotalSizeIgnoresFolders(t *testing.T) {
	folder := sizedFolder("docs")
	folder.Size = 4096

	assert.Equal(t, int64(7), TotalSize([]*catalog.Item{sizedFile("a", 3), folder, sizedFile("b", 4)}))
	assert.Zero(t, TotalSize(nil))
}
