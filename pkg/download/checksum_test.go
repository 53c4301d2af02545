package download

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteChecksumManifest(t *testing.T) {
	items := []*catalog.Item{
		{ID: "1", Kind: catalog.ItemKindFile, Path: "data/a.csv", Checksum: testChecksum},
		{ID: "2", Kind: catalog.ItemKindFolder, Path: "data"},
		{ID: "3", Kind: catalog.ItemKindFile, Path: " b.txt ", Checksum: ""},
		{ID: "4", Kind: catalog.ItemKindFile, Path: "c.bin", Checksum: "  0123456789abcdef0123456789abcdef01234567\n"},
	}

	var buf bytes.Buffer
	lines, err := WriteChecksumManifest(&buf, items)
	require.NoError(t, err)

	assert.Equal(t, 3, lines)
	assert.Equal(t,
		testChecksum+" data/a.csv\n"+
			ChecksumPlaceholder+" b.txt\n"+
			"0123456789abcdef0123456789abcdef01234567 c.bin\n",
		buf.String())
}

func TestWriteChecksumManifestEmpty(t *testing.T) {
	var buf bytes.Buffer
	lines, err := WriteChecksumManifest(&buf, []*catalog.Item{sizedFolder("only")})
	require.NoError(t, err)
	assert.Zero(t, lines)
	assert.Empty(t, buf.String())
}

func TestChecksumPlaceholderWidth(t *testing.T) {
	// Same width as a hex SHA-1 so manifest columns line up.
	assert.Len(t, ChecksumPlaceholder, 40)
}
