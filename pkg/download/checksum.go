package download

import (
	"bufio"
	"io"
	"strings"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// ChecksumPlaceholder replaces a checksum that was never computed.
const ChecksumPlaceholder = "-------------not-calculated-------------"

// WriteChecksumManifest writes "<sha1> <path>\n" for every file item, in
// order, and returns the number of lines written. Folders are skipped.
func WriteChecksumManifest(w io.Writer, items []*catalog.Item) (int, error) {
	bw := bufio.NewWriter(w)

	lines := 0
	for _, item := range items {
		if !item.IsFile() {
			continue
		}

		sha1 := strings.TrimSpace(item.Checksum)
		if sha1 == "" {
			sha1 = ChecksumPlaceholder
		}
		if _, err := bw.WriteString(sha1 + " " + strings.TrimSpace(item.Path) + "\n"); err != nil {
			return lines, err
		}
		lines++
	}
	return lines, bw.Flush()
}
