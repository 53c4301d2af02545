package download

import (
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// MegaByte is the unit limits are configured and reported in.
const MegaByte = 1024 * 1024

// Limits bounds what a single download may contain. A zero field disables
// the corresponding check.
type Limits struct {
	MaxFiles int
	MaxBytes int64
}

// LimitsFromMB builds Limits from a size in megabytes and a file count.
func LimitsFromMB(maxMB int64, maxFiles int) Limits {
	return Limits{MaxFiles: maxFiles, MaxBytes: maxMB * MegaByte}
}

// TotalSize sums the sizes of file items. Folders count as zero.
func TotalSize(items []*catalog.Item) int64 {
	var total int64
	for _, item := range items {
		if item.IsFile() {
			total += item.Size
		}
	}
	return total
}

// Check enforces both limits. The count covers every item, folders
// included, and is checked first; size work is skipped when it fails.
func (l Limits) Check(items []*catalog.Item) error {
	if l.MaxFiles > 0 && len(items) > l.MaxFiles {
		return &TooManyFilesError{Actual: len(items), Limit: l.MaxFiles}
	}
	return l.checkSize(TotalSize(items))
}

// CheckFile enforces the size limit on a single file.
func (l Limits) CheckFile(item *catalog.Item) error {
	return l.checkSize(item.Size)
}

func (l Limits) checkSize(total int64) error {
	if l.MaxBytes > 0 && total > l.MaxBytes {
		return &PayloadTooLargeError{ActualMB: total / MegaByte, LimitMB: l.MaxBytes / MegaByte}
	}
	return nil
}
