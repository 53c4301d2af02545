package download

import (
	"fmt"
	"strings"
	"time"
)

// maxFolderNameLength bounds the title part of archive names.
const maxFolderNameLength = 25

// BaseFolderName shortens a dataset title to its first 25 characters and
// replaces spaces with underscores.
func BaseFolderName(title string) string {
	runes := []rune(title)
	if len(runes) > maxFolderNameLength {
		runes = runes[:maxFolderNameLength]
	}
	return strings.ReplaceAll(string(runes), " ", "_")
}

// ArchiveFilename returns "<epoch millis>-<base folder name>.zip".
func ArchiveFilename(now time.Time, title string) string {
	return fmt.Sprintf("%d-%s.zip", now.UnixMilli(), BaseFolderName(title))
}
