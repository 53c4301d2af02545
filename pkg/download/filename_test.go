package download

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseFolderName(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"", ""},
		{"Short", "Short"},
		{"My Long Test Dataset Name For Zips", "My_Long_Test_Dataset_Name"},
		{"Exactly twenty-five chars", "Exactly_twenty-five_chars"},
		{"Données d'enquête sur les ménages", "Données_d'enquête_sur_les"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseFolderName(tt.title), "title %q", tt.title)
	}
}

func TestArchiveFilename(t *testing.T) {
	assert.Equal(t, "1700000000000-My_Long_Test_Dataset_Name.zip", ArchiveFilename(testNow, testTitle))
	assert.Equal(t, "0-x.zip", ArchiveFilename(time.UnixMilli(0), "x"))
}
