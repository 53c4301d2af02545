package download

import (
	_ "embed"
)

// GeneralConditionsName is the file name of the general conditions of use
// shipped with every archive.
const GeneralConditionsName = "general_conditions.pdf"

//go:embed resources/general_conditions.pdf
var embeddedGeneralConditions []byte

// Reserved archive paths.
const (
	metadataDir              = "meta/"
	descriptiveMetadataName  = "file_metadata.xml"
	checksumManifestPath     = "manifest-sha1.txt"
	generalConditionsPath    = metadataDir + GeneralConditionsName
	descriptiveMetadataPath  = metadataDir + descriptiveMetadataName
	defaultAdditionalLicense = "additional_license"
)
