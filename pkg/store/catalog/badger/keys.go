package badger

import (
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// Database Key Namespace Design
// ==============================
//
// Data Type        Prefix   Key Format                 Value
// =============================================================
// Datasets         "d:"     d:<datasetID>              datasetData (JSON)
// Items            "i:"     i:<itemID>                 catalog.Item (JSON)
// Children Map     "c:"     c:<parentID>:<childName>   childID (bytes)
//
// Children are denormalized, one key per child. Listing a folder is a prefix
// scan over "c:<parentID>:", and Badger iterates keys in byte order, so
// listings come back sorted by name without extra work.

const (
	prefixDataset = "d:"
	prefixItem    = "i:"
	prefixChild   = "c:"
)

func keyDataset(id catalog.DatasetID) []byte {
	return []byte(prefixDataset + string(id))
}

func keyItem(id catalog.ItemID) []byte {
	return []byte(prefixItem + string(id))
}

func keyChild(parentID catalog.ItemID, name string) []byte {
	return []byte(prefixChild + string(parentID) + ":" + name)
}

func keyChildPrefix(parentID catalog.ItemID) []byte {
	return []byte(prefixChild + string(parentID) + ":")
}
