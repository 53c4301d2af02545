package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// Values are JSON encoded. Catalog records are small and rarely written, so
// debuggability wins over compactness.

// datasetData is the persisted form of a dataset.
type datasetData struct {
	Dataset catalog.Dataset `json:"dataset"`
}

func encodeItem(item *catalog.Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	return data, nil
}

func decodeItem(data []byte) (*catalog.Item, error) {
	var item catalog.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	return &item, nil
}

func encodeDataset(ds *catalog.Dataset) ([]byte, error) {
	data, err := json.Marshal(datasetData{Dataset: *ds})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	return data, nil
}

func decodeDataset(data []byte) (*catalog.Dataset, error) {
	var dd datasetData
	if err := json.Unmarshal(data, &dd); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return &dd.Dataset, nil
}
