package service

import (
	"encoding/json"
	"fmt"
)

// Tables whose changes invalidate the catalog.
const (
	TableCentres = "creches"
	TableGallery = "creche_gallery"
)

// CatalogChange is a row change published by the backend for one of the
// catalog tables.
type CatalogChange struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record,omitempty"`
}

// DecodeCatalogChange parses a change message, rejecting tables outside the
// catalog and unknown change types.
func DecodeCatalogChange(value []byte) (CatalogChange, error) {
	var change CatalogChange
	if err := json.Unmarshal(value, &change); err != nil {
		return CatalogChange{}, fmt.Errorf("decoding catalog change: %w", err)
	}
	switch change.Table {
	case TableCentres, TableGallery:
	default:
		return CatalogChange{}, fmt.Errorf("change to unrelated table %q", change.Table)
	}
	switch change.Type {
	case "INSERT", "UPDATE", "DELETE":
	default:
		return CatalogChange{}, fmt.Errorf("unknown change type %q", change.Type)
	}
	return change, nil
}
