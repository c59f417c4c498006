// Package storage persists the rule set, the recognised items and the catalog.
package storage

import (
	"fmt"
	"path/filepath"

	"apriori-backend/internal/models"
)

// Store is the durable side of the application state. Every Save fully
// replaces the previous record; loading a record never written returns an
// empty value and a nil error.
type Store interface {
	SaveRules(rules []models.AssociationRule) error
	LoadRules() ([]models.AssociationRule, error)
	SaveItems(items []string) error
	LoadItems() ([]string, error)
	SaveCatalog(entries []models.CatalogEntry) error
	LoadCatalog() ([]models.CatalogEntry, error)
	Close() error
}

// Open returns the store selected by kind ("file" or "sqlite").
func Open(kind, dataDir, sqlitePath string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(dataDir)
	case "sqlite":
		if sqlitePath == "" {
			sqlitePath = filepath.Join(dataDir, "apriori.db")
		}
		return NewSQLiteStore(sqlitePath)
	}
	return nil, fmt.Errorf("unknown store %q: expected file or sqlite", kind)
}
