package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"apriori-backend/internal/models"
)

const (
	rulesFile   = "rules.json"
	itemsFile   = "items.json"
	catalogFile = "catalog.json"
)

// FileStore keeps each record as a JSON file in one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) SaveRules(rules []models.AssociationRule) error {
	if rules == nil {
		rules = []models.AssociationRule{}
	}
	return s.write(rulesFile, rules)
}

func (s *FileStore) LoadRules() ([]models.AssociationRule, error) {
	rules := []models.AssociationRule{}
	if err := s.read(rulesFile, &rules); err != nil {
		return []models.AssociationRule{}, err
	}
	return rules, nil
}

func (s *FileStore) SaveItems(items []string) error {
	if items == nil {
		items = []string{}
	}
	return s.write(itemsFile, items)
}

func (s *FileStore) LoadItems() ([]string, error) {
	items := []string{}
	if err := s.read(itemsFile, &items); err != nil {
		return []string{}, err
	}
	return items, nil
}

func (s *FileStore) SaveCatalog(entries []models.CatalogEntry) error {
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	return s.write(catalogFile, entries)
}

func (s *FileStore) LoadCatalog() ([]models.CatalogEntry, error) {
	entries := []models.CatalogEntry{}
	if err := s.read(catalogFile, &entries); err != nil {
		return []models.CatalogEntry{}, err
	}
	return entries, nil
}

func (s *FileStore) Close() error { return nil }

// write replaces name atomically: a crash leaves either the old or the new file.
func (s *FileStore) write(name string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) read(name string, v interface{}) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
