package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"apriori-backend/internal/models"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS rules (
		pos INTEGER PRIMARY KEY,
		antecedents TEXT NOT NULL,
		consequents TEXT NOT NULL,
		support REAL NOT NULL,
		confidence REAL NOT NULL,
		lift REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		pos INTEGER PRIMARY KEY,
		item TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog (
		pos INTEGER PRIMARY KEY,
		entry_key TEXT NOT NULL,
		id TEXT,
		name TEXT,
		category TEXT,
		price REAL,
		description TEXT,
		image TEXT
	)`,
}

// SQLiteStore keeps the three records as tables of one SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// replace empties table and refills it inside one transaction.
func (s *SQLiteStore) replace(table, insert string, n int, args func(i int) []any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return fmt.Errorf("save %s row %d: %w", table, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) SaveRules(rules []models.AssociationRule) error {
	encoded := make([][2]string, len(rules))
	for i, r := range rules {
		a, err := json.Marshal(r.Antecedents)
		if err != nil {
			return err
		}
		c, err := json.Marshal(r.Consequents)
		if err != nil {
			return err
		}
		encoded[i] = [2]string{string(a), string(c)}
	}
	return s.replace("rules",
		`INSERT INTO rules (pos, antecedents, consequents, support, confidence, lift) VALUES (?, ?, ?, ?, ?, ?)`,
		len(rules), func(i int) []any {
			r := rules[i]
			return []any{i, encoded[i][0], encoded[i][1], r.Support, r.Confidence, r.Lift}
		})
}

func (s *SQLiteStore) LoadRules() ([]models.AssociationRule, error) {
	rows, err := s.db.Query(`SELECT antecedents, consequents, support, confidence, lift FROM rules ORDER BY pos`)
	if err != nil {
		return []models.AssociationRule{}, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	rules := []models.AssociationRule{}
	for rows.Next() {
		var a, c string
		var r models.AssociationRule
		if err := rows.Scan(&a, &c, &r.Support, &r.Confidence, &r.Lift); err != nil {
			return []models.AssociationRule{}, fmt.Errorf("load rules: %w", err)
		}
		if err := json.Unmarshal([]byte(a), &r.Antecedents); err != nil {
			return []models.AssociationRule{}, fmt.Errorf("decode antecedents: %w", err)
		}
		if err := json.Unmarshal([]byte(c), &r.Consequents); err != nil {
			return []models.AssociationRule{}, fmt.Errorf("decode consequents: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *SQLiteStore) SaveItems(items []string) error {
	return s.replace("items", `INSERT INTO items (pos, item) VALUES (?, ?)`,
		len(items), func(i int) []any { return []any{i, items[i]} })
}

func (s *SQLiteStore) LoadItems() ([]string, error) {
	rows, err := s.db.Query(`SELECT item FROM items ORDER BY pos`)
	if err != nil {
		return []string{}, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return []string{}, fmt.Errorf("load items: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) SaveCatalog(entries []models.CatalogEntry) error {
	return s.replace("catalog",
		`INSERT INTO catalog (pos, entry_key, id, name, category, price, description, image) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(entries), func(i int) []any {
			e := entries[i]
			return []any{i, e.Key, e.ID, e.Name, e.Category, e.Price, e.Description, e.Image}
		})
}

func (s *SQLiteStore) LoadCatalog() ([]models.CatalogEntry, error) {
	rows, err := s.db.Query(`SELECT entry_key, id, name, category, price, description, image FROM catalog ORDER BY pos`)
	if err != nil {
		return []models.CatalogEntry{}, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	entries := []models.CatalogEntry{}
	for rows.Next() {
		var e models.CatalogEntry
		var id, name, category, desc, image sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&e.Key, &id, &name, &category, &price, &desc, &image); err != nil {
			return []models.CatalogEntry{}, fmt.Errorf("load catalog: %w", err)
		}
		e.ID, e.Name, e.Category = id.String, name.String, category.String
		e.Price, e.Description, e.Image = price.Float64, desc.String, image.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
