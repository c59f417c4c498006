// Package catalog holds the known product/service names used to recognise
// and enrich items extracted from transaction text.
package catalog

import (
	"sort"
	"strings"
	"unicode/utf8"

	"apriori-backend/internal/models"
)

// Catalog is an immutable, ordered set of entries keyed case-insensitively.
// A new upload builds a new Catalog; readers may keep the old one.
type Catalog struct {
	entries  []models.CatalogEntry
	keys     []string // normalized keys, parallel to entries
	index    map[string]int
	byLength []int
}

// ComposeKey builds the catalog key: "<category> <name>", or just the name.
func ComposeKey(category, name string) string {
	category = defaultNormalizer.CleanText(category)
	name = defaultNormalizer.CleanText(name)
	if category == "" {
		return name
	}
	if name == "" {
		return category
	}
	return category + " " + name
}

// New builds a catalog. Entries without a key get one composed from category
// and name; entries that still have no key are skipped. A later entry with the
// same normalized key replaces the earlier one in place.
func New(entries []models.CatalogEntry) *Catalog {
	c := &Catalog{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			e.Key = ComposeKey(e.Category, e.Name)
		} else {
			e.Key = defaultNormalizer.CleanText(e.Key)
		}
		norm := NormalizeKey(e.Key)
		if norm == "" {
			continue
		}
		if pos, ok := c.index[norm]; ok {
			c.entries[pos] = e
			continue
		}
		c.index[norm] = len(c.entries)
		c.entries = append(c.entries, e)
		c.keys = append(c.keys, norm)
	}

	c.byLength = make([]int, len(c.entries))
	for i := range c.byLength {
		c.byLength[i] = i
	}
	sort.SliceStable(c.byLength, func(a, b int) bool {
		return utf8.RuneCountInString(c.keys[c.byLength[a]]) > utf8.RuneCountInString(c.keys[c.byLength[b]])
	})
	return c
}

// Len returns the number of entries. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Empty reports whether no entries are held.
func (c *Catalog) Empty() bool {
	return c.Len() == 0
}

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []models.CatalogEntry {
	if c.Empty() {
		return []models.CatalogEntry{}
	}
	out := make([]models.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// NormalizedKeysByLength returns the lower-cased keys, longest first.
// Equal lengths keep catalog order.
func (c *Catalog) NormalizedKeysByLength() []string {
	if c.Empty() {
		return nil
	}
	out := make([]string, len(c.byLength))
	for i, idx := range c.byLength {
		out[i] = c.keys[idx]
	}
	return out
}

// Lookup finds an entry by case-insensitive key equality.
func (c *Catalog) Lookup(key string) (models.CatalogEntry, bool) {
	if c.Empty() {
		return models.CatalogEntry{}, false
	}
	pos, ok := c.index[NormalizeKey(key)]
	if !ok {
		return models.CatalogEntry{}, false
	}
	return c.entries[pos], true
}

// Details resolves catalog metadata for an item string: an exact key match
// wins; otherwise the longest key contained in the item (first one on ties).
func (c *Catalog) Details(item string) *models.CatalogEntry {
	if e, ok := c.Lookup(item); ok {
		return &e
	}
	if c.Empty() {
		return nil
	}
	norm := NormalizeKey(item)
	if norm == "" {
		return nil
	}
	best, bestLen := -1, 0
	for i, key := range c.keys {
		if !strings.Contains(norm, key) {
			continue
		}
		if n := utf8.RuneCountInString(key); n > bestLen {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return nil
	}
	e := c.entries[best]
	return &e
}

// IsValid is the catalog gate. With no catalog every non-empty item passes;
// otherwise the item must equal, contain, or be contained by some key.
func (c *Catalog) IsValid(item string) bool {
	norm := NormalizeKey(item)
	if norm == "" {
		return false
	}
	if c.Empty() {
		return true
	}
	if _, ok := c.index[norm]; ok {
		return true
	}
	for _, key := range c.keys {
		if strings.Contains(norm, key) || strings.Contains(key, norm) {
			return true
		}
	}
	return false
}
