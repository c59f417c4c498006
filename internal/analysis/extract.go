package analysis

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"apriori-backend/internal/catalog"
)

// Shape is the dataset-level layout of transactions.
type Shape string

const (
	// ShapeLong means one customer spans several rows.
	ShapeLong Shape = "long"
	// ShapeWide means one row is one basket.
	ShapeWide Shape = "wide"
)

// cellJoiner separates cell texts inside a blob so catalog names never
// match across two cells.
const cellJoiner = " ; "

// Progress observes long extraction loops.
type Progress interface {
	Start(total int)
	Step()
}

// Basket is the aggregated item text of one customer (long) or one row (wide).
type Basket struct {
	ID   string
	Text string
}

// Extraction is the outcome of turning a table into transactions.
type Extraction struct {
	Shape        Shape      `json:"shape"`
	Baskets      int        `json:"baskets"`
	Transactions [][]string `json:"-"`
	Items        []string   `json:"items"`
	Dropped      int        `json:"dropped"`
}

// DetectShape reports long when any non-empty identifier value repeats.
func DetectShape(t Table, idCol int) Shape {
	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		id := cellAt(row, idCol)
		if id == "" {
			continue
		}
		if seen[id] {
			return ShapeLong
		}
		seen[id] = true
	}
	return ShapeWide
}

// BuildBaskets aggregates item-column text per customer or per row. Rows
// without an identifier are skipped. Blobs are lower-cased.
func BuildBaskets(t Table, s Schema) (Shape, []Basket) {
	shape := DetectShape(t, s.IDColumn)

	var baskets []Basket
	index := make(map[string]int)
	for _, row := range t.Rows {
		id := cellAt(row, s.IDColumn)
		if id == "" {
			continue
		}
		var parts []string
		for _, col := range s.ItemColumns {
			if v := cellAt(row, col); v != "" {
				parts = append(parts, strings.ToLower(v))
			}
		}
		text := strings.Join(parts, cellJoiner)

		if shape == ShapeWide {
			baskets = append(baskets, Basket{ID: id, Text: text})
			continue
		}
		pos, ok := index[id]
		if !ok {
			index[id] = len(baskets)
			baskets = append(baskets, Basket{ID: id, Text: text})
			continue
		}
		if text == "" {
			continue
		}
		if baskets[pos].Text == "" {
			baskets[pos].Text = text
		} else {
			baskets[pos].Text += cellJoiner + text
		}
	}
	return shape, baskets
}

// ExtractCatalogItems recognises catalog entries in a basket blob.
//
// Phase A tests every key, longest first, for substring containment; the
// blob is never consumed, so a short key contained in a longer matched one
// also matches. Phase B gives each unmatched key a second chance through
// its significant tokens. Returned items are normalized catalog keys.
//
// With an empty catalog the blob is split on ItemSeparators instead.
func (h Heuristics) ExtractCatalogItems(blob string, cat *catalog.Catalog) []string {
	blob = strings.ToLower(blob)
	if strings.TrimSpace(blob) == "" {
		return nil
	}
	if cat.Empty() {
		return h.splitItems(blob)
	}

	keys := cat.NormalizedKeysByLength()
	matched := make([]bool, len(keys))
	var found []string
	for i, key := range keys {
		if strings.Contains(blob, key) {
			matched[i] = true
			found = append(found, key)
		}
	}
	for i, key := range keys {
		if matched[i] {
			continue
		}
		for _, tok := range h.componentTokens(key) {
			if strings.Contains(blob, tok) {
				found = append(found, key)
				break
			}
		}
	}
	return found
}

// componentTokens returns the tokens of a key long enough to stand for it.
func (h Heuristics) componentTokens(key string) []string {
	fields := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= h.MinComponentLen || h.isStopWord(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (h Heuristics) isStopWord(tok string) bool {
	for _, w := range h.StopWords {
		if tok == w {
			return true
		}
	}
	return false
}

func (h Heuristics) splitItems(blob string) []string {
	seps := h.ItemSeparators
	parts := strings.FieldsFunc(blob, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if utf8.RuneCountInString(p) < h.MinItemLen || isNumeric(p) || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Extract turns a table into transactions of distinct, catalog-valid items.
// Baskets with no recognised item are dropped.
func (h Heuristics) Extract(t Table, s Schema, cat *catalog.Catalog) Extraction {
	return h.ExtractProgress(t, s, cat, nil)
}

// ExtractProgress is Extract reporting each basket to p, which may be nil.
func (h Heuristics) ExtractProgress(t Table, s Schema, cat *catalog.Catalog, p Progress) Extraction {
	shape, baskets := BuildBaskets(t, s)
	ex := Extraction{Shape: shape, Baskets: len(baskets)}
	if p != nil {
		p.Start(len(baskets))
	}
	for _, b := range baskets {
		if p != nil {
			p.Step()
		}
		if items := h.ValidItems(b.Text, cat); len(items) > 0 {
			ex.Transactions = append(ex.Transactions, items)
		} else {
			ex.Dropped++
		}
	}
	ex.Items = DistinctItems(ex.Transactions)
	return ex
}

// ValidItems runs extraction on one blob and applies the catalog gate.
func (h Heuristics) ValidItems(blob string, cat *catalog.Catalog) []string {
	seen := make(map[string]bool)
	var items []string
	for _, item := range h.ExtractCatalogItems(blob, cat) {
		if seen[item] || !cat.IsValid(item) {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	return items
}

// DistinctItems returns the sorted set of items across transactions.
func DistinctItems(transactions [][]string) []string {
	set := make(map[string]bool)
	for _, tx := range transactions {
		for _, item := range tx {
			set[item] = true
		}
	}
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
