package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"apriori-backend/internal/models"
)

// Column aliases for catalog sheets and tables, checked in order. Exact
// header matches are preferred over substring matches.
var fieldAliases = map[string][]string{
	"id":          {"id", "kode", "code", "sku"},
	"name":        {"name", "nama", "nama paket", "package", "paket", "product", "produk", "layanan", "service"},
	"category":    {"category", "kategori", "jenis", "type"},
	"price":       {"price", "harga", "cost", "biaya"},
	"description": {"description", "deskripsi", "desc", "keterangan"},
	"image":       {"image", "gambar", "foto", "photo", "img"},
}

var fieldOrder = []string{"id", "name", "category", "price", "description", "image"}

// mapColumns resolves each catalog field to a column index (-1 when absent).
func mapColumns(columns []string) map[string]int {
	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = NormalizeKey(c)
	}
	used := make(map[int]bool)
	out := make(map[string]int, len(fieldOrder))

	// exact matches first so "name" never steals a "product id" column
	for _, field := range fieldOrder {
		out[field] = -1
		for _, alias := range fieldAliases[field] {
			if idx := indexOf(lowered, alias, used); idx >= 0 {
				out[field] = idx
				used[idx] = true
				break
			}
		}
	}
	for _, field := range fieldOrder {
		if out[field] >= 0 {
			continue
		}
	search:
		for _, alias := range fieldAliases[field] {
			for i, col := range lowered {
				if !used[i] && strings.Contains(col, alias) {
					out[field] = i
					used[i] = true
					break search
				}
			}
		}
	}
	return out
}

func indexOf(cols []string, want string, used map[int]bool) int {
	for i, c := range cols {
		if c == want && !used[i] {
			return i
		}
	}
	return -1
}

// FromTable converts a catalog spreadsheet (header + rows) into entries.
// Missing columns are tolerated as empty; rows without name and category are skipped.
func FromTable(columns []string, rows [][]string) []models.CatalogEntry {
	idx := mapColumns(columns)
	cell := func(row []string, field string) string {
		i := idx[field]
		if i < 0 || i >= len(row) {
			return ""
		}
		return defaultNormalizer.CleanText(row[i])
	}

	entries := make([]models.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		e := models.CatalogEntry{
			ID:          cell(row, "id"),
			Name:        cell(row, "name"),
			Category:    cell(row, "category"),
			Price:       defaultNormalizer.ParsePrice(cell(row, "price")),
			Description: cell(row, "description"),
			Image:       cell(row, "image"),
		}
		if e.Name == "" && e.Category == "" {
			continue
		}
		e.Key = ComposeKey(e.Category, e.Name)
		entries = append(entries, e)
	}
	return entries
}

// FromRecords converts database rows into entries using the same column rules.
func FromRecords(records []map[string]interface{}) []models.CatalogEntry {
	if len(records) == 0 {
		return nil
	}
	var columns []string
	for k := range records[0] {
		columns = append(columns, k)
	}
	// map iteration order is random; keep the mapping deterministic
	sort.Strings(columns)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = stringify(rec[col])
		}
		rows = append(rows, row)
	}
	return FromTable(columns, rows)
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
