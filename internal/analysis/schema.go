package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"apriori-backend/internal/ingest"
)

// Table is a grid re-read with a detected header row.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"-"`
}

// Schema says which columns identify a customer and which hold item text.
type Schema struct {
	IDColumn    int      `json:"id_column_index"`
	IDName      string   `json:"id_column"`
	ItemColumns []int    `json:"item_column_indexes"`
	ItemNames   []string `json:"item_columns"`
}

// tokenizeHeader lower-cases a header cell and splits it on whitespace,
// '/', '_', parentheses and light punctuation.
func tokenizeHeader(cell string) []string {
	return strings.FieldsFunc(strings.ToLower(cell), func(r rune) bool {
		switch r {
		case '/', '_', '(', ')', '-', '.', ':', '#':
			return true
		}
		return unicode.IsSpace(r)
	})
}

func hasKeywordToken(tokens []string, keywords []string) bool {
	for _, tok := range tokens {
		for _, k := range keywords {
			if tok == k {
				return true
			}
		}
	}
	return false
}

// ScoreHeaderRow scores one candidate header row.
func (h Heuristics) ScoreHeaderRow(row []string) int {
	score, nonNull := 0, 0
	var sawID, sawItem bool
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		nonNull++
		tokens := tokenizeHeader(cell)
		if hasKeywordToken(tokens, h.IDKeywords) {
			score += h.KeywordWeight
			sawID = true
		}
		if hasKeywordToken(tokens, h.ItemKeywords) {
			score += h.KeywordWeight
			sawItem = true
		}
	}
	if sawID && sawItem {
		score += h.BothClassesBonus
	}
	if nonNull >= h.MinHeaderCells && nonNull <= h.MaxHeaderCells {
		score += h.DensityBonus
	}
	return score
}

// DetectHeader returns the index of the best-scoring row among the first
// HeaderScanRows. Ties keep the lowest index; without a positive score the
// first row is the header.
func (h Heuristics) DetectHeader(grid ingest.Grid) (row, score int) {
	limit := h.HeaderScanRows
	if limit <= 0 || limit > len(grid) {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		if s := h.ScoreHeaderRow(grid[i]); s > score {
			row, score = i, s
		}
	}
	return row, score
}

// Materialize re-reads the grid using headerRow as the header. Rows above
// the header are discarded; fully empty rows and columns are dropped.
func Materialize(grid ingest.Grid, headerRow int) Table {
	if headerRow < 0 || headerRow >= len(grid) {
		return Table{}
	}
	width := 0
	for _, r := range grid[headerRow:] {
		if len(r) > width {
			width = len(r)
		}
	}
	cell := func(r []string, j int) string {
		if j < len(r) {
			return strings.TrimSpace(r[j])
		}
		return ""
	}

	var data [][]string
	for _, r := range grid[headerRow+1:] {
		row := make([]string, width)
		empty := true
		for j := 0; j < width; j++ {
			row[j] = cell(r, j)
			if row[j] != "" {
				empty = false
			}
		}
		if !empty {
			data = append(data, row)
		}
	}

	header := grid[headerRow]
	var keep []int
	for j := 0; j < width; j++ {
		hasData := false
		for _, r := range data {
			if r[j] != "" {
				hasData = true
				break
			}
		}
		if hasData || (len(data) == 0 && cell(header, j) != "") {
			keep = append(keep, j)
		}
	}

	t := Table{Columns: make([]string, 0, len(keep)), Rows: make([][]string, len(data))}
	seen := make(map[string]int)
	for _, j := range keep {
		name := cell(header, j)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}
		seen[strings.ToLower(name)]++
		if n := seen[strings.ToLower(name)]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		t.Columns = append(t.Columns, name)
	}
	for i, r := range data {
		row := make([]string, len(keep))
		for k, j := range keep {
			row[k] = r[j]
		}
		t.Rows[i] = row
	}
	return t
}

// SelectColumns picks the identifier column and the item columns by name.
func (h Heuristics) SelectColumns(t Table) Schema {
	s := Schema{IDColumn: -1}
	// whole tokens first so "Paket Video" never wins over "Client ID"
	for i, c := range t.Columns {
		if hasKeywordToken(tokenizeHeader(c), h.IDKeywords) {
			s.IDColumn = i
			break
		}
	}
	if s.IDColumn < 0 {
		for i, c := range t.Columns {
			if containsAny(strings.ToLower(c), h.IDKeywords) {
				s.IDColumn = i
				break
			}
		}
	}
	if s.IDColumn < 0 {
		s.IDColumn = 0
	}

	for i, c := range t.Columns {
		if i != s.IDColumn && containsAny(strings.ToLower(c), h.ItemKeywords) {
			s.ItemColumns = append(s.ItemColumns, i)
		}
	}
	if len(s.ItemColumns) == 0 {
		fallback := 0
		for i := range t.Columns {
			if i != s.IDColumn {
				fallback = i
				break
			}
		}
		s.ItemColumns = []int{fallback}
	}

	if s.IDColumn < len(t.Columns) {
		s.IDName = t.Columns[s.IDColumn]
	}
	for _, i := range s.ItemColumns {
		if i < len(t.Columns) {
			s.ItemNames = append(s.ItemNames, t.Columns[i])
		}
	}
	return s
}

// Infer detects the header, re-materialises the table and selects columns.
// It never fails: a grid with no keyword evidence uses its first row as the
// header, its first column as identifier and its second as items.
func (h Heuristics) Infer(grid ingest.Grid) (Table, Schema) {
	row, _ := h.DetectHeader(grid)
	t := Materialize(grid, row)
	return t, h.SelectColumns(t)
}
