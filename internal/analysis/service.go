package analysis

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"apriori-backend/internal/catalog"
	"apriori-backend/internal/ingest"
	"apriori-backend/internal/mining"
	"apriori-backend/internal/models"
)

// Dataset is an uploaded transaction file after header detection.
type Dataset struct {
	FileName    string                 `json:"filename"`
	Sheet       string                 `json:"sheet,omitempty"`
	HeaderRow   int                    `json:"header_row"`
	HeaderScore int                    `json:"header_score"`
	ColumnTypes map[string]string      `json:"column_types"`
	Profiles    []models.ColumnProfile `json:"profiles"`
	Table       Table                  `json:"-"`
}

// Run is the outcome of one analysis over a dataset.
type Run struct {
	Schema     Schema
	Extraction Extraction
	Mining     *mining.Result
}

// Service turns uploaded files into datasets and datasets into rules.
type Service struct {
	h Heuristics
}

func NewService(h Heuristics) *Service {
	return &Service{h: h}
}

// Heuristics returns the settings the service was built with.
func (s *Service) Heuristics() Heuristics {
	return s.h
}

// PrepareDataset decodes a file, detects its header row and materialises the
// table. Only decoding can fail.
func (s *Service) PrepareDataset(filename string, data []byte, sheet string) (*Dataset, error) {
	res, err := ingest.Decode(filename, data, sheet)
	if err != nil {
		return nil, err
	}
	row, score := s.h.DetectHeader(res.Grid)
	t := Materialize(res.Grid, row)
	log.Printf("[DEBUG] %s: header row %d (score %d), %d columns, %d rows", filename, row, score, len(t.Columns), len(t.Rows))

	return &Dataset{
		FileName:    filename,
		Sheet:       res.Sheet,
		HeaderRow:   row,
		HeaderScore: score,
		ColumnTypes: ProfileColumns(t),
		Profiles:    ProfileTable(t),
		Table:       t,
	}, nil
}

// CatalogEntries reads a catalog upload: a SQL dump for .sql files, a
// spreadsheet with a detected header row otherwise.
func (s *Service) CatalogEntries(filename string, data []byte, sheet string) ([]models.CatalogEntry, error) {
	if strings.EqualFold(filepath.Ext(filename), ".sql") {
		return catalog.ParseSQLDump(data)
	}
	res, err := ingest.Decode(filename, data, sheet)
	if err != nil {
		return nil, err
	}
	row, _ := s.h.DetectHeader(res.Grid)
	t := Materialize(res.Grid, row)
	return catalog.FromTable(t.Columns, t.Rows), nil
}

// Analyze selects columns, extracts transactions and mines rules. The
// returned Run is complete; nothing is stored here.
func (s *Service) Analyze(ds *Dataset, cat *catalog.Catalog, p mining.Params) (*Run, error) {
	return s.AnalyzeProgress(ds, cat, p, nil)
}

// AnalyzeProgress is Analyze reporting extraction progress to prog.
func (s *Service) AnalyzeProgress(ds *Dataset, cat *catalog.Catalog, p mining.Params, prog Progress) (*Run, error) {
	if ds == nil {
		return nil, fmt.Errorf("analyze: no dataset")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	schema := s.h.SelectColumns(ds.Table)
	log.Printf("[DEBUG] id column %q, item columns %v", schema.IDName, schema.ItemNames)

	ex := s.h.ExtractProgress(ds.Table, schema, cat, prog)
	log.Printf("[DEBUG] shape %s: %d baskets, %d with items, %d dropped", ex.Shape, ex.Baskets, len(ex.Transactions), ex.Dropped)

	res, err := mining.Mine(ex.Transactions, p, cat)
	if err != nil {
		return nil, fmt.Errorf("mine rules: %w", err)
	}
	return &Run{Schema: schema, Extraction: ex, Mining: res}, nil
}

// ProfileColumns guesses a type for every column from a sample of its values.
func ProfileColumns(t Table) map[string]string {
	types := make(map[string]string, len(t.Columns))
	for i, name := range t.Columns {
		types[name] = inferColumnType(t.Rows, i)
	}
	return types
}

func inferColumnType(rows [][]string, colIndex int) string {
	sampleSize := 20
	if len(rows) < sampleSize {
		sampleSize = len(rows)
	}

	isInt, isFloat, isDate := true, true, true
	seen := 0
	for i := 0; i < sampleSize; i++ {
		val := cellAt(rows[i], colIndex)
		if val == "" {
			continue
		}
		seen++
		if _, err := strconv.Atoi(val); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			isFloat = false
		}
		if !isDateString(val) {
			isDate = false
		}
	}

	switch {
	case seen == 0:
		return "string"
	case isInt:
		return "int"
	case isFloat:
		return "float"
	case isDate:
		return "date"
	}
	return "string"
}

func isDateString(val string) bool {
	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"2006/01/02",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if _, err := time.Parse(f, val); err == nil {
			return true
		}
	}
	return false
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
