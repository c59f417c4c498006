package ingest

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetKeywords rank workbook sheets that most likely hold transactions.
var SheetKeywords = []string{"database", "client", "trans", "order", "customer", "pelanggan", "data"}

// DecodeXLSX reads one sheet of a workbook held in memory.
func DecodeXLSX(data []byte, sheet string) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: no sheets found")
	}

	target, err := ChooseSheet(sheets, sheet)
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] Sheets found: %v, using %q", sheets, target)

	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", target, err)
	}
	return &Result{Grid: Grid(rows), Sheet: target}, nil
}

// ChooseSheet returns the requested sheet (case-insensitive), else the first
// sheet whose name contains one of SheetKeywords, else the first sheet.
func ChooseSheet(sheets []string, requested string) (string, error) {
	if requested != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, requested) {
				return s, nil
			}
		}
		return "", &SheetNotFoundError{Sheet: requested, Available: sheets}
	}
	for _, s := range sheets {
		lower := strings.ToLower(s)
		for _, k := range SheetKeywords {
			if strings.Contains(lower, k) {
				return s, nil
			}
		}
	}
	return sheets[0], nil
}
