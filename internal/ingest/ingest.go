// Package ingest decodes uploaded files into a raw grid of text cells.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Grid is a raw table with no header assumption. A cell whose trimmed text is
// empty is treated as null.
type Grid [][]string

// ErrEmpty is returned when a file decodes to no non-empty cell.
var ErrEmpty = errors.New("file contains no data")

// UnsupportedFormatError is returned for file types that cannot be decoded.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: expected .csv, .tsv or .xlsx", filepath.Ext(e.Filename))
}

// SheetNotFoundError is returned when a requested sheet does not exist.
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet '%s' not found. Available sheets: %s", e.Sheet, strings.Join(e.Available, ", "))
}

// Result is a decoded upload.
type Result struct {
	Grid  Grid
	Sheet string
}

// Decode picks a decoder from the file extension. sheet selects a workbook
// sheet by name; empty means "choose by keyword".
func Decode(filename string, data []byte, sheet string) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		var g Grid
		g, err = DecodeCSV(data, sniffDelimiter(filename, data))
		res = &Result{Grid: g}
	case ".xlsx", ".xlsm":
		res, err = DecodeXLSX(data, sheet)
	default:
		return nil, &UnsupportedFormatError{Filename: filename}
	}
	if err != nil {
		return nil, err
	}
	res.Grid = StripEmpty(res.Grid)
	if len(res.Grid) == 0 {
		return nil, ErrEmpty
	}
	return res, nil
}

// IsSupported reports whether Decode can handle the file name.
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// StripEmpty drops fully empty rows and columns and pads rows to equal width.
func StripEmpty(g Grid) Grid {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	usedCol := make([]bool, width)
	var rows Grid
	for _, row := range g {
		empty := true
		for j, v := range row {
			if strings.TrimSpace(v) != "" {
				usedCol[j] = true
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	keep := make([]int, 0, width)
	for j, used := range usedCol {
		if used {
			keep = append(keep, j)
		}
	}
	out := make(Grid, len(rows))
	for i, row := range rows {
		cells := make([]string, len(keep))
		for k, j := range keep {
			if j < len(row) {
				cells[k] = strings.TrimSpace(row[j])
			}
		}
		out[i] = cells
	}
	return out
}
