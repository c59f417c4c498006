package ingest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodeCSVSniffsSemicolon(t *testing.T) {
	data := []byte("Client;Paket;Tambahan\nA01;Wedding Package;Prewedding Photo\n;;\nA02;Akad;\n")
	res, err := Decode("clients.csv", data, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Grid) != 3 {
		t.Fatalf("expected empty row stripped, got %d rows: %v", len(res.Grid), res.Grid)
	}
	if got := res.Grid[1][2]; got != "Prewedding Photo" {
		t.Fatalf("unexpected cell: %q", got)
	}
	if len(res.Grid[2]) != 3 {
		t.Fatalf("rows should be padded to width 3, got %v", res.Grid[2])
	}
}

func TestDecodeRejectsUnknownExtension(t *testing.T) {
	_, err := Decode("clients.pdf", []byte("%PDF"), "")
	var ue *UnsupportedFormatError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	_, err := Decode("empty.csv", []byte(" , ,\n\n"), "")
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestStripEmptyDropsColumns(t *testing.T) {
	g := StripEmpty(Grid{
		{"", "Client", "", "Paket"},
		{"", "A01", "", " Wedding "},
		{"", "", ""},
	})
	want := Grid{{"Client", "Paket"}, {"A01", "Wedding"}}
	if fmt.Sprint(g) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
}

func TestChooseSheet(t *testing.T) {
	cases := []struct {
		sheets    []string
		requested string
		want      string
	}{
		{[]string{"Schedule", "Database Client", "Notes"}, "", "Database Client"},
		{[]string{"Summary", "Orders 2024"}, "", "Orders 2024"},
		{[]string{"Sheet1", "Sheet2"}, "", "Sheet1"},
		{[]string{"Sheet1", "Notes"}, "notes", "Notes"},
	}
	for _, tc := range cases {
		got, err := ChooseSheet(tc.sheets, tc.requested)
		if err != nil {
			t.Fatalf("ChooseSheet(%v, %q): %v", tc.sheets, tc.requested, err)
		}
		if got != tc.want {
			t.Errorf("ChooseSheet(%v, %q) = %q, want %q", tc.sheets, tc.requested, got, tc.want)
		}
	}

	_, err := ChooseSheet([]string{"Sheet1"}, "missing")
	var se *SheetNotFoundError
	if !errors.As(err, &se) {
		t.Fatalf("expected SheetNotFoundError, got %v", err)
	}
}

func TestDecodeXLSXPrefersClientSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Database Client"); err != nil {
		t.Fatal(err)
	}
	rows := [][]interface{}{
		{"SCHEDULE RANAH CREATIVE"},
		{},
		{"No", "Nama Client", "Paket"},
		{1, "Rina", "Wedding Package"},
	}
	for i, r := range rows {
		row := r
		if err := f.SetSheetRow("Database Client", fmt.Sprintf("A%d", i+1), &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SetCellValue("Sheet1", "A1", "cover page"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	res, err := Decode("schedule.xlsx", buf.Bytes(), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Sheet != "Database Client" {
		t.Fatalf("expected client sheet, got %q", res.Sheet)
	}
	if len(res.Grid) != 3 {
		t.Fatalf("expected 3 non-empty rows, got %d: %v", len(res.Grid), res.Grid)
	}
	if res.Grid[2][1] != "Rina" || res.Grid[2][0] != "1" {
		t.Fatalf("unexpected data row: %v", res.Grid[2])
	}
}
