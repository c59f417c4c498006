package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apriori-backend/internal/storage"
)

const clientsCSV = `Rekap Client Vendor,,
Client,Paket,Paket Tambahan
C1,Wedding Package,Prewedding Photo
C2,Wedding Package,Prewedding Photo
C3,Wedding Package,
`

const catalogDump = `INSERT INTO products VALUES
(1, 'Wedding Package', 'Full day', 25000000, 'w.jpg'),
(2, 'Prewedding Photo', 'Outdoor shoot', 5000000, NULL);`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMineThenRecommend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APRIORI_DATA_DIR", dir)
	dataset := writeFile(t, dir, "clients.csv", clientsCSV)
	dump := writeFile(t, dir, "products.sql", catalogDump)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "mine", dataset, "-q", "--catalog", dump,
		"--min-support", "0.5", "--min-confidence", "0.5", "--out", outDir)
	if err != nil {
		t.Fatalf("mine: %v\n%s", err, out)
	}
	for _, want := range []string{"Loaded 2 catalog entries", "Shape wide", "Analysis complete", "prewedding photo"} {
		if !strings.Contains(out, want) {
			t.Errorf("mine output missing %q:\n%s", want, out)
		}
	}

	store, err := storage.NewFileStore(outDir)
	if err != nil {
		t.Fatal(err)
	}
	rules, err := store.LoadRules()
	if err != nil || len(rules) == 0 {
		t.Fatalf("saved rules = %v, %v", rules, err)
	}

	out, err = execute(t, "recommend", "wedding", "--data", outDir)
	if err != nil {
		t.Fatalf("recommend: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1. Prewedding Photo  100%") {
		t.Errorf("recommend output:\n%s", out)
	}
}

func TestRecommendWithoutRules(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APRIORI_DATA_DIR", dir)

	out, err := execute(t, "recommend", "wedding")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !strings.Contains(out, "No rules available") {
		t.Errorf("output = %q", out)
	}
}

func TestMineErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APRIORI_DATA_DIR", dir)
	dataset := writeFile(t, dir, "clients.csv", clientsCSV)

	if _, err := execute(t, "mine", filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("missing dataset accepted")
	}
	if _, err := execute(t, "mine", dataset, "-q", "--min-support", "0"); err == nil {
		t.Error("zero support accepted")
	}
	if _, err := execute(t, "mine"); err == nil {
		t.Error("missing argument accepted")
	}
	bad := writeFile(t, dir, "notes.pdf", "hello")
	if _, err := execute(t, "mine", bad, "-q"); err == nil {
		t.Error("unsupported format accepted")
	}
}
