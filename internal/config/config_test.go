package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APRIORI_PORT", "")
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "8000" || c.Store != "file" || c.MinSupport != 0.1 || c.MinConfidence != 0.5 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.SQLitePath != filepath.Join("./data", "apriori.db") {
		t.Fatalf("sqlite path = %q", c.SQLitePath)
	}
	if c.MaxUploadBytes() != 50<<20 {
		t.Fatalf("upload limit = %d", c.MaxUploadBytes())
	}
	if len(c.AllowedOrigins) == 0 {
		t.Fatal("no default origins")
	}
}

func TestLoadEnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apriori.yaml")
	yml := "store: sqlite\nmin_support: 0.3\ndata_dir: /tmp/apriori\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APRIORI_MIN_CONFIDENCE", "0.8")
	t.Setenv("APRIORI_PORT", "")
	t.Setenv("PORT", "9090")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Store != "sqlite" || c.MinSupport != 0.3 || c.MinConfidence != 0.8 {
		t.Fatalf("config = %+v", c)
	}
	if c.Port != "9090" {
		t.Fatalf("plain PORT not honoured: %q", c.Port)
	}
	if c.SQLitePath != filepath.Join("/tmp/apriori", "apriori.db") {
		t.Fatalf("sqlite path = %q", c.SQLitePath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APRIORI_STORE", "redis")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown store")
	}
	t.Setenv("APRIORI_STORE", "file")
	t.Setenv("APRIORI_MIN_SUPPORT", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero support")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
