package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Heuristics gathers every tunable constant used to read messy spreadsheets
// and to match queries. Zero values are never used directly: start from
// DefaultHeuristics and override.
type Heuristics struct {
	// Header detection
	HeaderScanRows   int      `yaml:"header_scan_rows"`
	KeywordWeight    int      `yaml:"keyword_weight"`
	BothClassesBonus int      `yaml:"both_classes_bonus"`
	DensityBonus     int      `yaml:"density_bonus"`
	MinHeaderCells   int      `yaml:"min_header_cells"`
	MaxHeaderCells   int      `yaml:"max_header_cells"`
	IDKeywords       []string `yaml:"id_keywords"`
	ItemKeywords     []string `yaml:"item_keywords"`

	// Basket extraction
	MinComponentLen int      `yaml:"min_component_len"` // component tokens must be longer than this
	StopWords       []string `yaml:"stop_words"`
	ItemSeparators  string   `yaml:"item_separators"` // used only when the catalog is empty
	MinItemLen      int      `yaml:"min_item_len"`

	// Query matching
	Synonyms           map[string][]string `yaml:"synonyms"`
	ExclusionPrefixes  map[string][]string `yaml:"exclusion_prefixes"`
	MaxRecommendations int                 `yaml:"max_recommendations"`
}

// DefaultHeuristics returns the settings tuned on Indonesian event-vendor
// client sheets (mixed English/Indonesian headers).
func DefaultHeuristics() Heuristics {
	return Heuristics{
		HeaderScanRows:   15,
		KeywordWeight:    5,
		BothClassesBonus: 10,
		DensityBonus:     1,
		MinHeaderCells:   2,
		MaxHeaderCells:   20,
		IDKeywords: []string{
			"id", "trans", "transaction", "transaksi", "client", "klien",
			"customer", "pelanggan", "user", "code", "kode", "nama",
		},
		ItemKeywords: []string{
			"item", "product", "produk", "package", "paket", "event",
			"service", "layanan", "barang", "description", "deskripsi", "keterangan",
		},
		MinComponentLen: 3,
		StopWords: []string{
			"and", "dan", "etc", "dll", "the", "with", "dengan", "untuk", "atau", "for", "plus",
		},
		ItemSeparators: ";,/+&\n",
		MinItemLen:     3,
		Synonyms: map[string][]string{
			"wedding":    {"pernikahan"},
			"pernikahan": {"wedding"},
			"engagement": {"lamaran"},
			"lamaran":    {"engagement"},
		},
		ExclusionPrefixes: map[string][]string{
			"wedding": {"pre"},
		},
		MaxRecommendations: 5,
	}
}

// LoadHeuristics reads a YAML file over the defaults. Keys missing from the
// file keep their default value; an empty path returns the defaults.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return h, fmt.Errorf("read heuristics: %w", err)
	}
	if err := yaml.Unmarshal(b, &h); err != nil {
		return DefaultHeuristics(), fmt.Errorf("parse heuristics: %w", err)
	}
	return h, nil
}
