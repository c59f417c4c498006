package analysis

import (
	"math"
	"strings"

	"apriori-backend/internal/models"
)

// ProfileTable profiles every column of t in order.
func ProfileTable(t Table) []models.ColumnProfile {
	types := ProfileColumns(t)
	out := make([]models.ColumnProfile, len(t.Columns))
	for i, name := range t.Columns {
		out[i] = profileColumn(t, i)
		out[i].Name = name
		out[i].Type = types[name]
	}
	return out
}

func profileColumn(t Table, col int) models.ColumnProfile {
	p := models.ColumnProfile{Rows: len(t.Rows)}
	counts := make(map[string]int)
	for _, row := range t.Rows {
		v := cellAt(row, col)
		if isNullCell(v) {
			continue
		}
		p.Filled++
		counts[strings.ToLower(v)]++
	}
	p.Distinct = len(counts)
	if p.Rows > 0 {
		p.FillRate = float64(p.Filled) / float64(p.Rows)
	}
	if p.Filled > 0 {
		p.Uniqueness = float64(p.Distinct) / float64(p.Filled)
	}
	p.Entropy = entropy(counts, p.Filled)
	p.LikelyID = p.Filled > 1 && p.Uniqueness > 0.95 && p.FillRate > 0.95
	return p
}

func isNullCell(v string) bool {
	switch strings.ToLower(v) {
	case "", "null", "none", "nan", "-":
		return true
	}
	return false
}

// entropy is the Shannon entropy of the value distribution in bits.
func entropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}
