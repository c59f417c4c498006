package mining

import (
	"fmt"
	"log"

	"apriori-backend/internal/catalog"
	"apriori-backend/internal/models"
)

// Messages for runs that finish without rules. They are not errors.
const (
	MsgNoBaskets  = "No patterns found. Make sure at least one customer has 2 or more different items to analyze."
	MsgNoItemsets = "No frequent itemsets found with this support level"
	MsgNoRules    = "No rules found with this confidence level"
)

// ParamError reports an out-of-range mining threshold.
type ParamError struct {
	Field string
	Value float64
}

func (e *ParamError) Error() string {
	switch e.Field {
	case "min_support":
		return fmt.Sprintf("min_support must be in (0, 1], got %v", e.Value)
	case "max_len":
		return fmt.Sprintf("max_len must be >= 0, got %v", e.Value)
	default:
		return fmt.Sprintf("%s must be in [0, 1], got %v", e.Field, e.Value)
	}
}

// Params are the mining thresholds.
type Params struct {
	MinSupport    float64 `json:"min_support"`
	MinConfidence float64 `json:"min_confidence"`
	MaxLen        int     `json:"max_len,omitempty"`
}

// Validate checks 0 < MinSupport <= 1 and 0 <= MinConfidence <= 1.
func (p Params) Validate() error {
	if !(p.MinSupport > 0 && p.MinSupport <= 1) {
		return &ParamError{Field: "min_support", Value: p.MinSupport}
	}
	if !(p.MinConfidence >= 0 && p.MinConfidence <= 1) {
		return &ParamError{Field: "min_confidence", Value: p.MinConfidence}
	}
	if p.MaxLen < 0 {
		return &ParamError{Field: "max_len", Value: float64(p.MaxLen)}
	}
	return nil
}

// Result is a finished mining run. Rules is never nil.
type Result struct {
	Rules    []models.AssociationRule `json:"rules"`
	Baskets  int                      `json:"baskets"`
	Itemsets int                      `json:"itemsets"`
	Rejected int                      `json:"rejected"`
	Message  string                   `json:"message"`
}

// Mine drops baskets with fewer than two distinct items, runs Apriori and
// keeps only rules whose every item passes the catalog gate.
func Mine(transactions [][]string, p Params, cat *catalog.Catalog) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Rules: []models.AssociationRule{}}

	baskets := Eligible(transactions)
	res.Baskets = len(baskets)
	if len(baskets) == 0 {
		res.Message = MsgNoBaskets
		return res, nil
	}

	m := Encode(baskets)
	itemsets := FrequentItemsets(m, p.MinSupport, p.MaxLen)
	res.Itemsets = len(itemsets)
	if len(itemsets) == 0 {
		res.Message = MsgNoItemsets
		return res, nil
	}

	for _, r := range AssociationRules(m, itemsets, p.MinConfidence) {
		if !ruleValid(r, cat) {
			res.Rejected++
			continue
		}
		res.Rules = append(res.Rules, r)
	}
	if res.Rejected > 0 {
		log.Printf("[DEBUG] dropped %d rules with items outside the catalog", res.Rejected)
	}
	if len(res.Rules) == 0 {
		res.Message = MsgNoRules
		return res, nil
	}
	res.Message = fmt.Sprintf("Analysis complete. Found %d rules.", len(res.Rules))
	return res, nil
}

// Eligible deduplicates each basket and keeps those with at least two items.
func Eligible(transactions [][]string) [][]string {
	var out [][]string
	for _, tx := range transactions {
		seen := make(map[string]bool, len(tx))
		var items []string
		for _, item := range tx {
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			items = append(items, item)
		}
		if len(items) >= 2 {
			out = append(out, items)
		}
	}
	return out
}

func ruleValid(r models.AssociationRule, cat *catalog.Catalog) bool {
	for _, item := range r.Antecedents {
		if !cat.IsValid(item) {
			return false
		}
	}
	for _, item := range r.Consequents {
		if !cat.IsValid(item) {
			return false
		}
	}
	return true
}
