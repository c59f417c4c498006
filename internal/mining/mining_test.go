package mining

import (
	"errors"
	"math"
	"testing"

	"apriori-backend/internal/catalog"
	"apriori-backend/internal/models"
)

func weddingBaskets() [][]string {
	return [][]string{
		{"wedding package", "prewedding photo"},
		{"wedding package", "prewedding photo"},
		{"wedding package"},
	}
}

func weddingCatalog() *catalog.Catalog {
	return catalog.New([]models.CatalogEntry{
		{Name: "Wedding Package"},
		{Name: "Prewedding Photo"},
	})
}

func findRule(rules []models.AssociationRule, ante, cons string) *models.AssociationRule {
	for i, r := range rules {
		if len(r.Antecedents) == 1 && len(r.Consequents) == 1 && r.Antecedents[0] == ante && r.Consequents[0] == cons {
			return &rules[i]
		}
	}
	return nil
}

func TestMineWeddingScenario(t *testing.T) {
	res, err := Mine(weddingBaskets(), Params{MinSupport: 0.5, MinConfidence: 0.5}, weddingCatalog())
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if res.Baskets != 2 {
		t.Fatalf("single-item basket should be dropped, got %d baskets", res.Baskets)
	}
	r := findRule(res.Rules, "wedding package", "prewedding photo")
	if r == nil {
		t.Fatalf("expected wedding -> prewedding rule, got %+v", res.Rules)
	}
	// the single-item basket is dropped before mining, so both items appear in
	// every mined basket
	if math.Abs(r.Support-1.0) > 1e-9 || math.Abs(r.Confidence-1.0) > 1e-9 || math.Abs(r.Lift-1.0) > 1e-9 {
		t.Fatalf("unexpected metrics: %+v", r)
	}
}

func TestAssociationRulesOverAllBaskets(t *testing.T) {
	m := Encode(weddingBaskets())
	itemsets := FrequentItemsets(m, 0.5, 0)
	rules := AssociationRules(m, itemsets, 0.5)

	r := findRule(rules, "wedding package", "prewedding photo")
	if r == nil {
		t.Fatalf("expected rule, got %+v", rules)
	}
	if math.Abs(r.Support-2.0/3.0) > 1e-9 {
		t.Fatalf("support = %v, want 2/3", r.Support)
	}
	if math.Abs(r.Confidence-2.0/3.0) > 1e-9 {
		t.Fatalf("confidence = %v, want 2/3", r.Confidence)
	}

	back := findRule(rules, "prewedding photo", "wedding package")
	if back == nil || math.Abs(back.Confidence-1.0) > 1e-9 || math.Abs(back.Lift-1.0) > 1e-9 {
		t.Fatalf("unexpected reverse rule: %+v", back)
	}
	if rules[0].Confidence < rules[len(rules)-1].Confidence {
		t.Fatalf("rules not ranked by confidence: %+v", rules)
	}
}

func TestFrequentItemsetsThreeLevels(t *testing.T) {
	m := Encode([][]string{
		{"a", "b", "c"},
		{"a", "b", "c"},
		{"a", "b"},
		{"c", "d"},
	})
	sets := FrequentItemsets(m, 0.5, 0)
	counts := map[int]int{}
	for _, s := range sets {
		counts[len(s.Items)]++
	}
	// singles a,b,c ; pairs ab,ac,bc ; triple abc
	if counts[1] != 3 || counts[2] != 3 || counts[3] != 1 {
		t.Fatalf("unexpected itemset sizes %v: %+v", counts, sets)
	}

	limited := FrequentItemsets(m, 0.5, 2)
	for _, s := range limited {
		if len(s.Items) > 2 {
			t.Fatalf("max_len ignored: %+v", s)
		}
	}
}

func TestRulesAreDisjointAndCatalogValid(t *testing.T) {
	cat := catalog.New([]models.CatalogEntry{{Name: "A Pack"}, {Name: "B Pack"}, {Name: "C Pack"}})
	baskets := [][]string{
		{"a pack", "b pack", "noise"},
		{"a pack", "b pack", "noise"},
		{"a pack", "c pack", "noise"},
		{"b pack", "c pack"},
	}
	res, err := Mine(baskets, Params{MinSupport: 0.25, MinConfidence: 0}, cat)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rejected == 0 {
		t.Fatal("rules built on 'noise' should have been rejected")
	}
	for _, r := range res.Rules {
		seen := map[string]bool{}
		for _, a := range r.Antecedents {
			seen[a] = true
			if !cat.IsValid(a) {
				t.Fatalf("invalid antecedent in %+v", r)
			}
		}
		for _, c := range r.Consequents {
			if seen[c] {
				t.Fatalf("antecedents and consequents overlap: %+v", r)
			}
			if !cat.IsValid(c) {
				t.Fatalf("invalid consequent in %+v", r)
			}
		}
		if len(r.Antecedents) == 0 || len(r.Consequents) == 0 {
			t.Fatalf("empty side in %+v", r)
		}
	}
}

func TestMineEmptyResults(t *testing.T) {
	res, err := Mine([][]string{{"a"}, {"b"}, {"c", "c"}}, Params{MinSupport: 0.1, MinConfidence: 0.1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != MsgNoBaskets || len(res.Rules) != 0 || res.Rules == nil {
		t.Fatalf("expected no-basket result, got %+v", res)
	}

	res, err = Mine([][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}}, Params{MinSupport: 0.9, MinConfidence: 0.1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != MsgNoItemsets {
		t.Fatalf("expected no-itemset message, got %+v", res)
	}

	res, err = Mine([][]string{{"a", "b"}, {"a", "c"}, {"a", "d"}, {"a", "e"}}, Params{MinSupport: 0.2, MinConfidence: 0.9}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// b -> a has confidence 1 and survives; make sure the message reflects rules
	if len(res.Rules) == 0 {
		t.Fatalf("expected b->a style rules, got %+v", res)
	}

	res, err = Mine([][]string{{"a", "b"}, {"c", "d"}}, Params{MinSupport: 0.5, MinConfidence: 1}, catalog.New([]models.CatalogEntry{{Name: "zzz"}}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != MsgNoRules || res.Rejected == 0 {
		t.Fatalf("expected all rules rejected, got %+v", res)
	}
}

func TestParamsValidate(t *testing.T) {
	bad := []Params{
		{MinSupport: 0, MinConfidence: 0.5},
		{MinSupport: 1.5, MinConfidence: 0.5},
		{MinSupport: 0.5, MinConfidence: -0.1},
		{MinSupport: 0.5, MinConfidence: 1.1},
		{MinSupport: 0.5, MinConfidence: 0.5, MaxLen: -1},
	}
	for _, p := range bad {
		_, err := Mine(nil, p, nil)
		var pe *ParamError
		if !errors.As(err, &pe) {
			t.Errorf("Params %+v: expected ParamError, got %v", p, err)
		}
	}
	if err := (Params{MinSupport: 1, MinConfidence: 0}).Validate(); err != nil {
		t.Fatalf("boundary params rejected: %v", err)
	}
}
