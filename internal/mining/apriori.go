// Package mining finds frequent itemsets in baskets and derives association rules.
package mining

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"apriori-backend/internal/models"
)

// supportEpsilon absorbs float noise when comparing a support ratio to a threshold.
const supportEpsilon = 1e-9

// Matrix is a one-hot encoding of baskets over a sorted item universe.
type Matrix struct {
	Items []string
	Rows  [][]bool
}

// Itemset is a frequent set of item indexes into Matrix.Items.
type Itemset struct {
	Items   []int
	Count   int
	Support float64
}

// Encode one-hot encodes transactions. Items are sorted so that the same
// baskets always produce the same matrix.
func Encode(transactions [][]string) Matrix {
	set := make(map[string]bool)
	for _, tx := range transactions {
		for _, item := range tx {
			set[item] = true
		}
	}
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	pos := make(map[string]int, len(items))
	for i, item := range items {
		pos[item] = i
	}

	rows := make([][]bool, len(transactions))
	for r, tx := range transactions {
		row := make([]bool, len(items))
		for _, item := range tx {
			row[pos[item]] = true
		}
		rows[r] = row
	}
	return Matrix{Items: items, Rows: rows}
}

// FrequentItemsets runs level-wise Apriori. maxLen <= 0 means no size limit.
// The result is ordered by size, then by item indexes.
func FrequentItemsets(m Matrix, minSupport float64, maxLen int) []Itemset {
	n := len(m.Rows)
	if n == 0 || len(m.Items) == 0 {
		return nil
	}
	frequent := func(count int) bool {
		return float64(count)/float64(n)+supportEpsilon >= minSupport
	}

	var all []Itemset
	var level [][]int
	for j := range m.Items {
		count := 0
		for _, row := range m.Rows {
			if row[j] {
				count++
			}
		}
		if frequent(count) {
			all = append(all, Itemset{Items: []int{j}, Count: count, Support: float64(count) / float64(n)})
			level = append(level, []int{j})
		}
	}

	for k := 2; len(level) > 1 && (maxLen <= 0 || k <= maxLen); k++ {
		known := make(map[string]bool, len(level))
		for _, s := range level {
			known[setKey(s)] = true
		}
		var next [][]int
		for a := 0; a < len(level); a++ {
			for b := a + 1; b < len(level); b++ {
				cand, ok := join(level[a], level[b])
				if !ok || !allSubsetsKnown(cand, known) {
					continue
				}
				count := 0
				for _, row := range m.Rows {
					if containsAll(row, cand) {
						count++
					}
				}
				if frequent(count) {
					all = append(all, Itemset{Items: cand, Count: count, Support: float64(count) / float64(n)})
					next = append(next, cand)
				}
			}
		}
		level = next
	}
	return all
}

// AssociationRules derives every rule A -> I\A from frequent itemsets whose
// confidence clears minConfidence. Rules are ranked by confidence, then lift,
// then support, all descending.
func AssociationRules(m Matrix, itemsets []Itemset, minConfidence float64) []models.AssociationRule {
	support := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		support[setKey(s.Items)] = s.Support
	}

	var rules []models.AssociationRule
	for _, s := range itemsets {
		k := len(s.Items)
		if k < 2 {
			continue
		}
		for mask := 1; mask < (1<<k)-1; mask++ {
			var ante, cons []int
			for i, item := range s.Items {
				if mask&(1<<i) != 0 {
					ante = append(ante, item)
				} else {
					cons = append(cons, item)
				}
			}
			anteSup, ok1 := support[setKey(ante)]
			consSup, ok2 := support[setKey(cons)]
			if !ok1 || !ok2 || anteSup == 0 {
				continue
			}
			confidence := s.Support / anteSup
			if confidence+supportEpsilon < minConfidence {
				continue
			}
			lift := 0.0
			if consSup > 0 {
				lift = confidence / consSup
			}
			rules = append(rules, models.AssociationRule{
				Antecedents: names(m, ante),
				Consequents: names(m, cons),
				Support:     s.Support,
				Confidence:  math.Min(confidence, 1),
				Lift:        lift,
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Lift != b.Lift {
			return a.Lift > b.Lift
		}
		if a.Support != b.Support {
			return a.Support > b.Support
		}
		ka := strings.Join(a.Antecedents, ",") + "=>" + strings.Join(a.Consequents, ",")
		kb := strings.Join(b.Antecedents, ",") + "=>" + strings.Join(b.Consequents, ",")
		return ka < kb
	})
	return rules
}

// join merges two sorted k-itemsets sharing their first k-1 items.
func join(a, b []int) ([]int, bool) {
	k := len(a)
	for i := 0; i < k-1; i++ {
		if a[i] != b[i] {
			return nil, false
		}
	}
	if a[k-1] == b[k-1] {
		return nil, false
	}
	out := make([]int, k+1)
	copy(out, a)
	if a[k-1] < b[k-1] {
		out[k] = b[k-1]
	} else {
		out[k-1], out[k] = b[k-1], a[k-1]
	}
	return out, true
}

// allSubsetsKnown is the Apriori prune: every (k-1)-subset must be frequent.
func allSubsetsKnown(cand []int, known map[string]bool) bool {
	sub := make([]int, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, v := range cand {
			if i != skip {
				sub = append(sub, v)
			}
		}
		if !known[setKey(sub)] {
			return false
		}
	}
	return true
}

func containsAll(row []bool, items []int) bool {
	for _, j := range items {
		if !row[j] {
			return false
		}
	}
	return true
}

func setKey(items []int) string {
	var b strings.Builder
	for i, v := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

func names(m Matrix, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = m.Items[j]
	}
	return out
}
