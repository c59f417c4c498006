package service

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"apriori-backend/internal/analysis"
	"apriori-backend/internal/catalog"
	"apriori-backend/internal/models"
)

// MsgNoRules is returned in place of recommendations before any analysis.
const MsgNoRules = "No rules available. Run analysis first."

// Recommendation is the answer to one service query.
type Recommendation struct {
	Query       string                        `json:"service"`
	Details     *models.CatalogEntry          `json:"details"`
	Results     []models.RecommendationResult `json:"recommendations"`
	Suggestions []string                      `json:"suggestions,omitempty"`
	Message     string                        `json:"message,omitempty"`
}

// Recommender ranks rule consequents for a free-text service query.
type Recommender struct {
	synonyms   map[string][]string
	exclusions map[string][]string
	limit      int
	fuzzy      *FuzzyMatcher
}

func NewRecommender(h analysis.Heuristics) *Recommender {
	limit := h.MaxRecommendations
	if limit <= 0 {
		limit = 5
	}
	return &Recommender{
		synonyms:   h.Synonyms,
		exclusions: h.ExclusionPrefixes,
		limit:      limit,
		fuzzy:      NewFuzzyMatcher(),
	}
}

type candidate struct {
	item       string
	confidence float64
	details    *models.CatalogEntry
}

// Recommend never fails: missing rules or matches give an empty list.
func (r *Recommender) Recommend(query string, rules []models.AssociationRule, cat *catalog.Catalog) Recommendation {
	out := Recommendation{Query: query, Results: []models.RecommendationResult{}}
	if len(rules) == 0 {
		out.Message = MsgNoRules
		return out
	}

	keywords := r.Keywords(query)
	matched := r.matchCatalog(keywords, cat)
	matchedKeys := make(map[string]bool, len(matched))
	for _, e := range matched {
		matchedKeys[catalog.NormalizeKey(e.Key)] = true
	}

	var cands []candidate
	seen := make(map[string]bool)
	for _, rule := range rules {
		if !r.relevant(rule, keywords, matchedKeys) {
			continue
		}
		for _, cons := range rule.Consequents {
			text := strings.TrimSpace(cons)
			if isNumber(text) || utf8.RuneCountInString(text) < 3 {
				continue
			}
			c := candidate{item: text, confidence: rule.Confidence, details: cat.Details(text)}
			if c.details != nil {
				c.item = c.details.Key
			}
			if seen[strings.ToLower(c.item)] {
				continue
			}
			seen[strings.ToLower(c.item)] = true
			cands = append(cands, c)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].confidence > cands[j].confidence
	})
	if len(cands) > r.limit {
		cands = cands[:r.limit]
	}
	for _, c := range cands {
		out.Results = append(out.Results, models.RecommendationResult{
			Item:       c.item,
			Confidence: FormatConfidence(c.confidence),
			Details:    c.details,
		})
	}

	out.Details = cat.Details(query)
	if out.Details == nil && len(matched) > 0 {
		e := matched[0]
		out.Details = &e
	}
	if len(matched) == 0 && !cat.Empty() {
		out.Suggestions = r.fuzzy.Suggest(query, catalogNames(cat), 0.3, 3)
	}
	if len(out.Results) == 0 {
		out.Message = "No recommendations found for this service"
	}
	return out
}

// Keywords returns the lower-cased query followed by its synonyms.
func (r *Recommender) Keywords(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	out := []string{q}
	for _, s := range r.synonyms[q] {
		if s = strings.ToLower(s); s != q {
			out = append(out, s)
		}
	}
	return out
}

// MatchesWord reports whether text contains keyword as a whole word that is
// not directly preceded by one of the keyword's exclusion prefixes.
func (r *Recommender) MatchesWord(text, keyword string) bool {
	text, keyword = strings.ToLower(text), strings.ToLower(keyword)
	if keyword == "" {
		return false
	}
	for from := 0; from <= len(text)-len(keyword); {
		i := strings.Index(text[from:], keyword)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(keyword)
		if isBoundary(text, start, end) && !r.excluded(text[:start], keyword) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func (r *Recommender) excluded(before, keyword string) bool {
	before = strings.TrimRight(before, " -_")
	for _, p := range r.exclusions[keyword] {
		if strings.HasSuffix(before, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func (r *Recommender) matchCatalog(keywords []string, cat *catalog.Catalog) []models.CatalogEntry {
	var out []models.CatalogEntry
	for _, e := range cat.Entries() {
		for _, k := range keywords {
			if r.MatchesWord(e.Name, k) || r.MatchesWord(e.Description, k) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (r *Recommender) relevant(rule models.AssociationRule, keywords []string, matchedKeys map[string]bool) bool {
	for _, ant := range rule.Antecedents {
		if matchedKeys[catalog.NormalizeKey(ant)] {
			return true
		}
		for _, k := range keywords {
			if r.MatchesWord(ant, k) {
				return true
			}
		}
	}
	return false
}

// FormatConfidence renders a confidence ratio as a whole percentage.
func FormatConfidence(c float64) string {
	return strconv.Itoa(int(math.Round(c*100))) + "%"
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func catalogNames(cat *catalog.Catalog) []string {
	entries := cat.Entries()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Key)
	}
	return names
}
