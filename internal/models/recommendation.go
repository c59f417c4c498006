package models

// CatalogEntry is a known product or service package.
type CatalogEntry struct {
	Key         string  `json:"key"`
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// AssociationRule is an "if antecedents then consequents" rule mined from baskets.
type AssociationRule struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  float64  `json:"confidence"`
	Lift        float64  `json:"lift"`
}

// RecommendationResult is one ranked suggestion for a query.
type RecommendationResult struct {
	Item       string        `json:"item"`
	Confidence string        `json:"confidence"`
	Details    *CatalogEntry `json:"details,omitempty"`
}
