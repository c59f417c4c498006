package models

// UploadResponse is returned after a transaction file upload
type UploadResponse struct {
	Message     string            `json:"message"`
	Filename    string            `json:"filename"`
	Sheet       string            `json:"sheet,omitempty"`
	HeaderRow   int               `json:"header_row"`
	Rows        int               `json:"rows"`
	Columns     []string          `json:"columns"`
	ColumnTypes map[string]string `json:"column_types"`
	Profiles    []ColumnProfile   `json:"profiles,omitempty"`
}

// ColumnProfile summarises how a dataset column is filled
type ColumnProfile struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Rows       int     `json:"rows"`
	Filled     int     `json:"filled"`
	FillRate   float64 `json:"fill_rate"`
	Distinct   int     `json:"distinct"`
	Uniqueness float64 `json:"uniqueness"`
	Entropy    float64 `json:"entropy"`
	LikelyID   bool    `json:"likely_id"`
}

// CatalogUploadResponse is returned after the catalog is replaced
type CatalogUploadResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// AnalyzeRequest carries the mining thresholds. Absent values use the
// server defaults.
type AnalyzeRequest struct {
	MinSupport    *float64 `json:"min_support"`
	MinConfidence *float64 `json:"min_confidence"`
	MaxLen        int      `json:"max_len"`
}

// AnalyzeResponse is returned by /analyze
type AnalyzeResponse struct {
	RunID        string            `json:"run_id"`
	Message      string            `json:"message"`
	Shape        string            `json:"shape"`
	IDColumn     string            `json:"id_column"`
	ItemColumns  []string          `json:"item_columns"`
	Baskets      int               `json:"baskets"`
	Transactions int               `json:"transactions"`
	Dropped      int               `json:"dropped"`
	Rules        []AssociationRule `json:"rules"`
	Items        []string          `json:"items"`
}

// ImportCatalogRequest selects a table of the connected database
type ImportCatalogRequest struct {
	Table string `json:"table"`
	Limit int    `json:"limit"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Detail string `json:"detail"`
}
