package state

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"apriori-backend/internal/analysis"
	"apriori-backend/internal/catalog"
	"apriori-backend/internal/models"
)

// ErrNoDataset is returned when an analysis is requested before any upload.
var ErrNoDataset = errors.New("no dataset uploaded. Upload a transaction file first")

// RunInfo describes the last successful analysis.
type RunInfo struct {
	ID            string    `json:"run_id"`
	At            time.Time `json:"at"`
	FileName      string    `json:"filename"`
	Shape         string    `json:"shape"`
	Transactions  int       `json:"transactions"`
	Rules         int       `json:"rules"`
	MinSupport    float64   `json:"min_support"`
	MinConfidence float64   `json:"min_confidence"`
	Message       string    `json:"message"`
}

// NewRunInfo stamps a run with a fresh id and the current time.
func NewRunInfo() RunInfo {
	return RunInfo{ID: uuid.NewString(), At: time.Now().UTC()}
}

// Status is a point-in-time summary of the state.
type Status struct {
	DatasetLoaded   bool     `json:"dataset_loaded"`
	FileName        string   `json:"filename,omitempty"`
	Rows            int      `json:"rows"`
	RulesCount      int      `json:"rules_count"`
	ItemsCount      int      `json:"items_count"`
	CatalogCount    int      `json:"catalog_count"`
	StorageDegraded bool     `json:"storage_degraded"`
	LastRun         *RunInfo `json:"last_run"`
}

// AppState holds the application state shared by all handlers. Setters
// replace whole values; getters hand out the held value, which callers must
// treat as read-only.
type AppState struct {
	mu sync.RWMutex

	dataset *analysis.Dataset
	catalog *catalog.Catalog
	rules   []models.AssociationRule
	items   []string
	lastRun *RunInfo

	degraded bool
}

func New() *AppState {
	return &AppState{
		catalog: catalog.New(nil),
		rules:   []models.AssociationRule{},
		items:   []string{},
	}
}

// SetDataset replaces the uploaded dataset
func (s *AppState) SetDataset(ds *analysis.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
}

// Dataset returns the current dataset or ErrNoDataset
func (s *AppState) Dataset() (*analysis.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, ErrNoDataset
	}
	return s.dataset, nil
}

// SetCatalog replaces the catalog wholesale
func (s *AppState) SetCatalog(c *catalog.Catalog) {
	if c == nil {
		c = catalog.New(nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
}

func (s *AppState) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// SetResults swaps in the outcome of a finished analysis in one step.
func (s *AppState) SetResults(rules []models.AssociationRule, items []string, run *RunInfo) {
	if rules == nil {
		rules = []models.AssociationRule{}
	}
	if items == nil {
		items = []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules
	s.items = items
	s.lastRun = run
}

func (s *AppState) Rules() []models.AssociationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

func (s *AppState) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

func (s *AppState) LastRun() *RunInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// SetDegraded records whether the last write to durable storage failed
func (s *AppState) SetDegraded(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = v
}

func (s *AppState) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func (s *AppState) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		DatasetLoaded:   s.dataset != nil,
		RulesCount:      len(s.rules),
		ItemsCount:      len(s.items),
		CatalogCount:    s.catalog.Len(),
		StorageDegraded: s.degraded,
		LastRun:         s.lastRun,
	}
	if s.dataset != nil {
		st.FileName = s.dataset.FileName
		st.Rows = len(s.dataset.Table.Rows)
	}
	return st
}
