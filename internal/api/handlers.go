package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"apriori-backend/internal/analysis"
	"apriori-backend/internal/catalog"
	"apriori-backend/internal/ingest"
	"apriori-backend/internal/mining"
	"apriori-backend/internal/models"
	"apriori-backend/internal/service"
	"apriori-backend/internal/state"
)

// errBadRequest marks request problems found by the handlers themselves.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type Handler struct {
	Analysis    *analysis.Service
	Recommender *service.Recommender
	State       *state.AppState
	Persister   *state.Persister
	Defaults    mining.Params
	MaxUpload   int64

	// NewDataSource opens catalog databases; tests swap it out.
	NewDataSource func(kind string) (service.DataSource, error)

	dbMu      sync.Mutex
	CurrentDB service.DataSource // Active DB connection
}

func NewHandler(svc *analysis.Service, st *state.AppState, p *state.Persister, defaults mining.Params, maxUpload int64) *Handler {
	return &Handler{
		Analysis:      svc,
		Recommender:   service.NewRecommender(svc.Heuristics()),
		State:         st,
		Persister:     p,
		Defaults:      defaults,
		MaxUpload:     maxUpload,
		NewDataSource: service.NewDataSource,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/upload", h.Upload)
	r.Post("/upload-catalog", h.UploadCatalog)
	r.Get("/catalog", h.GetCatalog)
	r.Post("/analyze", h.Analyze)
	r.Get("/recommendations", h.GetRecommendations)
	r.Get("/rules", h.GetRules)
	r.Get("/items", h.GetItems)
	r.Get("/status", h.GetStatus)

	// DB Routes
	r.Post("/api/db/connect", h.ConnectDB)
	r.Get("/api/db/tables", h.ListTables)
	r.Post("/api/db/import-catalog", h.ImportCatalog)
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Uploads
// ============================================================================

// Upload stores a transaction file as the current dataset
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.readUpload(w, r)
	if err != nil {
		respondError(w, err)
		return
	}

	ds, err := h.Analysis.PrepareDataset(name, data, r.FormValue("sheet"))
	if err != nil {
		respondError(w, err)
		return
	}
	h.State.SetDataset(ds)
	log.Printf("[INFO] dataset %s loaded: %d rows, header row %d", name, len(ds.Table.Rows), ds.HeaderRow)

	respondJSON(w, http.StatusOK, models.UploadResponse{
		Message:     fmt.Sprintf("File '%s' uploaded successfully", name),
		Filename:    name,
		Sheet:       ds.Sheet,
		HeaderRow:   ds.HeaderRow,
		Rows:        len(ds.Table.Rows),
		Columns:     ds.Table.Columns,
		ColumnTypes: ds.ColumnTypes,
		Profiles:    ds.Profiles,
	})
}

// UploadCatalog replaces the catalog from a SQL dump or a spreadsheet
func (h *Handler) UploadCatalog(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.readUpload(w, r)
	if err != nil {
		respondError(w, err)
		return
	}

	entries, err := h.Analysis.CatalogEntries(name, data, r.FormValue("sheet"))
	if err != nil {
		respondError(w, err)
		return
	}
	if len(entries) == 0 {
		respondError(w, badRequest("no catalog entries found in %s", name))
		return
	}

	count := h.replaceCatalog(entries)
	respondJSON(w, http.StatusOK, models.CatalogUploadResponse{
		Message: fmt.Sprintf("Catalog updated with %d items", count),
		Count:   count,
	})
}

func (h *Handler) replaceCatalog(entries []models.CatalogEntry) int {
	cat := catalog.New(entries)
	h.State.SetCatalog(cat)
	h.Persister.SaveCatalog(cat.Entries())
	log.Printf("[INFO] catalog replaced: %d entries", cat.Len())
	return cat.Len()
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		return "", nil, badRequest("invalid upload: %v", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, badRequest("No file uploaded")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return filepath.Base(header.Filename), data, nil
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"catalog": h.State.Catalog().Entries(),
	})
}

// ============================================================================
// Analysis
// ============================================================================

// Analyze mines rules from the current dataset and swaps them in
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, badRequest("Invalid JSON"))
			return
		}
	}
	params := h.Defaults
	if req.MinSupport != nil {
		params.MinSupport = *req.MinSupport
	}
	if req.MinConfidence != nil {
		params.MinConfidence = *req.MinConfidence
	}
	if req.MaxLen != 0 {
		params.MaxLen = req.MaxLen
	}

	ds, err := h.State.Dataset()
	if err != nil {
		respondError(w, err)
		return
	}
	run, err := h.Analysis.Analyze(ds, h.State.Catalog(), params)
	if err != nil {
		respondError(w, err)
		return
	}

	info := state.NewRunInfo()
	info.FileName = ds.FileName
	info.Shape = string(run.Extraction.Shape)
	info.Transactions = len(run.Extraction.Transactions)
	info.Rules = len(run.Mining.Rules)
	info.MinSupport = params.MinSupport
	info.MinConfidence = params.MinConfidence
	info.Message = run.Mining.Message

	h.State.SetResults(run.Mining.Rules, run.Extraction.Items, &info)
	h.Persister.SaveResults(run.Mining.Rules, run.Extraction.Items)
	log.Printf("[INFO] run %s: %s", info.ID, run.Mining.Message)

	items := run.Extraction.Items
	if items == nil {
		items = []string{}
	}
	respondJSON(w, http.StatusOK, models.AnalyzeResponse{
		RunID:        info.ID,
		Message:      run.Mining.Message,
		Shape:        info.Shape,
		IDColumn:     run.Schema.IDName,
		ItemColumns:  run.Schema.ItemNames,
		Baskets:      run.Extraction.Baskets,
		Transactions: info.Transactions,
		Dropped:      run.Extraction.Dropped,
		Rules:        run.Mining.Rules,
		Items:        items,
	})
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("service")
	if query == "" {
		query = r.URL.Query().Get("query")
	}
	if strings.TrimSpace(query) == "" {
		respondError(w, badRequest("service query parameter is required"))
		return
	}
	rec := h.Recommender.Recommend(query, h.State.Rules(), h.State.Catalog())
	respondJSON(w, http.StatusOK, rec)
}

func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"rules": h.State.Rules()})
}

func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": h.State.Items()})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.State.Status())
}

// ============================================================================
// Catalog database
// ============================================================================

// ConnectDB establishes a database connection
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var config service.DataSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		respondError(w, badRequest("Invalid JSON"))
		return
	}
	ds, err := h.NewDataSource(config.Type)
	if err != nil {
		respondError(w, badRequest("%v", err))
		return
	}
	if err := ds.Connect(r.Context(), config); err != nil {
		respondError(w, fmt.Errorf("failed to connect: %w", err))
		return
	}

	h.dbMu.Lock()
	if h.CurrentDB != nil {
		h.CurrentDB.Close()
	}
	h.CurrentDB = ds
	h.dbMu.Unlock()

	respondJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// Close releases the catalog database connection, if any.
func (h *Handler) Close() {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	if h.CurrentDB != nil {
		h.CurrentDB.Close()
		h.CurrentDB = nil
	}
}

func (h *Handler) currentDB() service.DataSource {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	return h.CurrentDB
}

// ListTables returns tables from connected DB
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	db := h.currentDB()
	if db == nil {
		respondError(w, badRequest("No database connection"))
		return
	}
	tables, err := db.ListTables(r.Context())
	if err != nil {
		respondError(w, fmt.Errorf("list tables: %w", err))
		return
	}
	if tables == nil {
		tables = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

// ImportCatalog replaces the catalog with the rows of a database table
func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	db := h.currentDB()
	if db == nil {
		respondError(w, badRequest("No database connection"))
		return
	}
	var req models.ImportCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Table == "" {
		respondError(w, badRequest("table is required"))
		return
	}
	records, err := db.PreviewData(r.Context(), req.Table, req.Limit)
	if err != nil {
		respondError(w, fmt.Errorf("fetch %s: %w", req.Table, err))
		return
	}
	entries := catalog.FromRecords(records)
	if len(entries) == 0 {
		respondError(w, badRequest("table %s has no usable catalog rows", req.Table))
		return
	}
	count := h.replaceCatalog(entries)
	respondJSON(w, http.StatusOK, models.CatalogUploadResponse{
		Message: fmt.Sprintf("Catalog updated with %d items from %s", count, req.Table),
		Count:   count,
	})
}

// ============================================================================
// Helpers
// ============================================================================

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %v", err)
	}
	respondJSON(w, status, models.ErrorResponse{Detail: err.Error()})
}

// statusFor maps caller mistakes to 400 and everything else to 500.
func statusFor(err error) int {
	var (
		unsupported *ingest.UnsupportedFormatError
		noSheet     *ingest.SheetNotFoundError
		dump        *catalog.DumpError
		param       *mining.ParamError
	)
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, state.ErrNoDataset),
		errors.Is(err, ingest.ErrEmpty),
		errors.As(err, &unsupported),
		errors.As(err, &noSheet),
		errors.As(err, &dump),
		errors.As(err, &param):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
