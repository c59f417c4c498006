package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"apriori-backend/internal/analysis"
	"apriori-backend/internal/mining"
	"apriori-backend/internal/models"
	"apriori-backend/internal/service"
	"apriori-backend/internal/state"
	"apriori-backend/internal/storage"
)

const clientsCSV = `Rekap Client Vendor,,
Client,Paket,Paket Tambahan
C1,Wedding Package,Prewedding Photo
C2,Wedding Package,Prewedding Photo
C3,Wedding Package,
`

const catalogDump = `INSERT INTO products VALUES
(1, 'Wedding Package', 'Full day', 25000000, 'w.jpg'),
(2, 'Prewedding Photo', 'Outdoor shoot', 5000000, NULL);`

type testServer struct {
	handler *Handler
	router  chi.Router
	store   storage.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st := state.New()
	h := NewHandler(analysis.NewService(analysis.DefaultHeuristics()), st, state.NewPersister(store, st),
		mining.Params{MinSupport: 0.1, MinConfidence: 0.5}, 1<<20)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &testServer{handler: h, router: r, store: store}
}

func (s *testServer) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestEndToEndWeddingScenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "/upload-catalog", "products.sql", catalogDump)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog upload: %d %s", rec.Code, rec.Body)
	}
	var cat models.CatalogUploadResponse
	decode(t, rec, &cat)
	if cat.Count != 2 {
		t.Fatalf("catalog count = %d", cat.Count)
	}

	rec = s.upload(t, "/upload", "clients.csv", clientsCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	var up models.UploadResponse
	decode(t, rec, &up)
	if up.HeaderRow != 1 || up.Rows != 3 || len(up.Columns) != 3 {
		t.Fatalf("upload response = %+v", up)
	}
	if len(up.Profiles) != 3 || !up.Profiles[0].LikelyID || up.Profiles[2].Filled != 2 {
		t.Fatalf("profiles = %+v", up.Profiles)
	}

	rec = s.do(t, http.MethodPost, "/analyze", `{"min_support": 0.5, "min_confidence": 0.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body)
	}
	var an models.AnalyzeResponse
	decode(t, rec, &an)
	if an.RunID == "" || an.Shape != "wide" || an.Transactions != 3 || len(an.Rules) == 0 {
		t.Fatalf("analyze response = %+v", an)
	}
	if an.IDColumn != "Client" || len(an.ItemColumns) != 2 {
		t.Fatalf("columns = %q %v", an.IDColumn, an.ItemColumns)
	}

	rec = s.do(t, http.MethodGet, "/recommendations?service=wedding", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendations: %d %s", rec.Code, rec.Body)
	}
	var out service.Recommendation
	decode(t, rec, &out)
	if len(out.Results) != 1 || out.Results[0].Item != "Prewedding Photo" || out.Results[0].Confidence != "100%" {
		t.Fatalf("recommendations = %+v", out.Results)
	}
	if out.Results[0].Details == nil || out.Results[0].Details.Price != 5000000 {
		t.Fatalf("details = %+v", out.Results[0].Details)
	}

	var st state.Status
	decode(t, s.do(t, http.MethodGet, "/status", ""), &st)
	if !st.DatasetLoaded || st.RulesCount != len(an.Rules) || st.CatalogCount != 2 || st.LastRun == nil || st.StorageDegraded {
		t.Fatalf("status = %+v", st)
	}

	saved, err := s.store.LoadRules()
	if err != nil || len(saved) != len(an.Rules) {
		t.Fatalf("rules not persisted: %d, %v", len(saved), err)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/analyze", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("analyze without dataset: %d", rec.Code)
	}

	if rec := s.upload(t, "/upload", "clients.csv", clientsCSV); rec.Code != http.StatusOK {
		t.Fatalf("upload: %d", rec.Code)
	}
	for _, body := range []string{`{"min_support": 0}`, `{"min_support": 1.5}`, `{"min_confidence": 2}`, `{bad json`} {
		if rec := s.do(t, http.MethodPost, "/analyze", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status %d, want 400", body, rec.Code)
		}
	}

	// empty body uses the server defaults
	if rec := s.do(t, http.MethodPost, "/analyze", ""); rec.Code != http.StatusOK {
		t.Fatalf("defaults: %d %s", rec.Code, rec.Body)
	}
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		path, name, content string
	}{
		{"/upload", "notes.pdf", "%PDF"},
		{"/upload", "empty.csv", " , \n,,\n"},
		{"/upload-catalog", "dump.sql", "CREATE TABLE x (id int);"},
		{"/upload-catalog", "catalog.csv", "foo,bar\n"},
	}
	for _, tt := range tests {
		rec := s.upload(t, tt.path, tt.name, tt.content)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s: status %d, want 400 (%s)", tt.path, tt.name, rec.Code, rec.Body)
		}
		var e models.ErrorResponse
		decode(t, rec, &e)
		if e.Detail == "" {
			t.Errorf("%s: empty error detail", tt.name)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart upload: %d", rec.Code)
	}
}

func TestUploadCatalogFromSpreadsheet(t *testing.T) {
	s := newTestServer(t)
	csv := "Daftar Paket,,\nNama Paket,Kategori,Harga\nGold,Wedding,\"Rp 25.000.000\"\nSilver,Wedding,15000000\n"
	rec := s.upload(t, "/upload-catalog", "catalog.csv", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Catalog []models.CatalogEntry `json:"catalog"`
	}
	decode(t, s.do(t, http.MethodGet, "/catalog", ""), &body)
	if len(body.Catalog) != 2 || body.Catalog[0].Key != "Wedding Gold" || body.Catalog[0].Price != 25000000 {
		t.Fatalf("catalog = %+v", body.Catalog)
	}
}

func TestRecommendationsWithoutRules(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/recommendations?query=wedding", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out service.Recommendation
	decode(t, rec, &out)
	if out.Message != service.MsgNoRules || len(out.Results) != 0 {
		t.Fatalf("got %+v", out)
	}
	if rec := s.do(t, http.MethodGet, "/recommendations", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing query: %d", rec.Code)
	}
}

type fakeDB struct {
	tables  []string
	records []map[string]interface{}
	closed  bool
}

func (f *fakeDB) Connect(ctx context.Context, c service.DataSourceConfig) error { return nil }
func (f *fakeDB) Close() error                                                  { f.closed = true; return nil }
func (f *fakeDB) ListTables(ctx context.Context) ([]string, error)              { return f.tables, nil }
func (f *fakeDB) PreviewData(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	if table != "products" {
		return nil, errors.New("no such table")
	}
	return f.records, nil
}

func TestCatalogDatabaseImport(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/api/db/tables", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("tables before connect: %d", rec.Code)
	}

	db := &fakeDB{
		tables: []string{"products"},
		records: []map[string]interface{}{
			{"id": int64(1), "name": "Wedding Package", "price": 25000000.0},
			{"id": int64(2), "name": "MC", "price": []byte("1500000")},
		},
	}
	s.handler.NewDataSource = func(kind string) (service.DataSource, error) {
		if kind != "mysql" {
			return nil, errors.New("unsupported")
		}
		return db, nil
	}

	if rec := s.do(t, http.MethodPost, "/api/db/connect", `{"type":"oracle"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/db/connect", `{"type":"mysql","host":"db"}`); rec.Code != http.StatusOK {
		t.Fatalf("connect: %d %s", rec.Code, rec.Body)
	}

	var tables struct {
		Tables []string `json:"tables"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/db/tables", ""), &tables)
	if len(tables.Tables) != 1 {
		t.Fatalf("tables = %v", tables)
	}

	rec := s.do(t, http.MethodPost, "/api/db/import-catalog", `{"table":"products"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d %s", rec.Code, rec.Body)
	}
	if got := s.handler.State.Catalog().Len(); got != 2 {
		t.Fatalf("catalog size = %d", got)
	}
	if rec := s.do(t, http.MethodPost, "/api/db/import-catalog", `{"table":"missing"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("missing table: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/db/import-catalog", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("no table: %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	if statusFor(errors.New("boom")) != http.StatusInternalServerError {
		t.Fatal("plain errors should be 500")
	}
	if statusFor(state.ErrNoDataset) != http.StatusBadRequest {
		t.Fatal("missing dataset should be 400")
	}
	if statusFor(&mining.ParamError{Field: "min_support"}) != http.StatusBadRequest {
		t.Fatal("param errors should be 400")
	}
}
