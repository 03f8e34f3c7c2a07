package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mwantia/agrilink/internal/events"
	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/blob/memory"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/log"
	"github.com/mwantia/agrilink/pkg/secure"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake")

func newTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	encryptor, err := secure.NewEncryptor("api-secret")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	logger := log.NewWriterLogger("api", "error", io.Discard)
	svc := ingest.NewService(s, memory.New(), encryptor, events.NewNoopPublisher(logger), logger, ingest.Options{EncryptUploads: true})
	return NewRouter(svc, logger, opts)
}

type filePart struct {
	field    string
	filename string
	data     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		w.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func do(h http.Handler, method, path, owner string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if owner != "" {
		req.Header.Set(DefaultOwnerHeader, owner)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decode(t, rec, &body)
	return body.Error.Code
}

func uploadCSV(t *testing.T, h http.Handler, owner, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, nil, filePart{field: "file", filename: filename, data: []byte(content)})
	return do(h, http.MethodPost, "/api/v1/tabular-files", owner, body, ct)
}

func TestOwnerHeaderRequired(t *testing.T) {
	h := newTestRouter(t, Options{})

	rec := do(h, http.MethodGet, "/api/v1/dashboard", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != CodeUnauthorized {
		t.Errorf("code = %s", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, Options{Version: "test"})

	if rec := do(h, http.MethodGet, "/health/live", "", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	rec := do(h, http.MethodGet, "/health/ready", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("ready = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/metrics", "", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "agrilink_http_requests_total") {
		t.Errorf("metrics = %d, missing request counter", rec.Code)
	}
}

func TestTabularFlow(t *testing.T) {
	h := newTestRouter(t, Options{})

	rec := uploadCSV(t, h, "alice", "plots.csv", "sample_id,height\nA1,5.0\nA2,3\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID            uint     `json:"id"`
		RowsProcessed int      `json:"rows_processed"`
		Columns       []string `json:"columns"`
		IsUpdate      bool     `json:"is_update"`
	}
	decode(t, rec, &created)
	if created.ID == 0 || created.RowsProcessed != 2 || created.IsUpdate || len(created.Columns) != 2 {
		t.Errorf("upload body = %+v", created)
	}
	base := "/api/v1/tabular-files/" + itoa(created.ID)

	rec = do(h, http.MethodGet, "/api/v1/tabular-files", "alice", nil, "")
	var list []tabularFileResponse
	decode(t, rec, &list)
	if len(list) != 1 || list[0].Name != "plots.csv" || !list[0].Processed {
		t.Errorf("list = %+v", list)
	}

	rec = do(h, http.MethodGet, base+"/preview", "alice", nil, "")
	var preview struct {
		Rows      []map[string]any `json:"rows"`
		TotalRows int              `json:"total_rows"`
	}
	decode(t, rec, &preview)
	if rec.Code != http.StatusOK || preview.TotalRows != 2 || preview.Rows[0]["height"] != 5.0 {
		t.Errorf("preview = %d %+v", rec.Code, preview)
	}

	rec = do(h, http.MethodPost, base+"/process", "alice", nil, "")
	var processed struct {
		IsUpdate  bool `json:"is_update"`
		Unchanged bool `json:"unchanged"`
	}
	decode(t, rec, &processed)
	if rec.Code != http.StatusOK || processed.IsUpdate || !processed.Unchanged {
		t.Errorf("process = %d %+v", rec.Code, processed)
	}

	if rec := do(h, http.MethodPost, base+"/process?force=maybe", "alice", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad force = %d", rec.Code)
	}

	rec = do(h, http.MethodGet, base, "bob", nil, "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != CodeNotFound {
		t.Errorf("foreign get = %d", rec.Code)
	}

	if rec := do(h, http.MethodDelete, base, "alice", nil, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, base, "alice", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestTabularUploadErrors(t *testing.T) {
	h := newTestRouter(t, Options{})

	tests := []struct {
		name     string
		filename string
		content  string
		code     string
	}{
		{"missing sample column", "plots.csv", "plot,height\nP1,2\n", CodeMissingColumns},
		{"header only", "plots.csv", "sample_id,height\n", CodeEmptyFile},
		{"unsupported extension", "plots.txt", "sample_id\nA1\n", CodeUnsupportedType},
		{"legacy excel", "plots.xls", "sample_id\nA1\n", CodeUnsupportedType},
		{"unterminated quote", "plots.csv", "sample_id,b\nA1,\"open\n", CodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := uploadCSV(t, h, "alice", tt.filename, tt.content)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}

	body, ct := multipartBody(t, map[string]string{"name": "x"})
	rec := do(h, http.MethodPost, "/api/v1/tabular-files", "alice", body, ct)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != CodeValidationError {
		t.Errorf("no file = %d", rec.Code)
	}

	if rec := do(h, http.MethodGet, "/api/v1/tabular-files/abc", "alice", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id = %d", rec.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := newTestRouter(t, Options{MaxUploadSize: 64})

	rec := uploadCSV(t, h, "alice", "plots.csv", "sample_id,height\n"+strings.Repeat("A1,1\n", 100))
	if rec.Code != http.StatusRequestEntityTooLarge || errorCode(t, rec) != CodeFileTooLarge {
		t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImageFlow(t *testing.T) {
	h := newTestRouter(t, Options{})

	body, ct := multipartBody(t, map[string]string{"sample_id": "A1", "description": "leaf"},
		filePart{field: "image", filename: "leaf.png", data: pngBytes})
	rec := do(h, http.MethodPost, "/api/v1/images", "alice", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}
	var image imageResponse
	decode(t, rec, &image)
	if image.SampleID != "A1" || image.ContentType != "image/png" {
		t.Errorf("image = %+v", image)
	}
	base := "/api/v1/images/" + itoa(image.ID)

	rec = do(h, http.MethodGet, base+"/content", "alice", nil, "")
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), pngBytes) || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("content = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = uploadCSV(t, h, "alice", "plots.csv", "sample_id,height\nA1,12.50\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("tabular upload = %d", rec.Code)
	}

	meta := strings.NewReader(`{"metadata":[{"label":"stage","value":"ripe"},{"label":"","value":"x"}]}`)
	rec = do(h, http.MethodPost, base+"/metadata", "alice", meta, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("metadata = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/api/v1/images?metadata_label=height&metadata_value=12.5", "alice", nil, "")
	var images []imageResponse
	decode(t, rec, &images)
	if len(images) != 1 || len(images[0].Metadata) != 2 {
		t.Errorf("filtered images = %+v", images)
	}

	rec = do(h, http.MethodGet, "/api/v1/images/metadata/labels", "alice", nil, "")
	var labels struct {
		Labels []string `json:"labels"`
	}
	decode(t, rec, &labels)
	if len(labels.Labels) != 2 || labels.Labels[0] != "height" {
		t.Errorf("labels = %v", labels.Labels)
	}

	if rec := do(h, http.MethodGet, "/api/v1/images/metadata/values", "alice", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("values without label = %d", rec.Code)
	}

	if rec := do(h, http.MethodDelete, base, "alice", nil, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, base+"/content", "alice", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("content after delete = %d", rec.Code)
	}
}

func TestGeneticFlow(t *testing.T) {
	h := newTestRouter(t, Options{})
	content := "No.,F5 Code,Location,Fruit Weight (Kg)\n1,ABC,Field A,2.5\n2,DEF,Field B,\n"

	body, ct := multipartBody(t, nil,
		filePart{field: "file", filename: "season.csv", data: []byte(content)},
		filePart{field: "images", filename: "2_def.png", data: pngBytes})
	rec := do(h, http.MethodPost, "/api/v1/genetic-datasets", "alice", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}
	var result ingest.GeneticUploadResult
	decode(t, rec, &result)
	if result.TotalRecords != 2 || result.ImagesLinked != 1 {
		t.Errorf("result = %+v", result)
	}
	base := "/api/v1/genetic-datasets/" + itoa(result.ID)

	rec = do(h, http.MethodGet, base+"/download", "alice", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != content {
		t.Errorf("download = %d %q", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "season.csv") {
		t.Errorf("content disposition = %q", cd)
	}

	rec = do(h, http.MethodGet, base, "alice", nil, "")
	var detail struct {
		Filename string `json:"filename"`
		Records  []struct {
			BreedingData map[string]any `json:"breeding_data"`
		} `json:"records"`
	}
	decode(t, rec, &detail)
	if detail.Filename != "season.csv" || len(detail.Records) != 2 || detail.Records[0].BreedingData["fruit_weight"] != 2.5 {
		t.Errorf("detail = %+v", detail)
	}

	body, ct = multipartBody(t, nil, filePart{field: "file", filename: "bad.csv", data: []byte("No.,Location\n1,A\n")})
	rec = do(h, http.MethodPost, "/api/v1/genetic-datasets", "alice", body, ct)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != CodeMissingColumns || !strings.Contains(rec.Body.String(), "F5 Code") {
		t.Errorf("missing column = %d: %s", rec.Code, rec.Body.String())
	}

	if rec := do(h, http.MethodDelete, base, "alice", nil, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/api/v1/dashboard", "alice", nil, "")
	var dashboard dashboardResponse
	decode(t, rec, &dashboard)
	if dashboard.GeneticDatasets != 0 || dashboard.Images != 0 {
		t.Errorf("dashboard = %+v", dashboard)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("http", "warn", &buf)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	if buf.Len() != 0 {
		t.Fatalf("success logged at warn level: %q", buf.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if !strings.Contains(buf.String(), "GET /missing 404") {
		t.Fatalf("client error not logged: %q", buf.String())
	}
}
