package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/metrics"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/repository"
	"github.com/andresuchdata/rxflow/internal/service"
)

var fixedNow = time.Date(2023, 3, 20, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := repository.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	store := repository.NewStore(backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m := metrics.New()
	clock := func() time.Time { return fixedNow }
	return NewRouter(&Services{
		Ingest: service.NewIngestService(store, service.IngestDeps{
			Metrics:   m,
			Options:   pipeline.Options{Now: clock},
			UploadDir: t.TempDir(),
		}),
		Reports:     service.NewReportService(store, nil, m).WithClock(clock),
		Metrics:     m,
		MaxUploadMB: 5,
	}, nil)
}

func upload(t *testing.T, router *gin.Engine, family, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload/"+family, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestUploadProductionAndQuery(t *testing.T) {
	router := newTestRouter(t)

	w := upload(t, router, "production", "production.csv", "EntryDate,8:00,9:00\n45000,5,7\n")
	if w.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", w.Code, w.Body.String())
	}
	var outcome domain.IngestOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatal(err)
	}
	if !outcome.Success || outcome.Results.Added != 1 || outcome.Results.TotalDoses != 12 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	w = get(router, "/api/production/daily?days=30")
	if w.Code != http.StatusOK {
		t.Fatalf("daily status %d", w.Code)
	}
	var points []domain.ProductionPoint
	if err := json.Unmarshal(w.Body.Bytes(), &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].Date != "2023-03-15" || points[0].TotalDoses != 12 ||
		points[0].Hourly[8] != 5 || points[0].Hourly[9] != 7 {
		t.Fatalf("unexpected series %+v", points)
	}
}

func TestUploadErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name     string
		family   string
		filename string
		content  string
		want     int
	}{
		{"unknown family", "inventory", "x.csv", "a,b\n1,2\n", http.StatusBadRequest},
		{"schema mismatch", "production", "p.csv", "Date,Count\n1,2\n", http.StatusBadRequest},
		{"unsupported format", "production", "p.pdf", "%PDF", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, router, tt.family, tt.filename, tt.content)
			if w.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == nil {
				t.Fatalf("expected an error body, got %s", w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload/production", strings.NewReader(""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: status %d", w.Code)
	}
}

func TestUsageScenario(t *testing.T) {
	router := newTestRouter(t)
	w := upload(t, router, "usage", "usage.csv",
		"Date,Product Name,Location,Product Total Volume,Product Unused Volume\n45000,Drug A,Pharmacy,10,3\n")
	if w.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", w.Code, w.Body.String())
	}

	var points []domain.UsagePoint
	if err := json.Unmarshal(get(router, "/api/usage/daily").Body.Bytes(), &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].UsedVolume != 7 || points[0].WasteVolume != 3 || points[0].WastePercent != 30 {
		t.Fatalf("unexpected usage %+v", points)
	}
}

func TestBulkClearKeepsSnapshots(t *testing.T) {
	router := newTestRouter(t)
	if w := upload(t, router, "production", "p.csv", "EntryDate,8:00\n45000,5\n"); w.Code != http.StatusOK {
		t.Fatalf("production upload %d", w.Code)
	}
	if w := upload(t, router, "product-usage", "u.csv", "Product,Location,Doses,Total Volume,Waste Volume\nA,ICU,3,30,3\n"); w.Code != http.StatusOK {
		t.Fatalf("product usage upload %d", w.Code)
	}
	before := get(router, "/api/product-usage/summary").Body.String()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/data", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("clear: %d %s", w.Code, w.Body.String())
	}

	if body := strings.TrimSpace(get(router, "/api/production/daily").Body.String()); body != "[]" {
		t.Fatalf("expected [], got %s", body)
	}
	if after := get(router, "/api/product-usage/summary").Body.String(); after != before {
		t.Fatalf("summary changed: %s -> %s", before, after)
	}
}

func TestQueryValidation(t *testing.T) {
	router := newTestRouter(t)
	for path, want := range map[string]int{
		"/api/stock-doses?type=bogus":               http.StatusBadRequest,
		"/api/stock-doses?type=stocks":              http.StatusOK,
		"/api/turnaround/breakdown?sortBy=colour":   http.StatusBadRequest,
		"/api/turnaround/breakdown?sortBy=priority": http.StatusOK,
		"/api/usage/breakdown?dimension=location":   http.StatusOK,
		"/api/detailed-wastage/breakdown?sortBy=x":  http.StatusBadRequest,
		"/api/bypass/locations?limit=abc":           http.StatusOK,
		"/api/product-wastage/types":                http.StatusOK,
	} {
		if w := get(router, path); w.Code != want {
			t.Errorf("%s: status %d, want %d", path, w.Code, want)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)
	if w := get(router, "/health"); w.Code != http.StatusOK {
		t.Fatalf("health status %d", w.Code)
	}
	upload(t, router, "production", "p.csv", "EntryDate,8:00\n45000,5\n")
	w := get(router, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "rxflow_ingests_total") {
		t.Fatalf("metrics: %d %s", w.Code, w.Body.String())
	}
}

func TestArchiveDisabled(t *testing.T) {
	router := newTestRouter(t)
	if w := get(router, "/api/archive"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("archive list status %d", w.Code)
	}
	if w := get(router, "/api/drive/files"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("drive list status %d", w.Code)
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	if all || len(origins) != 2 {
		t.Fatalf("unexpected %v %v", origins, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Fatal("expected allow all")
	}
}
