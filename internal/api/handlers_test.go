package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/config"
	"github.com/kupe-dashboard/analytics-engine/internal/reports"
	"github.com/kupe-dashboard/analytics-engine/internal/schema"
	"github.com/kupe-dashboard/analytics-engine/internal/storage"
	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

// newUnreachableRouter wires the handler against a database and cache that
// cannot be reached, the worst case every report endpoint must survive.
func newUnreachableRouter(t *testing.T) *mux.Router {
	t.Helper()
	logger := zap.NewNop()

	db, err := sql.Open("postgres",
		"host=127.0.0.1 port=1 user=nobody dbname=nothing sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("failed to open database handle: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	inspector := schema.NewInspector(db, logger)
	engine := reports.NewEngine(db, inspector, logger, "₽", "Москва")

	cache := storage.NewCache(&config.RedisConfig{
		Address:  "127.0.0.1:1",
		CacheTTL: time.Minute,
	}, logger)
	t.Cleanup(func() { cache.Close() })

	router := mux.NewRouter()
	NewDashboardHandler(db, engine, nil, cache, logger).RegisterRoutes(router)
	return router
}

func get(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReportEndpointsDegradeWhenStoreIsDown(t *testing.T) {
	router := newUnreachableRouter(t)

	paths := []string{
		"/api/dashboard-data",
		"/api/companies",
		"/api/component-metrics",
		"/api/okr/funnel",
		"/api/okr/phase/implementation",
		"/api/okr/overdue",
		"/api/visits/calendar",
	}

	for _, path := range paths {
		rec := get(t, router, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200 with a degraded document", path, rec.Code)
			continue
		}

		var doc struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Errorf("%s: response is not a JSON document: %v", path, err)
			continue
		}
		if doc.Error == "" {
			t.Errorf("%s: degraded document must carry an error annotation", path)
		}
	}
}

func TestDegradedFunnelKeepsDocumentShape(t *testing.T) {
	router := newUnreachableRouter(t)

	rec := get(t, router, "/api/okr/funnel")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var funnel types.FunnelData
	if err := json.Unmarshal(rec.Body.Bytes(), &funnel); err != nil {
		t.Fatalf("failed to decode funnel: %v", err)
	}
	if funnel.Error == "" {
		t.Error("degraded funnel must carry an error annotation")
	}
	if funnel.Phases == nil || len(funnel.Phases) != 0 {
		t.Errorf("degraded funnel phases must be present and empty, got %v", funnel.Phases)
	}
}

func TestNotFoundOutcomesSurviveDegradation(t *testing.T) {
	router := newUnreachableRouter(t)

	// Unknown names are client errors, not degraded reports.
	if rec := get(t, router, "/api/okr/phase/unknown"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown phase: status = %d, want 404", rec.Code)
	}
	if rec := get(t, router, "/api/lookups/colors"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown lookup: status = %d, want 404", rec.Code)
	}
}

func TestHealthReportsUnhealthyWhenDatabaseDown(t *testing.T) {
	router := newUnreachableRouter(t)

	rec := get(t, router, "/api/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", body.Status)
	}
}
