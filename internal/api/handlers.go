package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/reports"
	"github.com/kupe-dashboard/analytics-engine/internal/storage"
	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

type DashboardHandler struct {
	db       *sql.DB
	engine   *reports.Engine
	exporter *reports.Exporter
	cache    *storage.Cache
	logger   *zap.Logger
}

func NewDashboardHandler(
	db *sql.DB,
	engine *reports.Engine,
	exporter *reports.Exporter,
	cache *storage.Cache,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		db:       db,
		engine:   engine,
		exporter: exporter,
		cache:    cache,
		logger:   logger,
	}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	// Root-level liveness endpoint for monitoring
	router.HandleFunc("/", h.root).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", h.healthCheck).Methods("GET")
	api.HandleFunc("/dashboard-data", h.getDashboardData).Methods("GET")

	// Company drill-down
	api.HandleFunc("/companies", h.listCompanies).Methods("GET")
	api.HandleFunc("/companies/{id:[0-9]+}", h.getCompany).Methods("GET")

	// Component analytics and typeahead lookups
	api.HandleFunc("/component-metrics", h.getComponentMetrics).Methods("GET")
	api.HandleFunc("/lookups/{name}", h.getLookup).Methods("GET")

	// OKR pipeline
	api.HandleFunc("/okr/funnel", h.getFunnel).Methods("GET")
	api.HandleFunc("/okr/phase/{name}", h.getPhase).Methods("GET")
	api.HandleFunc("/okr/overdue", h.getOverdue).Methods("GET")

	// Audit visits
	api.HandleFunc("/visits/calendar", h.getVisitCalendar).Methods("GET")

	// Exports
	api.HandleFunc("/export/dashboard", h.exportDashboard).Methods("GET", "POST")
}

func (h *DashboardHandler) root(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "kupe-analytics",
		"status":  "running",
		"endpoints": []string{
			"/api/health",
			"/api/dashboard-data",
			"/api/companies",
			"/api/companies/{id}",
			"/api/component-metrics",
			"/api/lookups/{name}",
			"/api/okr/funnel",
			"/api/okr/phase/{name}",
			"/api/okr/overdue",
			"/api/visits/calendar",
			"/api/export/dashboard",
		},
	})
}

func (h *DashboardHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	version, err := storage.Version(r.Context(), h.db)
	if err != nil {
		h.respondUnhealthy(w, err)
		return
	}

	count, err := h.engine.CompaniesCount(r.Context())
	if err != nil {
		h.respondUnhealthy(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"service":         "kupe-analytics",
		"database":        version,
		"companies_count": count,
		"time":            time.Now().Format(time.RFC3339),
	})
}

func (h *DashboardHandler) respondUnhealthy(w http.ResponseWriter, err error) {
	h.logger.Error("Health check failed", zap.Error(err))
	h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":  "unhealthy",
		"service": "kupe-analytics",
	})
}

// getDashboardData always answers 200: per-block failures degrade to empty
// collections inside the document rather than failing the whole response.
func (h *DashboardHandler) getDashboardData(w http.ResponseWriter, r *http.Request) {
	var cached types.DashboardData
	if h.cache.GetJSON(r.Context(), reports.DashboardCacheKey, &cached) {
		h.respondJSON(w, http.StatusOK, &cached)
		return
	}

	data, _ := reports.Guard(h.logger, "dashboard", types.EmptyDashboard, func() (*types.DashboardData, error) {
		return h.engine.Dashboard(r.Context())
	})

	// A document with failed blocks would freeze the hiccup for the whole
	// TTL; only fully-assembled documents are cached.
	if data.Error == "" && !data.Degraded {
		h.cache.SetJSON(r.Context(), reports.DashboardCacheKey, data)
	}
	h.respondJSON(w, http.StatusOK, data)
}

func (h *DashboardHandler) listCompanies(w http.ResponseWriter, r *http.Request) {
	list, _ := reports.Guard(h.logger, "companies", types.EmptyCompanyList, func() (*types.CompanyList, error) {
		return h.engine.Companies(r.Context())
	})

	h.respondJSON(w, http.StatusOK, list)
}

func (h *DashboardHandler) getCompany(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid company ID", err)
		return
	}

	company, err := h.engine.Company(r.Context(), id)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Company not found", nil)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to load company", err)
		return
	}

	h.respondJSON(w, http.StatusOK, company)
}

func (h *DashboardHandler) getComponentMetrics(w http.ResponseWriter, r *http.Request) {
	filters := reports.ComponentFilters{
		Group:    r.URL.Query().Get("group"),
		Supplier: r.URL.Query().Get("supplier"),
	}

	if raw := r.URL.Query().Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid company_id", err)
			return
		}
		filters.CompanyID = id
	}

	metrics, _ := reports.Guard(h.logger, "component_metrics", types.EmptyComponentMetrics, func() (*types.ComponentMetrics, error) {
		return h.engine.ComponentMetrics(r.Context(), filters)
	})

	h.respondJSON(w, http.StatusOK, metrics)
}

func (h *DashboardHandler) getLookup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil {
			limit = l
		}
	}

	list, err := reports.Guard(h.logger, "lookup", types.EmptyLookupList, func() (*types.LookupList, error) {
		return h.engine.Lookup(r.Context(), name, r.URL.Query().Get("search"), limit)
	})
	if err != nil {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown lookup: %s", name), nil)
		return
	}

	h.respondJSON(w, http.StatusOK, list)
}

func (h *DashboardHandler) getFunnel(w http.ResponseWriter, r *http.Request) {
	funnel, _ := reports.Guard(h.logger, "okr_funnel", types.EmptyFunnel, func() (*types.FunnelData, error) {
		return h.engine.Funnel(r.Context())
	})

	h.respondJSON(w, http.StatusOK, funnel)
}

func (h *DashboardHandler) getPhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	detail, err := reports.Guard(h.logger, "okr_phase", types.EmptyPhaseDetail, func() (*types.PhaseDetail, error) {
		return h.engine.Phase(r.Context(), name)
	})
	if err != nil {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown phase: %s", name), nil)
		return
	}

	h.respondJSON(w, http.StatusOK, detail)
}

func (h *DashboardHandler) getOverdue(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil {
			limit = l
		}
	}

	list, _ := reports.Guard(h.logger, "okr_overdue", types.EmptyOverdueList, func() (*types.OverdueList, error) {
		return h.engine.Overdue(r.Context(), limit)
	})

	h.respondJSON(w, http.StatusOK, list)
}

func (h *DashboardHandler) getVisitCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD", err)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD", err)
			return
		}
		to = parsed
	}
	if to.Before(from) {
		h.respondError(w, http.StatusBadRequest, "Calendar window ends before it starts", nil)
		return
	}

	calendar, _ := reports.Guard(h.logger, "visits_calendar", types.EmptyVisitCalendar, func() (*types.VisitCalendar, error) {
		return h.engine.VisitCalendar(r.Context(), from, to)
	})

	h.respondJSON(w, http.StatusOK, calendar)
}

func (h *DashboardHandler) exportDashboard(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	switch format {
	case "excel":
		format = types.FormatExcel
	case "", types.FormatExcel, types.FormatCSV:
	default:
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown export format: %s", format), nil)
		return
	}

	result, err := h.exporter.ExportDashboard(r.Context(), format)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to export dashboard", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *DashboardHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *DashboardHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
