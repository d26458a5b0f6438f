package reports

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

func TestGuard_PassesThroughSuccess(t *testing.T) {
	logger := zap.NewNop()

	doc, err := Guard(logger, "dashboard", types.EmptyDashboard, func() (*types.DashboardData, error) {
		d := types.EmptyDashboard()
		d.KPI.ComponentsCurr = 42
		return d, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.KPI.ComponentsCurr != 42 {
		t.Errorf("successful assembly must pass through, got %+v", doc.KPI)
	}
	if doc.Error != "" {
		t.Errorf("no error expected, got %q", doc.Error)
	}
}

func TestGuard_DegradesToDefaultShape(t *testing.T) {
	logger := zap.NewNop()

	doc, err := Guard(logger, "dashboard", types.EmptyDashboard, func() (*types.DashboardData, error) {
		return nil, errors.New("connection refused")
	})
	if err != nil {
		t.Fatalf("assembly failure must degrade, not propagate: %v", err)
	}

	if doc == nil {
		t.Fatal("degraded document must not be nil")
	}
	if doc.Error != "connection refused" {
		t.Errorf("error annotation = %q, want the failure message", doc.Error)
	}
	// The degraded shape keeps every collection present and empty.
	if doc.PieStatus == nil || doc.TopRisks == nil || doc.Gantt == nil {
		t.Error("degraded collections must be empty, not null")
	}
	if doc.KPI.ComponentsCurr != 0 {
		t.Errorf("degraded KPI must be zero-valued, got %+v", doc.KPI)
	}
}

func TestGuard_NotFoundStaysDistinct(t *testing.T) {
	logger := zap.NewNop()

	_, err := Guard(logger, "companies", types.EmptyCompanyList, func() (*types.CompanyList, error) {
		return nil, fmt.Errorf("company 99: %w", ErrNotFound)
	})

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("not-found must pass through for the 404 path, got %v", err)
	}
}

func TestBlock_FailureIsIsolated(t *testing.T) {
	logger := zap.NewNop()
	data := types.EmptyDashboard()

	// One corrupt block must not disturb its siblings.
	if ok := block(logger, "dashboard", "kpi", func() error {
		data.KPI.ComponentsCurr = 7
		return nil
	}); !ok {
		t.Error("successful block must report ok")
	}
	if ok := block(logger, "dashboard", "pie_status", func() error {
		return errors.New("column does not exist")
	}); ok {
		t.Error("failed block must report not ok so the document is marked degraded")
	}
	block(logger, "dashboard", "companies_by_role", func() error {
		data.CompaniesByRole = append(data.CompaniesByRole, types.RoleCount{Role: "Поставщик", Count: 3})
		return nil
	})

	if data.KPI.ComponentsCurr != 7 {
		t.Errorf("kpi block lost its value: %+v", data.KPI)
	}
	if len(data.PieStatus) != 0 {
		t.Errorf("failed block must keep its default, got %v", data.PieStatus)
	}
	if len(data.CompaniesByRole) != 1 {
		t.Errorf("block after the failure must still run, got %v", data.CompaniesByRole)
	}
}
