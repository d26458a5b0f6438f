package generators

import (
	"testing"

	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

func testDashboard() *types.DashboardData {
	data := types.EmptyDashboard()
	data.KPI = types.KPIBlock{
		ComponentsCurr:  120,
		ComponentsPrev:  98,
		AvgProgressCurr: 63.4,
		AvgProgressPrev: 51.2,
		RisksOpenCurr:   14,
		RisksOpenPrev:   19,
	}
	data.TopSuppliers = []types.SupplierCount{
		{CompanyID: 1, Name: "НПО Вектор", Components: 34},
		{CompanyID: 2, Name: "Промдеталь", Components: 21},
	}
	data.OtherSuppliers = 5
	data.TopRisks = []types.TopRisk{
		{
			Category:    "Поставки",
			Description: "Срыв сроков поставки корпуса",
			Probability: 0.7,
			Impact:      "Критическое",
			Component:   "Корпус",
			Score:       2.8,
		},
	}
	data.Meta = types.Meta{GeneratedAt: "2024-06-01 10:00:00.000000", Currency: "₽"}
	return data
}

func TestExcelGenerator_GenerateDashboardWorkbook(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	gen := NewExcelGenerator(logger)

	buf, err := gen.GenerateDashboardWorkbook(testDashboard())
	if err != nil {
		t.Fatalf("Failed to generate dashboard workbook: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("Generated workbook is empty")
	}

	t.Logf("Generated workbook size: %d bytes", buf.Len())
}

func TestExcelGenerator_EmptyDashboard(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	gen := NewExcelGenerator(logger)

	// A degraded (zero-valued) document must still export cleanly.
	data := types.EmptyDashboard()
	data.Meta = types.Meta{GeneratedAt: "2024-06-01 10:00:00.000000", Currency: "₽"}

	buf, err := gen.GenerateDashboardWorkbook(data)
	if err != nil {
		t.Fatalf("Failed to generate workbook for empty dashboard: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Generated workbook is empty")
	}
}

func BenchmarkDashboardWorkbook(b *testing.B) {
	logger, _ := zap.NewDevelopment()
	gen := NewExcelGenerator(logger)
	data := testDashboard()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := gen.GenerateDashboardWorkbook(data)
		if err != nil {
			b.Fatalf("Benchmark failed: %v", err)
		}
	}
}
