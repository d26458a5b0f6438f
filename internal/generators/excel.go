package generators

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

type ExcelGenerator struct {
	logger *zap.Logger
}

func NewExcelGenerator(logger *zap.Logger) *ExcelGenerator {
	return &ExcelGenerator{
		logger: logger,
	}
}

// GenerateDashboardWorkbook renders a dashboard snapshot into an xlsx
// workbook: one summary sheet plus per-panel sheets for risks and suppliers.
func (g *ExcelGenerator) GenerateDashboardWorkbook(data *types.DashboardData) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []string{"Сводка", "Риски", "Поставщики"}
	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			f.NewSheet(sheet)
		}
	}

	if err := g.writeSummary(f, data); err != nil {
		return nil, fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := g.writeRisks(f, data); err != nil {
		return nil, fmt.Errorf("failed to write risks sheet: %w", err)
	}
	if err := g.writeSuppliers(f, data); err != nil {
		return nil, fmt.Errorf("failed to write suppliers sheet: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	g.logger.Info("dashboard workbook generated",
		zap.Int("top_risks", len(data.TopRisks)),
		zap.Int("top_suppliers", len(data.TopSuppliers)),
		zap.String("generated_at", data.Meta.GeneratedAt))

	return buf, nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *types.DashboardData) error {
	sheet := "Сводка"

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   16,
			Color:  "#FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#2C3E50"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	f.SetCellValue(sheet, "A1", "Дашборд КУПЭ — сводка")
	f.MergeCell(sheet, "A1", "C1")
	f.SetCellStyle(sheet, "A1", "C1", titleStyle)

	f.SetCellValue(sheet, "A2", fmt.Sprintf("Сформировано: %s", data.Meta.GeneratedAt))
	f.SetCellValue(sheet, "A3", fmt.Sprintf("Валюта: %s", data.Meta.Currency))

	rows := []struct {
		label string
		value interface{}
	}{
		{"Компонентов (текущий период)", data.KPI.ComponentsCurr},
		{"Компонентов (предыдущий период)", data.KPI.ComponentsPrev},
		{"Средний прогресс, %", decimal.NewFromFloat(data.KPI.AvgProgressCurr).Round(2).InexactFloat64()},
		{"Средний прогресс (пред.), %", decimal.NewFromFloat(data.KPI.AvgProgressPrev).Round(2).InexactFloat64()},
		{"Открытых рисков", data.KPI.RisksOpenCurr},
		{"Открытых рисков (пред.)", data.KPI.RisksOpenPrev},
	}

	for i, r := range rows {
		row := 5 + i
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.value)
	}

	f.SetColWidth(sheet, "A", "A", 40)
	f.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func (g *ExcelGenerator) writeRisks(f *excelize.File, data *types.DashboardData) error {
	sheet := "Риски"

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   12,
			Color:  "#FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#34495E"},
			Pattern: 1,
		},
	})

	headers := []string{"Категория", "Описание", "Вероятность", "Влияние", "Компонент", "Оценка"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "F1", headerStyle)

	for i, r := range data.TopRisks {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Category)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Description)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Probability)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Impact)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Component)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.Score)
	}

	f.SetColWidth(sheet, "B", "B", 50)
	return nil
}

func (g *ExcelGenerator) writeSuppliers(f *excelize.File, data *types.DashboardData) error {
	sheet := "Поставщики"

	headers := []string{"Компания", "Компонентов"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, s := range data.TopSuppliers {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), s.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), s.Components)
	}

	if data.OtherSuppliers > 0 {
		row := len(data.TopSuppliers) + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Прочие")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), data.OtherSuppliers)
	}

	f.SetColWidth(sheet, "A", "A", 35)
	return nil
}
