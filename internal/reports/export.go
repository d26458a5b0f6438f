package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/generators"
	"github.com/kupe-dashboard/analytics-engine/internal/storage"
	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

const presignExpiry = 15 * time.Minute

// Exporter renders dashboard snapshots to downloadable files and parks them
// in object storage.
type Exporter struct {
	engine   *Engine
	excelGen *generators.ExcelGenerator
	csvGen   *generators.CSVGenerator
	store    *storage.ExportStore
	logger   *zap.Logger
}

func NewExporter(
	engine *Engine,
	excelGen *generators.ExcelGenerator,
	csvGen *generators.CSVGenerator,
	store *storage.ExportStore,
	logger *zap.Logger,
) *Exporter {
	return &Exporter{
		engine:   engine,
		excelGen: excelGen,
		csvGen:   csvGen,
		store:    store,
		logger:   logger,
	}
}

// ExportDashboard assembles the current dashboard, renders it in the
// requested format, uploads the file and returns a presigned download link.
func (e *Exporter) ExportDashboard(ctx context.Context, format string) (*types.ExportResult, error) {
	exportID := uuid.New().String()

	var payload []byte
	switch format {
	case types.FormatExcel, "":
		format = types.FormatExcel
		data, err := e.engine.Dashboard(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to assemble dashboard for export: %w", err)
		}
		buf, err := e.excelGen.GenerateDashboardWorkbook(data)
		if err != nil {
			return nil, fmt.Errorf("failed to render workbook: %w", err)
		}
		payload = buf.Bytes()

	case types.FormatCSV:
		buf := new(bytes.Buffer)
		if err := e.csvGen.StreamComponents(ctx, buf); err != nil {
			return nil, fmt.Errorf("failed to render CSV export: %w", err)
		}
		payload = buf.Bytes()

	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	key, err := e.store.UploadExport(ctx, exportID, format, payload)
	if err != nil {
		return nil, err
	}

	url, err := e.store.PresignedURL(key, presignExpiry)
	if err != nil {
		return nil, err
	}

	e.logger.Info("dashboard export ready",
		zap.String("export_id", exportID),
		zap.String("format", format),
		zap.Int("size_bytes", len(payload)))

	return &types.ExportResult{
		ExportID:    exportID,
		Format:      format,
		FileSize:    int64(len(payload)),
		DownloadURL: url,
		ExpiresIn:   presignExpiry.String(),
	}, nil
}
