package generators

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type CSVGenerator struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewCSVGenerator(db *sql.DB, logger *zap.Logger) *CSVGenerator {
	return &CSVGenerator{
		db:     db,
		logger: logger,
	}
}

// StreamComponents writes the component register as CSV without loading all
// rows into memory, for dashboard exports.
func (g *CSVGenerator) StreamComponents(ctx context.Context, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	startTime := time.Now()

	headers := []string{
		"ID",
		"Название",
		"Тип",
		"Поставщик",
		"Группа",
		"Количество",
		"Статус",
		"Прогресс",
		"Компания",
	}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	query := `
		SELECT
			k.id,
			k.nazvanie,
			COALESCE(k.tip, ''),
			COALESCE(k.postavshchik, ''),
			COALESCE(k.gruppa, ''),
			COALESCE(k.kolichestvo, 0),
			COALESCE(k.status, ''),
			COALESCE(k.progress, 0),
			COALESCE(ko.nazvanie, '')
		FROM komponenty k
		LEFT JOIN kompanii ko ON k.kompaniya_id = ko.id
		WHERE k.period = 'current'
		ORDER BY k.id
	`

	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	rowCount := 0
	for rows.Next() {
		var (
			id       int64
			name     string
			kind     string
			supplier string
			group    string
			quantity int64
			status   string
			progress float64
			company  string
		)
		if err := rows.Scan(&id, &name, &kind, &supplier, &group, &quantity, &status, &progress, &company); err != nil {
			g.logger.Error("failed to scan component row", zap.Error(err))
			continue
		}

		record := []string{
			strconv.FormatInt(id, 10),
			name,
			kind,
			supplier,
			group,
			strconv.FormatInt(quantity, 10),
			status,
			strconv.FormatFloat(progress, 'f', 2, 64),
			company,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate component rows: %w", err)
	}

	duration := time.Since(startTime)
	g.logger.Info("CSV export completed",
		zap.Int("rows", rowCount),
		zap.Duration("duration", duration))

	return nil
}
