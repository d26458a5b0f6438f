package reports

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kupe-dashboard/analytics-engine/internal/query"
	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

const topComponentSuppliers = 10

// ComponentFilters are the optional filter parameters of the
// component-metrics report. Zero values mean "no restriction".
type ComponentFilters struct {
	Group     string
	Supplier  string
	CompanyID int64
}

func (f ComponentFilters) builder() *query.Builder {
	b := query.NewBuilder()
	if f.Group != "" {
		b.Equal("gruppa", f.Group)
	}
	if f.Supplier != "" {
		b.Contains("postavshchik", f.Supplier)
	}
	if f.CompanyID > 0 {
		b.Equal("kompaniya_id", f.CompanyID)
	}
	return b
}

// ComponentMetrics assembles the filtered component report: a scalar KPI
// block, a grouping breakdown, a supplier ranking with overflow count and the
// monthly creation series. Blocks degrade independently.
func (e *Engine) ComponentMetrics(ctx context.Context, filters ComponentFilters) (*types.ComponentMetrics, error) {
	data := types.EmptyComponentMetrics()

	err := e.withConn(ctx, func(q querier) error {
		block(e.logger, "component-metrics", "kpi", func() error {
			kpi, err := e.componentKPI(ctx, q, filters)
			if err != nil {
				return err
			}
			data.KPI = kpi
			return nil
		})

		block(e.logger, "component-metrics", "by_group", func() error {
			// Null or empty groupings are absent, not a group of their own.
			b := filters.builder().NotEmpty("gruppa")
			where, params := b.Where(1)
			rows, err := labelCounts(ctx, q, `
				SELECT gruppa, COUNT(*) AS count
				FROM komponenty`+where+`
				GROUP BY gruppa
				ORDER BY count DESC, gruppa
				LIMIT 50
			`, params...)
			if err != nil {
				return err
			}
			data.ByGroup = rows
			return nil
		})

		block(e.logger, "component-metrics", "top_suppliers", func() error {
			b := filters.builder().NotEmpty("postavshchik")
			where, params := b.Where(2)
			rows, err := labelCounts(ctx, q, `
				SELECT postavshchik, COUNT(*) AS count
				FROM komponenty`+where+`
				GROUP BY postavshchik
				ORDER BY count DESC, postavshchik
				LIMIT $1
			`, append([]interface{}{topComponentSuppliers}, params...)...)
			if err != nil {
				return err
			}
			data.TopSuppliers = rows

			var distinct sql.NullInt64
			countWhere, countParams := b.Where(1)
			err = q.QueryRowContext(ctx, `
				SELECT COUNT(DISTINCT postavshchik)
				FROM komponenty`+countWhere,
				countParams...,
			).Scan(&distinct)
			if err != nil {
				return fmt.Errorf("failed to count distinct component suppliers: %w", err)
			}
			data.OtherSuppliers = overflowCount(Int(distinct), topComponentSuppliers)
			return nil
		})

		block(e.logger, "component-metrics", "created_monthly", func() error {
			b := filters.builder().Static("data_sozdaniya IS NOT NULL")
			where, params := b.Where(1)
			series, err := monthlySeries(ctx, q, `
				SELECT DATE_TRUNC('month', data_sozdaniya) AS month, COUNT(*) AS count
				FROM komponenty`+where+`
				GROUP BY DATE_TRUNC('month', data_sozdaniya)
				ORDER BY month
			`, params...)
			if err != nil {
				return err
			}
			data.CreatedMonthly = series
			return nil
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	data.Meta = NewMeta(e.currency)
	return data, nil
}

// componentKPI keeps both the plain mean and the percentile median of the
// quantity as distinct named statistics.
func (e *Engine) componentKPI(ctx context.Context, q querier, filters ComponentFilters) (types.ComponentKPI, error) {
	where, params := filters.builder().Where(1)

	var (
		kpi      types.ComponentKPI
		total    sql.NullInt64
		quantity sql.NullInt64
		avg      sql.NullFloat64
		median   sql.NullFloat64
		supp     sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total_components,
			SUM(kolichestvo) AS total_quantity,
			AVG(kolichestvo) AS avg_quantity,
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY kolichestvo) AS median_quantity,
			COUNT(DISTINCT postavshchik) AS suppliers
		FROM komponenty`+where,
		params...,
	).Scan(&total, &quantity, &avg, &median, &supp)
	if err != nil {
		return types.ComponentKPI{}, fmt.Errorf("failed to query component kpi: %w", err)
	}

	kpi.TotalComponents = Int(total)
	kpi.TotalQuantity = Int(quantity)
	kpi.AvgQuantity = Float(avg)
	kpi.MedianQuantity = Float(median)
	kpi.Suppliers = Int(supp)
	return kpi, nil
}
