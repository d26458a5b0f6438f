package reports

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

const topSuppliersLimit = 7

// Dashboard assembles the overall dashboard aggregate. Each block is an
// independent sub-query with a documented default; a failed block leaves its
// siblings untouched. Only a connection-acquisition failure aborts the whole
// report (the caller degrades it via Guard).
func (e *Engine) Dashboard(ctx context.Context) (*types.DashboardData, error) {
	data := types.EmptyDashboard()

	err := e.withConn(ctx, func(q querier) error {
		run := func(name string, fn func() error) {
			if !block(e.logger, "dashboard", name, fn) {
				data.Degraded = true
			}
		}

		run("kpi", func() error {
			kpi, err := e.dashboardKPI(ctx, q)
			if err != nil {
				return err
			}
			data.KPI = kpi
			return nil
		})

		run("pie_status", func() error {
			rows, err := labelCounts(ctx, q, `
				SELECT status, COUNT(*) AS count
				FROM komponenty
				WHERE period = 'current'
				GROUP BY status
				ORDER BY count DESC, status
			`)
			if err != nil {
				return err
			}
			data.PieStatus = statusRows(rows)
			return nil
		})

		run("kdocs_month", func() error {
			series, err := monthlySeries(ctx, q, `
				SELECT DATE_TRUNC('month', data_vypuska) AS month, COUNT(*) AS count
				FROM konstruktorskie_dokumenty
				WHERE data_vypuska IS NOT NULL
				GROUP BY DATE_TRUNC('month', data_vypuska)
				ORDER BY month
			`)
			if err != nil {
				return err
			}
			data.KDocsMonth = kdocsRows(series)
			return nil
		})

		run("top_suppliers", func() error {
			return e.topSuppliers(ctx, q, data)
		})

		run("heat", func() error {
			heat, err := e.riskHeatmap(ctx, q)
			if err != nil {
				return err
			}
			data.Heat = heat
			return nil
		})

		run("gantt", func() error {
			gantt, err := e.ganttRows(ctx, q)
			if err != nil {
				return err
			}
			data.Gantt = gantt
			return nil
		})

		run("suppliers_by_country", func() error {
			rows, err := labelCounts(ctx, q, `
				SELECT strana, COUNT(*) AS count
				FROM postavshchiki
				WHERE aktivnyj = true
				GROUP BY strana
				ORDER BY count DESC, strana
			`)
			if err != nil {
				return err
			}
			data.SuppliersByCountry = countryRows(rows)
			return nil
		})

		run("risks_by_category", func() error {
			rows, err := e.risksByCategory(ctx, q)
			if err != nil {
				return err
			}
			data.RisksByCategory = rows
			return nil
		})

		run("risks_matrix", func() error {
			rows, err := e.risksMatrix(ctx, q)
			if err != nil {
				return err
			}
			data.RisksMatrix = rows
			return nil
		})

		run("risks_by_impact", func() error {
			rows, err := e.risksByImpact(ctx, q)
			if err != nil {
				return err
			}
			data.RisksByImpact = rows
			return nil
		})

		run("top_risks", func() error {
			rows, err := e.topRisks(ctx, q)
			if err != nil {
				return err
			}
			data.TopRisks = rows
			return nil
		})

		run("companies_by_role", func() error {
			rows, err := labelCounts(ctx, q, `
				SELECT rol, COUNT(*) AS count
				FROM kompanii
				GROUP BY rol
				ORDER BY count DESC, rol
			`)
			if err != nil {
				return err
			}
			data.CompaniesByRole = roleRows(rows)
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

// dashboardKPI computes the headline block with one conditional-aggregation
// round trip instead of six queries.
func (e *Engine) dashboardKPI(ctx context.Context, q querier) (types.KPIBlock, error) {
	var (
		kpi              types.KPIBlock
		avgCurr, avgPrev sql.NullFloat64
	)

	err := q.QueryRowContext(ctx, `
		SELECT
			SUM(CASE WHEN period = 'current' THEN 1 ELSE 0 END) AS components_curr,
			SUM(CASE WHEN period = 'previous' THEN 1 ELSE 0 END) AS components_prev,
			AVG(CASE WHEN period = 'current' THEN progress END) AS avg_progress_curr,
			AVG(CASE WHEN period = 'previous' THEN progress END) AS avg_progress_prev,
			SUM(CASE WHEN period = 'current' AND is_risk THEN 1 ELSE 0 END) AS risks_open_curr,
			SUM(CASE WHEN period = 'previous' AND is_risk THEN 1 ELSE 0 END) AS risks_open_prev
		FROM komponenty
	`).Scan(
		&kpi.ComponentsCurr,
		&kpi.ComponentsPrev,
		&avgCurr,
		&avgPrev,
		&kpi.RisksOpenCurr,
		&kpi.RisksOpenPrev,
	)
	if err != nil {
		return types.KPIBlock{}, fmt.Errorf("failed to query kpi block: %w", err)
	}

	kpi.AvgProgressCurr = Float(avgCurr)
	kpi.AvgProgressPrev = Float(avgPrev)
	return kpi, nil
}

func (e *Engine) topSuppliers(ctx context.Context, q querier, data *types.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
		SELECT k.kompaniya_id, ko.nazvanie, COUNT(*) AS components
		FROM komponenty k
		JOIN kompanii ko ON k.kompaniya_id = ko.id
		WHERE k.period = 'current'
		GROUP BY k.kompaniya_id, ko.nazvanie
		ORDER BY components DESC, ko.nazvanie
		LIMIT $1
	`, topSuppliersLimit)
	if err != nil {
		return fmt.Errorf("failed to query top suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []types.SupplierCount{}
	for rows.Next() {
		var s types.SupplierCount
		if err := rows.Scan(&s.CompanyID, &s.Name, &s.Components); err != nil {
			return fmt.Errorf("failed to scan supplier row: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate supplier rows: %w", err)
	}

	var distinct int64
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT kompaniya_id)
		FROM komponenty
		WHERE period = 'current' AND kompaniya_id IS NOT NULL
	`).Scan(&distinct)
	if err != nil {
		return fmt.Errorf("failed to count distinct suppliers: %w", err)
	}

	data.TopSuppliers = suppliers
	data.OtherSuppliers = overflowCount(distinct, topSuppliersLimit)
	return nil
}

func (e *Engine) riskHeatmap(ctx context.Context, q querier) (types.HeatBlock, error) {
	heat := types.HeatBlock{Roles: []string{}, Categories: []string{}, Cells: []types.HeatCell{}}

	roles, err := stringColumn(ctx, q, `SELECT DISTINCT rol FROM kompanii ORDER BY rol`)
	if err != nil {
		return heat, fmt.Errorf("failed to query roles: %w", err)
	}

	categories, err := stringColumn(ctx, q, `SELECT DISTINCT kategoriya FROM riski ORDER BY kategoriya`)
	if err != nil {
		return heat, fmt.Errorf("failed to query risk categories: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ko.rol, r.kategoriya, COUNT(*) AS cnt
		FROM riski r
		JOIN komponenty k ON r.komponent_id = k.id
		JOIN kompanii ko ON k.kompaniya_id = ko.id
		WHERE r.veroyatnost > 0.3
		GROUP BY ko.rol, r.kategoriya
	`)
	if err != nil {
		return heat, fmt.Errorf("failed to query heatmap cells: %w", err)
	}
	defer rows.Close()

	cells := []types.HeatCell{}
	for rows.Next() {
		var c types.HeatCell
		if err := rows.Scan(&c.Role, &c.Category, &c.Count); err != nil {
			return heat, fmt.Errorf("failed to scan heatmap cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return heat, fmt.Errorf("failed to iterate heatmap cells: %w", err)
	}

	heat.Roles = roles
	heat.Categories = categories
	heat.Cells = cells
	return heat, nil
}

func (e *Engine) ganttRows(ctx context.Context, q querier) ([]types.GanttRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT k.id, k.nazvanie, ko.id, ko.nazvanie, ko.rol,
		       k.data_start, k.data_end, COALESCE(k.progress, 0)
		FROM komponenty k
		JOIN kompanii ko ON k.kompaniya_id = ko.id
		WHERE k.period = 'current' AND k.data_start IS NOT NULL
		ORDER BY k.data_start, k.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query gantt rows: %w", err)
	}
	defer rows.Close()

	gantt := []types.GanttRow{}
	for rows.Next() {
		var (
			componentID, companyID     int64
			componentName, companyName string
			role                       string
			start, end                 sql.NullTime
			progress                   float64
		)
		if err := rows.Scan(&componentID, &componentName, &companyID, &companyName, &role, &start, &end, &progress); err != nil {
			return nil, fmt.Errorf("failed to scan gantt row: %w", err)
		}

		gantt = append(gantt, types.GanttRow{
			ID:       fmt.Sprintf("T%d_%d_%s", componentID, companyID, role),
			Name:     fmt.Sprintf("%s #%d — %s", componentName, componentID, role),
			Start:    NullDay(start),
			End:      NullDay(end),
			Progress: progress,
			Status:   ganttStatus(progress),
			Owner:    companyName,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gantt rows: %w", err)
	}

	return gantt, nil
}

func (e *Engine) risksByCategory(ctx context.Context, q querier) ([]types.RiskCategoryRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			kategoriya,
			SUM(CASE WHEN status = 'Открыт' THEN 1 ELSE 0 END) AS open_count,
			SUM(CASE WHEN status = 'В работе' THEN 1 ELSE 0 END) AS in_progress_count,
			SUM(CASE WHEN status = 'Закрыт' THEN 1 ELSE 0 END) AS closed_count,
			COUNT(*) AS total_count
		FROM riski
		GROUP BY kategoriya
		ORDER BY total_count DESC, kategoriya
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risks by category: %w", err)
	}
	defer rows.Close()

	result := []types.RiskCategoryRow{}
	for rows.Next() {
		var r types.RiskCategoryRow
		if err := rows.Scan(&r.Category, &r.OpenCount, &r.InProgressCount, &r.ClosedCount, &r.TotalCount); err != nil {
			return nil, fmt.Errorf("failed to scan risk category row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (e *Engine) risksMatrix(ctx context.Context, q querier) ([]types.RiskPoint, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.kategoriya, r.opisanie, r.veroyatnost, r.vliyanie, r.status, k.nazvanie
		FROM riski r
		JOIN komponenty k ON r.komponent_id = k.id
		WHERE r.status <> 'Закрыт'
		ORDER BY r.veroyatnost DESC, r.vliyanie DESC, r.id
		LIMIT 500
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk matrix: %w", err)
	}
	defer rows.Close()

	result := []types.RiskPoint{}
	for rows.Next() {
		var p types.RiskPoint
		if err := rows.Scan(&p.ID, &p.Category, &p.Description, &p.Probability, &p.Impact, &p.Status, &p.Component); err != nil {
			return nil, fmt.Errorf("failed to scan risk point: %w", err)
		}
		p.Probability = Round2(p.Probability)
		result = append(result, p)
	}
	return result, rows.Err()
}

// risksByImpact counts open risks per impact tier, ordered by the fixed
// severity order of the tiers, not alphabetically.
func (e *Engine) risksByImpact(ctx context.Context, q querier) ([]types.ImpactCount, error) {
	rows, err := labelCounts(ctx, q, `
		SELECT vliyanie, COUNT(*) AS count
		FROM riski
		WHERE status <> 'Закрыт'
		GROUP BY vliyanie
	`)
	if err != nil {
		return nil, err
	}

	rank := func(label string) int {
		for i, tier := range ImpactOrder {
			if tier == label {
				return i
			}
		}
		return len(ImpactOrder)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank(rows[i].Label) < rank(rows[j].Label)
	})

	result := make([]types.ImpactCount, 0, len(rows))
	for _, r := range rows {
		result = append(result, types.ImpactCount{Impact: r.Label, Count: r.Count})
	}
	return result, nil
}

const topRisksLimit = 5

// topRisks ranks open risks by the derived score probability x impact
// weight, descending, ties broken by description for determinism.
func (e *Engine) topRisks(ctx context.Context, q querier) ([]types.TopRisk, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.kategoriya, r.opisanie, r.veroyatnost, r.vliyanie, k.nazvanie
		FROM riski r
		JOIN komponenty k ON r.komponent_id = k.id
		WHERE r.status <> 'Закрыт'
		ORDER BY r.veroyatnost * CASE r.vliyanie
			WHEN 'Критическое' THEN 4
			WHEN 'Высокое' THEN 3
			WHEN 'Среднее' THEN 2
			WHEN 'Низкое' THEN 1
			ELSE 0
		END DESC, r.opisanie
		LIMIT $1
	`, topRisksLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top risks: %w", err)
	}
	defer rows.Close()

	result := []types.TopRisk{}
	for rows.Next() {
		var r types.TopRisk
		if err := rows.Scan(&r.Category, &r.Description, &r.Probability, &r.Impact, &r.Component); err != nil {
			return nil, fmt.Errorf("failed to scan top risk: %w", err)
		}
		r.Score = Round2(RiskScore(r.Probability, r.Impact))
		result = append(result, r)
	}
	return result, rows.Err()
}

// The overall dashboard keeps the source column as the row key; generic
// breakdown rows are re-keyed per block.

func statusRows(rows []types.LabelCount) []types.StatusCount {
	out := make([]types.StatusCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.StatusCount{Status: r.Label, Count: r.Count})
	}
	return out
}

func countryRows(rows []types.LabelCount) []types.CountryCount {
	out := make([]types.CountryCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.CountryCount{Country: r.Label, Count: r.Count})
	}
	return out
}

func roleRows(rows []types.LabelCount) []types.RoleCount {
	out := make([]types.RoleCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.RoleCount{Role: r.Label, Count: r.Count})
	}
	return out
}

func kdocsRows(series []types.MonthPoint) []types.KDocsPoint {
	out := make([]types.KDocsPoint, 0, len(series))
	for _, p := range series {
		out = append(out, types.KDocsPoint{Month: p.Month, Count: p.Count, Cumulative: p.Cumulative})
	}
	return out
}

// labelCounts runs a (label, count) grouped breakdown.
func labelCounts(ctx context.Context, q querier, query string, args ...interface{}) ([]types.LabelCount, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()

	result := []types.LabelCount{}
	for rows.Next() {
		var (
			label sql.NullString
			lc    types.LabelCount
		)
		if err := rows.Scan(&label, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		lc.Label = Str(label)
		result = append(result, lc)
	}
	return result, rows.Err()
}

// monthlySeries runs a (month, count) grouped query ordered chronologically
// and fills the running total.
func monthlySeries(ctx context.Context, q querier, query string, args ...interface{}) ([]types.MonthPoint, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly series: %w", err)
	}
	defer rows.Close()

	series := []types.MonthPoint{}
	for rows.Next() {
		var (
			month time.Time
			p     types.MonthPoint
		)
		if err := rows.Scan(&month, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		p.Month = Day(month)
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate series rows: %w", err)
	}

	return accumulate(series), nil
}

func stringColumn(ctx context.Context, q querier, query string, args ...interface{}) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
