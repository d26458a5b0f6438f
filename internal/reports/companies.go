package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

const companyColumns = `
	id, nazvanie, COALESCE(region, ''), COALESCE(rol, ''), COALESCE(uroven_riska, ''),
	COALESCE(indeks_ustoychivosti, 0), COALESCE(indeks_kachestva, 0),
	COALESCE(indeks_postavok, 0), ustavnyj_kapital`

// Companies lists the company register ordered by risk-tier severity, then
// name. The capital bucket label is attached per row.
func (e *Engine) Companies(ctx context.Context) (*types.CompanyList, error) {
	list := types.EmptyCompanyList()

	err := e.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT `+companyColumns+`
			FROM kompanii
			ORDER BY CASE uroven_riska
				WHEN 'Критический' THEN 1
				WHEN 'Высокий' THEN 2
				WHEN 'Средний' THEN 3
				WHEN 'Низкий' THEN 4
				ELSE 5
			END, nazvanie
			LIMIT 1000
		`)
		if err != nil {
			return fmt.Errorf("failed to query companies: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			company, err := scanCompany(rows.Scan)
			if err != nil {
				return err
			}
			list.Companies = append(list.Companies, company)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	list.Count = len(list.Companies)
	list.Meta = NewMeta(e.currency)
	return list, nil
}

// Company looks up one company by identifier. A missing row is ErrNotFound,
// never a degraded empty document.
func (e *Engine) Company(ctx context.Context, id int64) (*types.Company, error) {
	var company types.Company

	err := e.withConn(ctx, func(q querier) error {
		c, err := scanCompany(q.QueryRowContext(ctx, `
			SELECT `+companyColumns+`
			FROM kompanii
			WHERE id = $1
		`, id).Scan)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to query company %d: %w", id, err)
		}
		company = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &company, nil
}

func scanCompany(scan func(dest ...interface{}) error) (types.Company, error) {
	var (
		c       types.Company
		capital sql.NullFloat64
	)
	err := scan(
		&c.ID, &c.Name, &c.Region, &c.Role, &c.RiskTier,
		&c.StabilityIndex, &c.QualityIndex, &c.DeliveryIndex, &capital,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("failed to scan company row: %w", err)
	}

	c.StabilityIndex = Round2(c.StabilityIndex)
	c.QualityIndex = Round2(c.QualityIndex)
	c.DeliveryIndex = Round2(c.DeliveryIndex)
	c.AuthorizedCapital = Float(capital)
	if capital.Valid {
		c.CapitalBucket = CapitalScheme.Label(&capital.Float64)
	} else {
		c.CapitalBucket = CapitalScheme.Label(nil)
	}
	return c, nil
}

// CompaniesCount supports the health endpoint.
func (e *Engine) CompaniesCount(ctx context.Context) (int64, error) {
	var count int64
	err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kompanii`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return count, nil
}
