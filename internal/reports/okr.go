package reports

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

// The OKR pipeline is a fixed three-phase sequence.
var PhaseOrder = []string{"Требования", "Проектирование", "Реализация"}

// implementationPhase is the only phase whose 100%-complete tasks are
// reclassified as "completed" for funnel purposes.
const implementationPhase = "Реализация"

var phaseAliases = map[string]string{
	"требования":     "Требования",
	"requirements":   "Требования",
	"проектирование": "Проектирование",
	"design":         "Проектирование",
	"реализация":     "Реализация",
	"implementation": "Реализация",
}

// canonicalPhase maps a stored phase value onto the fixed vocabulary, or ""
// for values outside it.
func canonicalPhase(v string) string {
	return phaseAliases[strings.ToLower(strings.TrimSpace(v))]
}

const (
	statusNotStarted = "не начат"
	statusInProgress = "в работе"
	statusDone       = "завершен"
)

func canonicalStatus(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "не начат", "не начато", "not started":
		return statusNotStarted
	case "в работе", "in progress":
		return statusInProgress
	case "завершен", "завершено", "done":
		return statusDone
	default:
		return ""
	}
}

// okrSource is the resolved physical layout of the OKR data source. The
// okr_plan view carries historically varying, sometimes localized column
// names; okr_zadachi is the schema-stable fallback table.
type okrSource struct {
	table      string
	task       string
	system     string
	phase      string
	status     string
	progress   string
	plannedEnd string
}

var okrLogicalColumns = map[string][]string{
	"task":        {"задача", "zadacha", "task", "nazvanie"},
	"system":      {"система", "sistema", "system"},
	"phase":       {"этап", "etap", "phase", "stage", "фаза"},
	"status":      {"статус", "status"},
	"progress":    {"прогресс", "progress", "procent_vypolneniya", "percent"},
	"planned_end": {"план завершения", "plan_zaversheniya", "data_end", "due_date"},
}

var okrFallback = okrSource{
	table:      "okr_zadachi",
	task:       "zadacha",
	system:     "sistema",
	phase:      "etap",
	status:     "status",
	progress:   "progress",
	plannedEnd: "data_end",
}

// okrColumns resolves the OKR source once per request. When the view lacks
// any required logical column the assembler falls back to the base table
// instead of constructing a query against a nonexistent column.
func (e *Engine) okrColumns(ctx context.Context) okrSource {
	const view = "okr_plan"

	if !e.inspector.HasView(ctx, view) {
		return okrFallback
	}

	resolved, err := e.inspector.ResolveAll(ctx, view, okrLogicalColumns)
	if err != nil {
		e.logger.Warn("okr view resolution failed, using fallback table",
			zap.Error(err))
		return okrFallback
	}
	for _, required := range []string{"task", "phase", "status", "progress"} {
		if _, ok := resolved[required]; !ok {
			e.logger.Warn("okr view is missing a required column, using fallback table")
			return okrFallback
		}
	}

	src := okrSource{
		table:      view,
		task:       pq.QuoteIdentifier(resolved["task"]),
		phase:      pq.QuoteIdentifier(resolved["phase"]),
		status:     pq.QuoteIdentifier(resolved["status"]),
		progress:   pq.QuoteIdentifier(resolved["progress"]),
		system:     okrFallback.system,
		plannedEnd: okrFallback.plannedEnd,
	}
	if c, ok := resolved["system"]; ok {
		src.system = pq.QuoteIdentifier(c)
	}
	if c, ok := resolved["planned_end"]; ok {
		src.plannedEnd = pq.QuoteIdentifier(c)
	}
	return src
}

// funnelRow is one (phase, status, progress) group of the funnel query.
type funnelRow struct {
	Phase    string
	Status   string
	Progress float64
	Count    int64
}

// Funnel assembles the per-phase status distribution with a count-weighted
// completion percentage per phase.
func (e *Engine) Funnel(ctx context.Context) (*types.FunnelData, error) {
	data := types.EmptyFunnel()

	err := e.withConn(ctx, func(q querier) error {
		src := e.okrColumns(ctx)
		data.Source = src.table

		rows, err := q.QueryContext(ctx, fmt.Sprintf(`
			SELECT %s, %s, COALESCE(%s, 0) AS progress, COUNT(*) AS count
			FROM %s
			GROUP BY %s, %s, COALESCE(%s, 0)
		`, src.phase, src.status, src.progress, src.table, src.phase, src.status, src.progress))
		if err != nil {
			return fmt.Errorf("failed to query funnel groups: %w", err)
		}
		defer rows.Close()

		groups := []funnelRow{}
		for rows.Next() {
			var (
				phase, status sql.NullString
				r             funnelRow
			)
			if err := rows.Scan(&phase, &status, &r.Progress, &r.Count); err != nil {
				return fmt.Errorf("failed to scan funnel group: %w", err)
			}
			r.Phase = Str(phase)
			r.Status = Str(status)
			groups = append(groups, r)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate funnel groups: %w", err)
		}

		data.Phases = buildFunnel(groups)
		return nil
	})
	if err != nil {
		return nil, err
	}

	data.Meta = NewMeta(e.currency)
	return data, nil
}

// buildFunnel folds grouped rows into the fixed phase sequence. An
// implementation-phase group at 100% lands in the distinct "completed"
// bucket; everything else buckets by status. The weighted percentage is
// sum(count x clamped progress) / sum(count), i.e. a count-weighted mean,
// and 0 for an empty phase.
func buildFunnel(groups []funnelRow) []types.PhaseSummary {
	byPhase := make(map[string]*types.PhaseSummary, len(PhaseOrder))
	weighted := make(map[string]float64, len(PhaseOrder))

	summaries := make([]types.PhaseSummary, len(PhaseOrder))
	for i, phase := range PhaseOrder {
		summaries[i] = types.PhaseSummary{Phase: phase}
		byPhase[phase] = &summaries[i]
	}

	for _, g := range groups {
		phase := canonicalPhase(g.Phase)
		summary, ok := byPhase[phase]
		if !ok {
			continue
		}

		progress := ClampProgress(g.Progress)
		summary.Total += g.Count
		weighted[phase] += float64(g.Count) * float64(progress)

		if phase == implementationPhase && progress == 100 {
			summary.Completed += g.Count
			continue
		}
		switch canonicalStatus(g.Status) {
		case statusNotStarted:
			summary.NotStarted += g.Count
		case statusInProgress:
			summary.InProgress += g.Count
		case statusDone:
			summary.Done += g.Count
		}
	}

	for i := range summaries {
		if summaries[i].Total > 0 {
			summaries[i].WeightedPct = Round2(weighted[summaries[i].Phase] / float64(summaries[i].Total))
		}
	}
	return summaries
}

// Phase lists the tasks of one phase of the pipeline.
func (e *Engine) Phase(ctx context.Context, name string) (*types.PhaseDetail, error) {
	phase := canonicalPhase(name)
	if phase == "" {
		return nil, ErrNotFound
	}

	data := types.EmptyPhaseDetail()
	data.Phase = phase

	err := e.withConn(ctx, func(q querier) error {
		src := e.okrColumns(ctx)

		rows, err := q.QueryContext(ctx, fmt.Sprintf(`
			SELECT %s, COALESCE(%s, ''), %s, COALESCE(%s, 0), %s
			FROM %s
			WHERE LOWER(TRIM(%s)) = ANY($1)
			ORDER BY %s
			LIMIT 500
		`, src.task, src.system, src.status, src.progress, src.plannedEnd,
			src.table, src.phase, src.task),
			pq.Array(aliasesOf(phase)))
		if err != nil {
			return fmt.Errorf("failed to query phase %s: %w", phase, err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				task       types.OKRTask
				status     sql.NullString
				plannedEnd sql.NullTime
			)
			if err := rows.Scan(&task.Task, &task.System, &status, &task.Progress, &plannedEnd); err != nil {
				return fmt.Errorf("failed to scan phase task: %w", err)
			}
			task.Phase = phase
			task.Status = Str(status)
			task.Progress = float64(ClampProgress(task.Progress))
			task.PlannedEnd = NullDay(plannedEnd)
			data.Tasks = append(data.Tasks, task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	data.Count = len(data.Tasks)
	data.Meta = NewMeta(e.currency)
	return data, nil
}

func aliasesOf(phase string) []string {
	aliases := []string{}
	for alias, canonical := range phaseAliases {
		if canonical == phase {
			aliases = append(aliases, alias)
		}
	}
	return aliases
}

const (
	defaultOverdueLimit = 10
	maxOverdueLimit     = 50
)

// activeTaskPredicate filters out tasks in a terminal status. The status
// column is NULL-coalesced so an unset status counts as active rather than
// dropping out of the NOT IN comparison.
func activeTaskPredicate(statusCol string) string {
	return fmt.Sprintf(
		"LOWER(TRIM(COALESCE(%s, ''))) NOT IN ('завершен', 'завершено', 'done')",
		statusCol)
}

// Overdue lists active tasks whose planned end date is strictly in the past,
// ranked by days overdue descending.
func (e *Engine) Overdue(ctx context.Context, limit int) (*types.OverdueList, error) {
	if limit <= 0 {
		limit = defaultOverdueLimit
	}
	if limit > maxOverdueLimit {
		limit = maxOverdueLimit
	}

	data := types.EmptyOverdueList()
	now := time.Now()

	err := e.withConn(ctx, func(q querier) error {
		src := e.okrColumns(ctx)

		rows, err := q.QueryContext(ctx, fmt.Sprintf(`
			SELECT %s, COALESCE(%s, ''), %s, %s, COALESCE(%s, 0), %s
			FROM %s
			WHERE %s < $1
			  AND %s
			ORDER BY %s, %s
			LIMIT $2
		`, src.task, src.system, src.phase, src.status, src.progress, src.plannedEnd,
			src.table, src.plannedEnd, activeTaskPredicate(src.status), src.plannedEnd, src.task),
			now, limit)
		if err != nil {
			return fmt.Errorf("failed to query overdue tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				task       types.OverdueTask
				phase      sql.NullString
				status     sql.NullString
				plannedEnd time.Time
			)
			if err := rows.Scan(&task.Task, &task.System, &phase, &status, &task.Progress, &plannedEnd); err != nil {
				return fmt.Errorf("failed to scan overdue task: %w", err)
			}
			task.Phase = canonicalPhase(Str(phase))
			task.Status = Str(status)
			task.Progress = float64(ClampProgress(task.Progress))
			task.PlannedEnd = Day(plannedEnd)
			task.DaysOverdue = daysOverdue(now, plannedEnd)
			data.Tasks = append(data.Tasks, task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	data.Count = len(data.Tasks)
	data.Meta = NewMeta(e.currency)
	return data, nil
}
