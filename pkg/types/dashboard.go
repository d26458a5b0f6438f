package types

// Meta is attached to every report payload.
type Meta struct {
	GeneratedAt string `json:"generated_at"`
	Currency    string `json:"currency"`
}

// KPIBlock is the headline scalar block of the overall dashboard.
// Current vs previous period values come from one conditional-aggregation row.
type KPIBlock struct {
	ComponentsCurr  int64   `json:"komponenty_count_curr"`
	ComponentsPrev  int64   `json:"komponenty_count_prev"`
	AvgProgressCurr float64 `json:"avg_progress_curr"`
	AvgProgressPrev float64 `json:"avg_progress_prev"`
	RisksOpenCurr   int64   `json:"risks_open_curr"`
	RisksOpenPrev   int64   `json:"risks_open_prev"`
}

// LabelCount is a generic grouped-breakdown row (pie/bar charts).
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// MonthPoint is one bucket of a monthly time series with a running total.
type MonthPoint struct {
	Month      string `json:"month"`
	Count      int64  `json:"count"`
	Cumulative int64  `json:"cum"`
}

// The overall-dashboard breakdowns keep their source column as the row key;
// chart code addresses rows by it.

// StatusCount is one slice of the component-status pie.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// KDocsPoint is one month bucket of the document-release series.
type KDocsPoint struct {
	Month      string `json:"data_vypuska"`
	Count      int64  `json:"count"`
	Cumulative int64  `json:"cum"`
}

// CountryCount is one row of the suppliers-by-country breakdown.
type CountryCount struct {
	Country string `json:"strana"`
	Count   int64  `json:"count"`
}

// ImpactCount is one row of the risks-by-impact pie.
type ImpactCount struct {
	Impact string `json:"vliyanie"`
	Count  int64  `json:"count"`
}

// RoleCount is one slice of the companies-by-role pie.
type RoleCount struct {
	Role  string `json:"rol"`
	Count int64  `json:"count"`
}

// SupplierCount is one row of the top-suppliers ranking.
type SupplierCount struct {
	CompanyID  int64  `json:"kompaniya_id"`
	Name       string `json:"nazvanie_kompanii"`
	Components int64  `json:"components"`
}

// HeatCell is one cell of the role x risk-category heatmap.
type HeatCell struct {
	Role     string `json:"rol"`
	Category string `json:"kategoriya_riska"`
	Count    int64  `json:"cnt"`
}

// HeatBlock carries the heatmap axes plus populated cells.
type HeatBlock struct {
	Roles      []string   `json:"roles"`
	Categories []string   `json:"categories"`
	Cells      []HeatCell `json:"cells"`
}

// GanttRow is one scheduled component on the timeline view.
type GanttRow struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
	Owner    string  `json:"owner"`
}

// RiskCategoryRow is the per-category status breakdown of risks.
type RiskCategoryRow struct {
	Category        string `json:"kategoriya"`
	OpenCount       int64  `json:"open_count"`
	InProgressCount int64  `json:"in_progress_count"`
	ClosedCount     int64  `json:"closed_count"`
	TotalCount      int64  `json:"total_count"`
}

// RiskPoint is one open risk on the probability/impact scatter.
type RiskPoint struct {
	ID          int64   `json:"id"`
	Category    string  `json:"kategoriya"`
	Description string  `json:"opisanie"`
	Probability float64 `json:"veroyatnost"`
	Impact      string  `json:"vliyanie"`
	Status      string  `json:"status"`
	Component   string  `json:"komponent_nazvanie"`
}

// TopRisk is one row of the critical-risks ranking, scored by
// probability x impact weight.
type TopRisk struct {
	Category    string  `json:"kategoriya"`
	Description string  `json:"opisanie"`
	Probability float64 `json:"veroyatnost"`
	Impact      string  `json:"vliyanie"`
	Component   string  `json:"komponent_nazvanie"`
	Score       float64 `json:"risk_score"`
}

// DashboardData is the full payload of the overall dashboard report.
// Every block has a documented default so a failed sub-query degrades to an
// empty block instead of aborting the response.
type DashboardData struct {
	KPI                KPIBlock          `json:"kpi"`
	PieStatus          []StatusCount     `json:"pie_status"`
	KDocsMonth         []KDocsPoint      `json:"kdocs_month"`
	TopSuppliers       []SupplierCount   `json:"top_suppliers"`
	OtherSuppliers     int64             `json:"other_suppliers"`
	Heat               HeatBlock         `json:"heat"`
	Gantt              []GanttRow        `json:"gantt"`
	SuppliersByCountry []CountryCount    `json:"suppliers_by_country"`
	RisksByCategory    []RiskCategoryRow `json:"risks_by_category"`
	RisksMatrix        []RiskPoint       `json:"risks_matrix"`
	RisksByImpact      []ImpactCount     `json:"risks_by_impact"`
	TopRisks           []TopRisk         `json:"top_risks"`
	CompaniesByRole    []RoleCount       `json:"companies_by_role"`
	Meta               Meta              `json:"meta"`
	Error              string            `json:"error,omitempty"`

	// Degraded marks a document with at least one failed block. It never
	// reaches the wire; callers use it to decide whether the document is
	// worth caching.
	Degraded bool `json:"-"`
}

// EmptyDashboard returns the degraded default shape: same keys, zero values,
// empty (not null) collections so chart code stays renderable.
func EmptyDashboard() *DashboardData {
	return &DashboardData{
		PieStatus:          []StatusCount{},
		KDocsMonth:         []KDocsPoint{},
		TopSuppliers:       []SupplierCount{},
		Heat:               HeatBlock{Roles: []string{}, Categories: []string{}, Cells: []HeatCell{}},
		Gantt:              []GanttRow{},
		SuppliersByCountry: []CountryCount{},
		RisksByCategory:    []RiskCategoryRow{},
		RisksMatrix:        []RiskPoint{},
		RisksByImpact:      []ImpactCount{},
		TopRisks:           []TopRisk{},
		CompaniesByRole:    []RoleCount{},
	}
}

func (d *DashboardData) SetError(msg string) { d.Error = msg }

// Company is one row of the company register.
type Company struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Region            string  `json:"region"`
	Role              string  `json:"role"`
	RiskTier          string  `json:"risk_tier"`
	StabilityIndex    float64 `json:"stability_index"`
	QualityIndex      float64 `json:"quality_index"`
	DeliveryIndex     float64 `json:"delivery_index"`
	AuthorizedCapital float64 `json:"authorized_capital"`
	CapitalBucket     string  `json:"capital_bucket"`
}

// CompanyList is the /api/companies payload.
type CompanyList struct {
	Companies []Company `json:"companies"`
	Count     int       `json:"count"`
	Meta      Meta      `json:"meta"`
	Error     string    `json:"error,omitempty"`
}

func EmptyCompanyList() *CompanyList {
	return &CompanyList{Companies: []Company{}}
}

func (c *CompanyList) SetError(msg string) { c.Error = msg }

// ComponentKPI is the scalar block of the component-metrics report.
// AvgQuantity and MedianQuantity are deliberately distinct statistics.
type ComponentKPI struct {
	TotalComponents int64   `json:"total_components"`
	TotalQuantity   int64   `json:"total_quantity"`
	AvgQuantity     float64 `json:"avg_quantity"`
	MedianQuantity  float64 `json:"median_quantity"`
	Suppliers       int64   `json:"suppliers"`
}

// ComponentMetrics is the filtered component-metrics payload.
type ComponentMetrics struct {
	KPI            ComponentKPI `json:"kpi"`
	ByGroup        []LabelCount `json:"by_group"`
	TopSuppliers   []LabelCount `json:"top_suppliers"`
	OtherSuppliers int64        `json:"other_suppliers"`
	CreatedMonthly []MonthPoint `json:"created_monthly"`
	Meta           Meta         `json:"meta"`
	Error          string       `json:"error,omitempty"`
}

func EmptyComponentMetrics() *ComponentMetrics {
	return &ComponentMetrics{
		ByGroup:        []LabelCount{},
		TopSuppliers:   []LabelCount{},
		CreatedMonthly: []MonthPoint{},
	}
}

func (c *ComponentMetrics) SetError(msg string) { c.Error = msg }

// PhaseSummary is one stage of the OKR funnel.
type PhaseSummary struct {
	Phase       string  `json:"phase"`
	NotStarted  int64   `json:"not_started"`
	InProgress  int64   `json:"in_progress"`
	Done        int64   `json:"done"`
	Completed   int64   `json:"completed"`
	Total       int64   `json:"total"`
	WeightedPct float64 `json:"weighted_pct"`
}

// FunnelData is the phase-funnel payload.
type FunnelData struct {
	Phases []PhaseSummary `json:"phases"`
	Source string         `json:"source"`
	Meta   Meta           `json:"meta"`
	Error  string         `json:"error,omitempty"`
}

func EmptyFunnel() *FunnelData {
	return &FunnelData{Phases: []PhaseSummary{}}
}

func (f *FunnelData) SetError(msg string) { f.Error = msg }

// OKRTask is one work item in a phase listing.
type OKRTask struct {
	Task       string  `json:"task"`
	System     string  `json:"system"`
	Phase      string  `json:"phase"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	PlannedEnd string  `json:"planned_end"`
}

// PhaseDetail is the listing of tasks within one phase.
type PhaseDetail struct {
	Phase string    `json:"phase"`
	Tasks []OKRTask `json:"tasks"`
	Count int       `json:"count"`
	Meta  Meta      `json:"meta"`
	Error string    `json:"error,omitempty"`
}

func EmptyPhaseDetail() *PhaseDetail {
	return &PhaseDetail{Tasks: []OKRTask{}}
}

func (p *PhaseDetail) SetError(msg string) { p.Error = msg }

// OverdueTask is an active task whose planned end date has passed.
type OverdueTask struct {
	Task        string  `json:"task"`
	System      string  `json:"system"`
	Phase       string  `json:"phase"`
	Status      string  `json:"status"`
	Progress    float64 `json:"progress"`
	PlannedEnd  string  `json:"planned_end"`
	DaysOverdue int     `json:"days_overdue"`
}

// OverdueList is the overdue-tasks payload.
type OverdueList struct {
	Tasks []OverdueTask `json:"tasks"`
	Count int           `json:"count"`
	Meta  Meta          `json:"meta"`
	Error string        `json:"error,omitempty"`
}

func EmptyOverdueList() *OverdueList {
	return &OverdueList{Tasks: []OverdueTask{}}
}

func (o *OverdueList) SetError(msg string) { o.Error = msg }

// CalendarDay aggregates audit visits covering one calendar day.
type CalendarDay struct {
	Day         string `json:"day"`
	Count       int64  `json:"count"`
	SpecialCity bool   `json:"special_city"`
}

// VisitCalendar is the calendar-expanded visits payload.
type VisitCalendar struct {
	From  string        `json:"from"`
	To    string        `json:"to"`
	Days  []CalendarDay `json:"days"`
	Meta  Meta          `json:"meta"`
	Error string        `json:"error,omitempty"`
}

func EmptyVisitCalendar() *VisitCalendar {
	return &VisitCalendar{Days: []CalendarDay{}}
}

func (v *VisitCalendar) SetError(msg string) { v.Error = msg }

// LookupList is a bounded list of distinct attribute values.
type LookupList struct {
	Values []string `json:"values"`
	Count  int      `json:"count"`
	Limit  int      `json:"limit"`
	Meta   Meta     `json:"meta"`
	Error  string   `json:"error,omitempty"`
}

func EmptyLookupList() *LookupList {
	return &LookupList{Values: []string{}}
}

func (l *LookupList) SetError(msg string) { l.Error = msg }

// ExportResult describes a generated dashboard export.
type ExportResult struct {
	ExportID    string `json:"export_id"`
	Format      string `json:"format"`
	FileSize    int64  `json:"file_size"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   string `json:"expires_in"`
}

// Export formats.
const (
	FormatExcel = "xlsx"
	FormatCSV   = "csv"
)
