package project

import "time"

// Investment type tokens accepted by the analytics schema.
const (
	InvestmentSingleYear = "single_year"
	InvestmentMultiYear  = "multi_year"
	InvestmentCarryOver  = "carry_over"
)

// Issue status tokens accepted by the analytics schema.
const (
	IssueOpen   = "open"
	IssueClosed = "closed"
)

// Columns is the explicit, ordered column list shared by the bulk load and
// streaming apply paths. Both always produce structurally identical rows;
// AnalyticsRow.Values returns values in exactly this order.
var Columns = []string{
	"project_id",
	"region",
	"terminal",
	"title",
	"asset_category",
	"investment_type",
	"proposal_year",
	"budget_year",
	"status",
	"issue_category",
	"issue_note",
	"action_plan",
	"pic",
	"issue_status",
	"budget_required",
	"budget_plan",
	"contract_title",
	"contract_number",
	"contract_value",
	"prior_years_spend",
	"vendor",
	"contract_date",
	"start_date",
	"end_date",
	"duration_days",
	"duration_unit",
	"plan_q1",
	"plan_q2",
	"plan_q3",
	"plan_q4",
	"actual_q1",
	"actual_q2",
	"actual_q3",
	"actual_q4",
	"forecast_total",
	"latitude",
	"longitude",
	"created_at",
	"updated_at",
}

// Row is a project investment row as read from the authoritative store.
// Nullable columns are pointers so the adapter can tell absent from zero.
type Row struct {
	ProjectID       string
	Region          *string
	Terminal        *string
	Title           *string
	AssetCategory   *string
	InvestmentType  *string
	ProposalYear    *int32
	BudgetYear      *int32
	Status          *string
	IssueCategory   *string
	IssueNote       *string
	ActionPlan      *string
	PIC             *string
	IssueStatus     *string
	BudgetRequired  *float64
	BudgetPlan      *float64
	ContractTitle   *string
	ContractNumber  *string
	ContractValue   *float64
	PriorYearsSpend *float64
	Vendor          *string
	ContractDate    *time.Time
	StartDate       *time.Time
	EndDate         *time.Time
	DurationDays    *int32
	DurationUnit    *string
	PlanQ1          *float64
	PlanQ2          *float64
	PlanQ3          *float64
	PlanQ4          *float64
	ActualQ1        *float64
	ActualQ2        *float64
	ActualQ3        *float64
	ActualQ4        *float64
	ForecastTotal   *float64
	Latitude        *float64
	Longitude       *float64
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// ScanDest returns scan targets aligned with Columns for row reads from the
// authoritative store.
func (r *Row) ScanDest() []any {
	return []any{
		&r.ProjectID,
		&r.Region,
		&r.Terminal,
		&r.Title,
		&r.AssetCategory,
		&r.InvestmentType,
		&r.ProposalYear,
		&r.BudgetYear,
		&r.Status,
		&r.IssueCategory,
		&r.IssueNote,
		&r.ActionPlan,
		&r.PIC,
		&r.IssueStatus,
		&r.BudgetRequired,
		&r.BudgetPlan,
		&r.ContractTitle,
		&r.ContractNumber,
		&r.ContractValue,
		&r.PriorYearsSpend,
		&r.Vendor,
		&r.ContractDate,
		&r.StartDate,
		&r.EndDate,
		&r.DurationDays,
		&r.DurationUnit,
		&r.PlanQ1,
		&r.PlanQ2,
		&r.PlanQ3,
		&r.PlanQ4,
		&r.ActualQ1,
		&r.ActualQ2,
		&r.ActualQ3,
		&r.ActualQ4,
		&r.ForecastTotal,
		&r.Latitude,
		&r.Longitude,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

// AnalyticsRow is the type-adapted projection written to the analytical store.
// Enum columns always carry a valid token, numeric columns are always present,
// temporal columns stay nil when the source has no value.
type AnalyticsRow struct {
	ProjectID       string
	Region          string
	Terminal        string
	Title           string
	AssetCategory   string
	InvestmentType  string
	ProposalYear    int32
	BudgetYear      int32
	Status          string
	IssueCategory   string
	IssueNote       string
	ActionPlan      string
	PIC             string
	IssueStatus     string
	BudgetRequired  float64
	BudgetPlan      float64
	ContractTitle   string
	ContractNumber  string
	ContractValue   float64
	PriorYearsSpend float64
	Vendor          string
	ContractDate    *time.Time
	StartDate       *time.Time
	EndDate         *time.Time
	DurationDays    int32
	DurationUnit    string
	PlanQ1          float64
	PlanQ2          float64
	PlanQ3          float64
	PlanQ4          float64
	ActualQ1        float64
	ActualQ2        float64
	ActualQ3        float64
	ActualQ4        float64
	ForecastTotal   float64
	Latitude        *float64
	Longitude       *float64
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// Values returns the row values aligned with Columns.
func (r AnalyticsRow) Values() []any {
	return []any{
		r.ProjectID,
		r.Region,
		r.Terminal,
		r.Title,
		r.AssetCategory,
		r.InvestmentType,
		r.ProposalYear,
		r.BudgetYear,
		r.Status,
		r.IssueCategory,
		r.IssueNote,
		r.ActionPlan,
		r.PIC,
		r.IssueStatus,
		r.BudgetRequired,
		r.BudgetPlan,
		r.ContractTitle,
		r.ContractNumber,
		r.ContractValue,
		r.PriorYearsSpend,
		r.Vendor,
		r.ContractDate,
		r.StartDate,
		r.EndDate,
		r.DurationDays,
		r.DurationUnit,
		r.PlanQ1,
		r.PlanQ2,
		r.PlanQ3,
		r.PlanQ4,
		r.ActualQ1,
		r.ActualQ2,
		r.ActualQ3,
		r.ActualQ4,
		r.ForecastTotal,
		r.Latitude,
		r.Longitude,
		r.CreatedAt,
		r.UpdatedAt,
	}
}
