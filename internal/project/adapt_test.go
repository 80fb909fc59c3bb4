package project

import (
	"testing"
	"time"
)

func strp(s string) *string        { return &s }
func f64p(f float64) *float64      { return &f }
func timep(t time.Time) *time.Time { return &t }

func TestAdaptEnumDefaulting(t *testing.T) {
	cases := []struct {
		name string
		in   *string
		want string
	}{
		{"nil", nil, InvestmentSingleYear},
		{"empty", strp(""), InvestmentSingleYear},
		{"unknown", strp("speculative"), InvestmentSingleYear},
		{"valid", strp(InvestmentCarryOver), InvestmentCarryOver},
	}
	for _, tc := range cases {
		out := Adapt(Row{ProjectID: "p1", InvestmentType: tc.in})
		if out.InvestmentType != tc.want {
			t.Fatalf("%s: investment_type = %q, want %q", tc.name, out.InvestmentType, tc.want)
		}
	}

	out := Adapt(Row{ProjectID: "p1"})
	if out.IssueStatus != IssueOpen {
		t.Fatalf("issue_status = %q, want %q", out.IssueStatus, IssueOpen)
	}
	out = Adapt(Row{ProjectID: "p1", IssueStatus: strp(IssueClosed)})
	if out.IssueStatus != IssueClosed {
		t.Fatalf("issue_status = %q, want %q", out.IssueStatus, IssueClosed)
	}
}

func TestAdaptNumericZeroing(t *testing.T) {
	out := Adapt(Row{ProjectID: "p1"})
	if out.BudgetRequired != 0 || out.ContractValue != 0 || out.PlanQ3 != 0 || out.ForecastTotal != 0 {
		t.Fatalf("nil numerics did not coerce to zero: %+v", out)
	}
	if out.ProposalYear != 0 || out.DurationDays != 0 {
		t.Fatalf("nil integers did not coerce to zero: %+v", out)
	}

	out = Adapt(Row{ProjectID: "p1", BudgetPlan: f64p(1250000.50)})
	if out.BudgetPlan != 1250000.50 {
		t.Fatalf("budget_plan = %v, want 1250000.50", out.BudgetPlan)
	}
}

func TestAdaptTemporalStaysNull(t *testing.T) {
	out := Adapt(Row{ProjectID: "p1"})
	if out.ContractDate != nil || out.StartDate != nil || out.EndDate != nil {
		t.Fatalf("nil dates must stay nil, got %+v", out)
	}
	if out.Latitude != nil || out.Longitude != nil {
		t.Fatalf("nil coordinates must stay nil, got %+v", out)
	}

	d := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	out = Adapt(Row{ProjectID: "p1", ContractDate: timep(d)})
	if out.ContractDate == nil || !out.ContractDate.Equal(d) {
		t.Fatalf("contract_date = %v, want %v", out.ContractDate, d)
	}
}

func TestAdaptTimestampNormalizedToUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	local := time.Date(2025, 6, 1, 9, 30, 0, 0, jakarta)
	out := Adapt(Row{ProjectID: "p1", UpdatedAt: timep(local)})
	if out.UpdatedAt == nil {
		t.Fatal("updated_at dropped")
	}
	if out.UpdatedAt.Location() != time.UTC {
		t.Fatalf("updated_at location = %v, want UTC", out.UpdatedAt.Location())
	}
	if got := out.UpdatedAt.Hour(); got != 2 {
		t.Fatalf("updated_at hour = %d, want 2", got)
	}
	if out.CreatedAt != nil {
		t.Fatalf("created_at = %v, want nil", out.CreatedAt)
	}
}

func TestValuesAlignWithColumns(t *testing.T) {
	row := AnalyticsRow{ProjectID: "p1"}
	vals := row.Values()
	if len(vals) != len(Columns) {
		t.Fatalf("values length %d, columns length %d", len(vals), len(Columns))
	}
	var scan Row
	if got := len(scan.ScanDest()); got != len(Columns) {
		t.Fatalf("scan targets length %d, columns length %d", got, len(Columns))
	}
	if vals[0] != "p1" {
		t.Fatalf("first value = %v, want project id", vals[0])
	}
}
