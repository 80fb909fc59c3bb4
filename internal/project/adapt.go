package project

import "time"

// Adapt maps an authoritative row to its analytics projection. It is a total
// function with no I/O: every source row produces a writable target row.
//
// Coercion rules:
//   - enum columns substitute their default token for absent, empty, or
//     unknown values; the target enum type cannot hold an empty string
//   - numeric columns coerce missing values to zero, never null
//   - temporal columns stay nil when missing; a date has no meaningful zero
//   - timezone-bearing timestamps are normalized to UTC before transmission,
//     the target has no timezone-aware temporal type
func Adapt(row Row) AnalyticsRow {
	return AnalyticsRow{
		ProjectID:       row.ProjectID,
		Region:          str(row.Region),
		Terminal:        str(row.Terminal),
		Title:           str(row.Title),
		AssetCategory:   str(row.AssetCategory),
		InvestmentType:  enum(row.InvestmentType, InvestmentSingleYear, InvestmentSingleYear, InvestmentMultiYear, InvestmentCarryOver),
		ProposalYear:    i32(row.ProposalYear),
		BudgetYear:      i32(row.BudgetYear),
		Status:          str(row.Status),
		IssueCategory:   str(row.IssueCategory),
		IssueNote:       str(row.IssueNote),
		ActionPlan:      str(row.ActionPlan),
		PIC:             str(row.PIC),
		IssueStatus:     enum(row.IssueStatus, IssueOpen, IssueOpen, IssueClosed),
		BudgetRequired:  f64(row.BudgetRequired),
		BudgetPlan:      f64(row.BudgetPlan),
		ContractTitle:   str(row.ContractTitle),
		ContractNumber:  str(row.ContractNumber),
		ContractValue:   f64(row.ContractValue),
		PriorYearsSpend: f64(row.PriorYearsSpend),
		Vendor:          str(row.Vendor),
		ContractDate:    date(row.ContractDate),
		StartDate:       date(row.StartDate),
		EndDate:         date(row.EndDate),
		DurationDays:    i32(row.DurationDays),
		DurationUnit:    str(row.DurationUnit),
		PlanQ1:          f64(row.PlanQ1),
		PlanQ2:          f64(row.PlanQ2),
		PlanQ3:          f64(row.PlanQ3),
		PlanQ4:          f64(row.PlanQ4),
		ActualQ1:        f64(row.ActualQ1),
		ActualQ2:        f64(row.ActualQ2),
		ActualQ3:        f64(row.ActualQ3),
		ActualQ4:        f64(row.ActualQ4),
		ForecastTotal:   f64(row.ForecastTotal),
		Latitude:        row.Latitude,
		Longitude:       row.Longitude,
		CreatedAt:       naiveUTC(row.CreatedAt),
		UpdatedAt:       naiveUTC(row.UpdatedAt),
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func enum(v *string, fallback string, allowed ...string) string {
	if v == nil || *v == "" {
		return fallback
	}
	for _, candidate := range allowed {
		if *v == candidate {
			return *v
		}
	}
	return fallback
}

func f64(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func i32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

func date(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	d := *v
	return &d
}

func naiveUTC(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	u := v.UTC()
	return &u
}
