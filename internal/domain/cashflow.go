package domain

import "github.com/shopspring/decimal"

// HorizonYears is the length of every cash-flow projection.
const HorizonYears = 25

// PaybackNotWithinHorizon is the PaybackYear sentinel when cumulative
// cash flow never turns non-negative inside the horizon.
const PaybackNotWithinHorizon = 0

// CashFlowRow is one projection year. Rows are derived and recomputed in
// full on every engine call.
type CashFlowRow struct {
	Year         int `json:"year"`          // 1..HorizonYears
	CalendarYear int `json:"calendar_year"` // InstallYear + Year - 1

	ElectricRate    decimal.Decimal `json:"electric_rate"`    // effective $/kWh this year
	ProductionKWh   decimal.Decimal `json:"production_kwh"`   // after degradation
	ElectricSavings decimal.Decimal `json:"electric_savings"` // production x rate

	SRECPrice   decimal.Decimal `json:"srec_price"`   // $/SREC, zero when unavailable or disabled
	SRECCount   decimal.Decimal `json:"srec_count"`   // MWh generated
	SRECRevenue decimal.Decimal `json:"srec_revenue"` // count x price

	TotalInflow        decimal.Decimal `json:"total_inflow"`
	CumulativeInflow   decimal.Decimal `json:"cumulative_inflow"`    // sum of inflows through this year
	CumulativeCashFlow decimal.Decimal `json:"cumulative_cash_flow"` // -net cost + cumulative inflow
}

// CostLine is one category of the installed-cost breakdown.
type CostLine struct {
	Category CostCategory    `json:"category"`
	PerWatt  decimal.Decimal `json:"per_watt"`
	Total    decimal.Decimal `json:"total"`
}

// Totals sums the projection over the full horizon.
type Totals struct {
	ElectricSavings decimal.Decimal `json:"electric_savings"`
	SRECRevenue     decimal.Decimal `json:"srec_revenue"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// ProjectionResult is the complete, immutable output of one engine call.
type ProjectionResult struct {
	// Cost
	CostLines     []CostLine      `json:"cost_lines"`
	CostPerWatt   decimal.Decimal `json:"cost_per_watt"`
	InstalledCost decimal.Decimal `json:"installed_cost"`
	ITCCredit     decimal.Decimal `json:"itc_credit"`
	NetCost       decimal.Decimal `json:"net_cost"`

	// Year 1 headline
	BaseElectricRate   decimal.Decimal `json:"base_electric_rate"`
	Year1ProductionKWh decimal.Decimal `json:"year1_production_kwh"`
	Year1Savings       decimal.Decimal `json:"year1_savings"`
	Year1SRECRevenue   decimal.Decimal `json:"year1_srec_revenue"`
	Year1Benefit       decimal.Decimal `json:"year1_benefit"`

	// Payback
	PaybackYear        int             `json:"payback_year"`         // PaybackNotWithinHorizon if none
	SimplePaybackYears decimal.Decimal `json:"simple_payback_years"` // net cost / year-1 inflow, zero if no inflow

	Totals Totals        `json:"totals"`
	Rows   []CashFlowRow `json:"rows"`
}

// HasPayback reports whether cumulative cash flow turns non-negative within the horizon.
func (r *ProjectionResult) HasPayback() bool {
	return r.PaybackYear != PaybackNotWithinHorizon
}

// Headline is the small set of metrics shown on every input change.
type Headline struct {
	InstalledCost      decimal.Decimal `json:"installed_cost"`
	ITCCredit          decimal.Decimal `json:"itc_credit"`
	NetCost            decimal.Decimal `json:"net_cost"`
	Year1Benefit       decimal.Decimal `json:"year1_benefit"`
	PaybackYear        int             `json:"payback_year"`
	PaybackWithin      bool            `json:"payback_within_horizon"`
	SimplePaybackYears decimal.Decimal `json:"simple_payback_years"`
}

// Headline extracts the live-preview metrics.
func (r *ProjectionResult) Headline() Headline {
	return Headline{
		InstalledCost:      r.InstalledCost,
		ITCCredit:          r.ITCCredit,
		NetCost:            r.NetCost,
		Year1Benefit:       r.Year1Benefit,
		PaybackYear:        r.PaybackYear,
		PaybackWithin:      r.HasPayback(),
		SimplePaybackYears: r.SimplePaybackYears,
	}
}
