// Package projection turns a project input into its 25-year financial
// projection. Compute is a pure function of the input and the incentive
// tables: no clock, no randomness, no I/O.
package projection

import (
	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/idhash"
	"github.com/BubDublin/solar-proforma/internal/incentive"
)

// Rounding applied to derived per-row quantities. Growth factors stay exact.
const (
	ratePlaces       = 8
	productionPlaces = 6
	moneyPlaces      = 6
	paybackPlaces    = 4
)

var watts = decimal.NewFromInt(1000)

// Engine computes projections against a fixed set of incentive tables.
// Safe for concurrent use.
type Engine struct {
	tables *incentive.Tables
}

// NewEngine creates an engine bound to the given tables.
func NewEngine(tables *incentive.Tables) *Engine {
	return &Engine{tables: tables}
}

// Tables returns the incentive tables the engine reads.
func (e *Engine) Tables() *incentive.Tables {
	return e.tables
}

// ProFormaID returns the deterministic ID of an input projected by this engine.
func (e *Engine) ProFormaID(in domain.ProjectInput) string {
	return idhash.ComputeProFormaID(in, e.tables.Fingerprint())
}

// Compute runs the full projection. On error no partial result is returned.
func (e *Engine) Compute(in domain.ProjectInput) (*domain.ProjectionResult, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	res := &domain.ProjectionResult{}

	// Installed cost, summed in fixed category order
	sizeW := in.SystemSizeW()
	res.CostLines = make([]domain.CostLine, 0, len(domain.CostCategories))
	for _, c := range domain.CostCategories {
		perWatt := in.Pricing.PerWatt(c)
		line := domain.CostLine{
			Category: c,
			PerWatt:  perWatt,
			Total:    perWatt.Mul(sizeW),
		}
		res.CostLines = append(res.CostLines, line)
		res.CostPerWatt = res.CostPerWatt.Add(perWatt)
		res.InstalledCost = res.InstalledCost.Add(line.Total)
	}

	if in.Options.ITC {
		res.ITCCredit = res.InstalledCost.Mul(in.ITCRate)
	}
	res.NetCost = res.InstalledCost.Sub(res.ITCCredit)

	res.BaseElectricRate = e.baseRate(in)
	production := baseProduction(in)

	res.Rows = make([]domain.CashFlowRow, 0, domain.HorizonYears)
	escFactor := one
	degFactor := one
	escStep := one.Add(in.EscalationRate)
	degStep := one.Sub(in.DegradationRate)
	cumInflow := decimal.Zero

	for year := 1; year <= domain.HorizonYears; year++ {
		if year > 1 {
			if in.Options.Escalation {
				escFactor = escFactor.Mul(escStep)
			}
			if in.Options.Degradation {
				degFactor = degFactor.Mul(degStep)
			}
		}

		row := domain.CashFlowRow{
			Year:         year,
			CalendarYear: in.InstallYear + year - 1,
		}
		row.ElectricRate = res.BaseElectricRate.Mul(escFactor).Round(ratePlaces)
		row.ProductionKWh = production.Mul(degFactor).Round(productionPlaces)
		if year > 1 {
			if err := checkStep(in, res.Rows[year-2], row); err != nil {
				return nil, err
			}
		}
		row.ElectricSavings = row.ProductionKWh.Mul(row.ElectricRate).Round(moneyPlaces)

		row.SRECCount = row.ProductionKWh.Shift(-3)
		if in.Options.SREC {
			if price, ok := e.tables.SRECPrice(in.SRECProgram, row.CalendarYear); ok {
				row.SRECPrice = price
				row.SRECRevenue = row.SRECCount.Mul(price).Round(moneyPlaces)
			}
		}

		row.TotalInflow = row.ElectricSavings.Add(row.SRECRevenue)
		cumInflow = cumInflow.Add(row.TotalInflow)
		row.CumulativeInflow = cumInflow
		row.CumulativeCashFlow = cumInflow.Sub(res.NetCost)

		if res.PaybackYear == domain.PaybackNotWithinHorizon && !row.CumulativeCashFlow.IsNegative() {
			res.PaybackYear = year
		}

		res.Totals.ElectricSavings = res.Totals.ElectricSavings.Add(row.ElectricSavings)
		res.Totals.SRECRevenue = res.Totals.SRECRevenue.Add(row.SRECRevenue)
		res.Rows = append(res.Rows, row)
	}
	res.Totals.GrandTotal = res.Totals.ElectricSavings.Add(res.Totals.SRECRevenue)

	first := res.Rows[0]
	res.Year1ProductionKWh = first.ProductionKWh
	res.Year1Savings = first.ElectricSavings
	res.Year1SRECRevenue = first.SRECRevenue
	res.Year1Benefit = first.TotalInflow

	if first.TotalInflow.IsPositive() {
		res.SimplePaybackYears = res.NetCost.DivRound(first.TotalInflow, paybackPlaces)
	}

	return res, nil
}

// checkStep rejects growth rates too small to survive rounding, which would
// leave an enabled escalation or degradation with a flat series.
func checkStep(in domain.ProjectInput, prev, row domain.CashFlowRow) error {
	if in.Options.Escalation && in.EscalationRate.IsPositive() &&
		prev.ElectricRate.IsPositive() && !row.ElectricRate.GreaterThan(prev.ElectricRate) {
		return invalid("escalation_rate", "%s does not change the rate at %d decimal places", in.EscalationRate, ratePlaces)
	}
	if in.Options.Degradation && in.DegradationRate.IsPositive() &&
		prev.ProductionKWh.IsPositive() && !row.ProductionKWh.LessThan(prev.ProductionKWh) {
		return invalid("degradation_rate", "%s does not change production at %d decimal places", in.DegradationRate, productionPlaces)
	}
	return nil
}

func (e *Engine) baseRate(in domain.ProjectInput) decimal.Decimal {
	if in.ElectricRateOverride != nil {
		return *in.ElectricRateOverride
	}
	rate, _ := e.tables.UtilityRate(in.Utility)
	return rate
}

func baseProduction(in domain.ProjectInput) decimal.Decimal {
	if in.AnnualProductionKWh != nil {
		return *in.AnnualProductionKWh
	}
	return in.ProductionFactor.Mul(in.SystemSizeKW)
}
