// Package verification checks that projections are reproducible: the engine
// run twice agrees with itself, and saved pro-formas agree with a fresh run.
package verification

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/idhash"
	"github.com/BubDublin/solar-proforma/internal/projection"
)

// FieldDivergence represents a mismatch between expected and actual values.
type FieldDivergence struct {
	Field    string      `json:"field"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
}

// VerificationResult contains the result of verifying a single pro-forma.
type VerificationResult struct {
	ProFormaID     string            `json:"proforma_id"`
	Match          bool              `json:"match"`
	Divergences    []FieldDivergence `json:"divergences,omitempty"`
	ExpectedDigest string            `json:"expected_digest"`
	ActualDigest   string            `json:"actual_digest"`
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	Total     int                  `json:"total"`
	Matched   int                  `json:"matched"`
	Divergent int                  `json:"divergent"`
	Results   []VerificationResult `json:"results"`
}

// VerifyDeterminism computes the input twice and compares every field exactly.
func VerifyDeterminism(engine *projection.Engine, in domain.ProjectInput) (*VerificationResult, error) {
	first, err := engine.Compute(in)
	if err != nil {
		return nil, err
	}
	second, err := engine.Compute(in)
	if err != nil {
		return nil, err
	}

	divergences := CompareResults(first, second)
	return &VerificationResult{
		ProFormaID:     engine.ProFormaID(in),
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		ExpectedDigest: idhash.ComputeResultDigest(first),
		ActualDigest:   idhash.ComputeResultDigest(second),
	}, nil
}

// CompareResults compares two projection results and returns divergences.
// Decimals are compared by value, so 1.50 equals 1.5.
func CompareResults(expected, actual *domain.ProjectionResult) []FieldDivergence {
	var d divergences

	d.decimalField("CostPerWatt", expected.CostPerWatt, actual.CostPerWatt)
	d.decimalField("InstalledCost", expected.InstalledCost, actual.InstalledCost)
	d.decimalField("ITCCredit", expected.ITCCredit, actual.ITCCredit)
	d.decimalField("NetCost", expected.NetCost, actual.NetCost)
	d.decimalField("BaseElectricRate", expected.BaseElectricRate, actual.BaseElectricRate)
	d.decimalField("Year1ProductionKWh", expected.Year1ProductionKWh, actual.Year1ProductionKWh)
	d.decimalField("Year1Savings", expected.Year1Savings, actual.Year1Savings)
	d.decimalField("Year1SRECRevenue", expected.Year1SRECRevenue, actual.Year1SRECRevenue)
	d.decimalField("Year1Benefit", expected.Year1Benefit, actual.Year1Benefit)
	d.intField("PaybackYear", expected.PaybackYear, actual.PaybackYear)
	d.decimalField("SimplePaybackYears", expected.SimplePaybackYears, actual.SimplePaybackYears)
	d.decimalField("Totals.ElectricSavings", expected.Totals.ElectricSavings, actual.Totals.ElectricSavings)
	d.decimalField("Totals.SRECRevenue", expected.Totals.SRECRevenue, actual.Totals.SRECRevenue)
	d.decimalField("Totals.GrandTotal", expected.Totals.GrandTotal, actual.Totals.GrandTotal)

	if len(expected.CostLines) != len(actual.CostLines) {
		d.intField("len(CostLines)", len(expected.CostLines), len(actual.CostLines))
	} else {
		for i := range expected.CostLines {
			e, a := expected.CostLines[i], actual.CostLines[i]
			if e.Category != a.Category {
				d.add(fmt.Sprintf("CostLines[%d].Category", i), e.Category, a.Category)
			}
			d.decimalField(fmt.Sprintf("CostLines[%d].Total", i), e.Total, a.Total)
		}
	}

	return append(d, CompareRows(expected.Rows, actual.Rows)...)
}

// CompareRows compares two cash-flow tables year by year.
func CompareRows(expected, actual []domain.CashFlowRow) []FieldDivergence {
	var d divergences

	if len(expected) != len(actual) {
		d.intField("len(Rows)", len(expected), len(actual))
		return d
	}

	for i := range expected {
		e, a := expected[i], actual[i]
		prefix := fmt.Sprintf("Rows[%d].", i)

		d.intField(prefix+"Year", e.Year, a.Year)
		d.intField(prefix+"CalendarYear", e.CalendarYear, a.CalendarYear)
		d.decimalField(prefix+"ElectricRate", e.ElectricRate, a.ElectricRate)
		d.decimalField(prefix+"ProductionKWh", e.ProductionKWh, a.ProductionKWh)
		d.decimalField(prefix+"ElectricSavings", e.ElectricSavings, a.ElectricSavings)
		d.decimalField(prefix+"SRECPrice", e.SRECPrice, a.SRECPrice)
		d.decimalField(prefix+"SRECCount", e.SRECCount, a.SRECCount)
		d.decimalField(prefix+"SRECRevenue", e.SRECRevenue, a.SRECRevenue)
		d.decimalField(prefix+"TotalInflow", e.TotalInflow, a.TotalInflow)
		d.decimalField(prefix+"CumulativeInflow", e.CumulativeInflow, a.CumulativeInflow)
		d.decimalField(prefix+"CumulativeCashFlow", e.CumulativeCashFlow, a.CumulativeCashFlow)
	}

	return d
}

type divergences []FieldDivergence

func (d *divergences) add(field string, expected, actual interface{}) {
	*d = append(*d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
}

func (d *divergences) decimalField(field string, expected, actual decimal.Decimal) {
	if !expected.Equal(actual) {
		d.add(field, expected.String(), actual.String())
	}
}

func (d *divergences) intField(field string, expected, actual int) {
	if expected != actual {
		d.add(field, expected, actual)
	}
}
