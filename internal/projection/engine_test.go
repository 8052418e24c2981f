package projection

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/incentive"
)

const flatRateTables = `
programs:
  - id: md-standard
    name: MD short
    location: maryland
    market_fraction: 1
    multiplier: 1
    start_year: 2025
    acp: [100, 100, 100]
utilities:
  - id: pepco-md
    name: Flat
    rate: 0.15
    locations: [maryland]
`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	tables, err := incentive.Default()
	require.NoError(t, err)
	return NewEngine(tables)
}

func flatEngine(t *testing.T) *Engine {
	t.Helper()
	tables, err := incentive.Load(strings.NewReader(flatRateTables))
	require.NoError(t, err)
	return NewEngine(tables)
}

// tenKW is a 10 kW system at $3/W producing 1300 kWh/kW against a flat 0.15 rate.
func tenKW() domain.ProjectInput {
	return domain.ProjectInput{
		CustomerName:     "Test",
		ProjectName:      "Ten kW",
		SystemSizeKW:     dec("10"),
		Location:         domain.LocationMaryland,
		Utility:          domain.UtilityPepcoMD,
		Pricing:          domain.Pricing{domain.CostModules: dec("3")},
		ProductionFactor: dec("1300"),
		ITCRate:          domain.DefaultITCRate,
		EscalationRate:   domain.EscalationModerate,
		DegradationRate:  domain.DefaultDegradationRate,
		InstallYear:      2025,
	}
}

func TestCompute_TenKWScenario(t *testing.T) {
	res, err := flatEngine(t).Compute(tenKW())
	require.NoError(t, err)

	assert.True(t, res.InstalledCost.Equal(dec("30000")), "installed cost = %s", res.InstalledCost)
	assert.True(t, res.ITCCredit.IsZero())
	assert.True(t, res.NetCost.Equal(dec("30000")))
	assert.True(t, res.CostPerWatt.Equal(dec("3")))
	assert.True(t, res.Year1ProductionKWh.Equal(dec("13000")))
	assert.True(t, res.Year1Savings.Equal(dec("1950")), "year-1 savings = %s", res.Year1Savings)
	assert.True(t, res.Year1Benefit.Equal(dec("1950")))
	assert.Equal(t, 16, res.PaybackYear)
	assert.True(t, res.HasPayback())
	assert.True(t, res.SimplePaybackYears.Equal(dec("15.3846")), "simple payback = %s", res.SimplePaybackYears)

	require.Len(t, res.Rows, domain.HorizonYears)
	assert.True(t, res.Rows[14].CumulativeCashFlow.IsNegative())
	assert.True(t, res.Rows[15].CumulativeCashFlow.Equal(dec("1200")))
	assert.True(t, res.Totals.ElectricSavings.Equal(dec("48750")))
	assert.True(t, res.Totals.SRECRevenue.IsZero())
	assert.True(t, res.Totals.GrandTotal.Equal(dec("48750")))
}

func TestCompute_RateOverride(t *testing.T) {
	in := tenKW()
	in.ElectricRateOverride = decPtr("0.15")

	res, err := defaultEngine(t).Compute(in)
	require.NoError(t, err)

	assert.True(t, res.BaseElectricRate.Equal(dec("0.15")))
	assert.True(t, res.Year1Savings.Equal(dec("1950")))
	assert.Equal(t, 16, res.PaybackYear)
}

func TestCompute_ITCShortensPayback(t *testing.T) {
	in := tenKW()
	in.Options.ITC = true

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)

	assert.True(t, res.ITCCredit.Equal(dec("9000")))
	assert.True(t, res.NetCost.Equal(dec("21000")))
	assert.Equal(t, 11, res.PaybackYear)
	assert.True(t, res.Rows[0].CumulativeCashFlow.Equal(dec("-19050")))
}

func TestCompute_ExplicitProduction(t *testing.T) {
	in := tenKW()
	in.AnnualProductionKWh = decPtr("12000")
	in.ProductionFactor = decimal.Zero

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)
	assert.True(t, res.Year1ProductionKWh.Equal(dec("12000")))
	assert.True(t, res.Year1Savings.Equal(dec("1800")))
}

func TestCompute_Deterministic(t *testing.T) {
	engine := defaultEngine(t)
	in := domain.DefaultProjectInput(2025)
	in.Options.Degradation = true

	first, err := engine.Compute(in)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		res, err := engine.Compute(in)
		require.NoError(t, err)
		got, err := json.Marshal(res)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), "run %d diverged", i)
	}
}

func TestCompute_DefaultInput(t *testing.T) {
	res, err := defaultEngine(t).Compute(domain.DefaultProjectInput(2025))
	require.NoError(t, err)

	assert.True(t, res.CostPerWatt.Equal(dec("1.15")))
	assert.True(t, res.InstalledCost.Equal(dec("272090")), "installed = %s", res.InstalledCost)
	assert.True(t, res.ITCCredit.Equal(dec("81627")))
	assert.True(t, res.Year1ProductionKWh.Equal(dec("295750")))
	assert.True(t, res.Year1Savings.Equal(dec("39926.25")))
	assert.True(t, res.Rows[0].SRECPrice.Equal(dec("49.5")))
	assert.True(t, res.Year1SRECRevenue.Equal(dec("14639.625")))
	assert.True(t, res.HasPayback())
	assert.Len(t, res.CostLines, len(domain.CostCategories))
}

func TestCompute_AllToggleCombinations(t *testing.T) {
	engine := defaultEngine(t)

	for _, opts := range domain.AllOptions() {
		in := domain.DefaultProjectInput(2025)
		in.Options = opts

		res, err := engine.Compute(in)
		require.NoError(t, err, "options %+v", opts)
		require.Len(t, res.Rows, domain.HorizonYears)

		if !opts.ITC {
			assert.True(t, res.ITCCredit.IsZero(), "options %+v: ITC credit", opts)
		}
		assert.True(t, res.NetCost.Equal(res.InstalledCost.Sub(res.ITCCredit)))

		prev := res.NetCost.Neg()
		for i, row := range res.Rows {
			assert.Equal(t, i+1, row.Year)
			assert.Equal(t, 2025+i, row.CalendarYear)
			assert.False(t, row.TotalInflow.IsNegative())
			assert.True(t, row.CumulativeCashFlow.GreaterThanOrEqual(prev), "options %+v year %d: cumulative decreased", opts, row.Year)
			prev = row.CumulativeCashFlow

			if !opts.SREC {
				assert.True(t, row.SRECRevenue.IsZero(), "options %+v year %d: SREC revenue", opts, row.Year)
			}
			if !opts.Escalation {
				assert.True(t, row.ElectricRate.Equal(res.BaseElectricRate))
			}
			if !opts.Degradation {
				assert.True(t, row.ProductionKWh.Equal(res.Year1ProductionKWh))
			}
		}

		if res.HasPayback() {
			payback := res.Rows[res.PaybackYear-1]
			assert.False(t, payback.CumulativeCashFlow.IsNegative())
			if res.PaybackYear > 1 {
				assert.True(t, res.Rows[res.PaybackYear-2].CumulativeCashFlow.IsNegative())
			}
		}
	}
}

func TestCompute_SRECEndsWithSchedule(t *testing.T) {
	res, err := defaultEngine(t).Compute(domain.DefaultProjectInput(2025))
	require.NoError(t, err)

	for _, row := range res.Rows {
		if row.CalendarYear <= 2032 {
			assert.True(t, row.SRECRevenue.IsPositive(), "year %d should earn SRECs", row.CalendarYear)
		} else {
			assert.True(t, row.SRECRevenue.IsZero(), "year %d is past the schedule", row.CalendarYear)
			assert.True(t, row.SRECPrice.IsZero())
		}
	}
}

func TestCompute_ShortHorizonSchedule(t *testing.T) {
	in := tenKW()
	in.Options.SREC = true
	in.SRECProgram = domain.ProgramMDStandard

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)

	// 13 SRECs x $100 for 2025-2027 only
	for _, row := range res.Rows[:3] {
		assert.True(t, row.SRECRevenue.Equal(dec("1300")), "year %d", row.Year)
		assert.True(t, row.SRECCount.Equal(dec("13")))
	}
	for _, row := range res.Rows[3:] {
		assert.True(t, row.SRECRevenue.IsZero(), "year %d", row.Year)
	}
	assert.True(t, res.Totals.SRECRevenue.Equal(dec("3900")))
}

func TestCompute_EscalationIncreasesRate(t *testing.T) {
	in := tenKW()
	in.Options.Escalation = true

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)

	assert.True(t, res.Rows[0].ElectricRate.Equal(dec("0.15")))
	assert.True(t, res.Rows[1].ElectricRate.Equal(dec("0.15525")))
	for i := 1; i < len(res.Rows); i++ {
		assert.True(t, res.Rows[i].ElectricRate.GreaterThan(res.Rows[i-1].ElectricRate), "year %d", i+1)
	}

	flat, err := flatEngine(t).Compute(tenKW())
	require.NoError(t, err)
	assert.Less(t, res.PaybackYear, flat.PaybackYear)
}

func TestCompute_EscalationNearRatePrecision(t *testing.T) {
	in := tenKW()
	in.Options.Escalation = true

	// 0.15 x 1e-7 moves the rate by 1.5e-8, just above the 8-place rounding.
	in.EscalationRate = dec("0.0000001")
	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)
	for i := 1; i < len(res.Rows); i++ {
		assert.True(t, res.Rows[i].ElectricRate.GreaterThan(res.Rows[i-1].ElectricRate), "year %d", i+1)
	}

	in.EscalationRate = dec("0.000000001")
	res, err = flatEngine(t).Compute(in)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "escalation_rate")
}

func TestCompute_LastInstallYear(t *testing.T) {
	in := tenKW()
	in.InstallYear = maxInstallYear

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 9999, res.Rows[domain.HorizonYears-1].CalendarYear)
}

func TestCompute_DegradationReducesProduction(t *testing.T) {
	in := tenKW()
	in.Options.Degradation = true

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)

	assert.True(t, res.Rows[0].ProductionKWh.Equal(dec("13000")))
	assert.True(t, res.Rows[1].ProductionKWh.Equal(dec("12935")))
	for i := 1; i < len(res.Rows); i++ {
		assert.True(t, res.Rows[i].ProductionKWh.LessThan(res.Rows[i-1].ProductionKWh), "year %d", i+1)
	}
}

func TestCompute_PaybackNotWithinHorizon(t *testing.T) {
	in := tenKW()
	in.ProductionFactor = dec("10")

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)

	assert.Equal(t, domain.PaybackNotWithinHorizon, res.PaybackYear)
	assert.False(t, res.HasPayback())
	assert.True(t, res.Rows[24].CumulativeCashFlow.IsNegative())
}

func TestCompute_ZeroCostPaysBackInYearOne(t *testing.T) {
	in := tenKW()
	in.Pricing = domain.Pricing{}

	res, err := flatEngine(t).Compute(in)
	require.NoError(t, err)
	assert.True(t, res.InstalledCost.IsZero())
	assert.Equal(t, 1, res.PaybackYear)
	assert.True(t, res.SimplePaybackYears.IsZero())
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ProjectInput)
		field  string
	}{
		{"zero size", func(in *domain.ProjectInput) { in.SystemSizeKW = decimal.Zero }, "system_size_kw"},
		{"negative size", func(in *domain.ProjectInput) { in.SystemSizeKW = dec("-5") }, "system_size_kw"},
		{"missing install year", func(in *domain.ProjectInput) { in.InstallYear = 0 }, "install_year"},
		{"install year past the calendar", func(in *domain.ProjectInput) { in.InstallYear = 65536 }, "install_year"},
		{"unknown location", func(in *domain.ProjectInput) { in.Location = "virginia" }, "location"},
		{"unknown utility", func(in *domain.ProjectInput) { in.Utility = "dominion" }, "utility"},
		{"utility outside location", func(in *domain.ProjectInput) { in.Utility = domain.UtilityPepcoDC }, "utility"},
		{"negative price", func(in *domain.ProjectInput) { in.Pricing[domain.CostRacking] = dec("-0.01") }, "pricing"},
		{"unknown category", func(in *domain.ProjectInput) { in.Pricing["labor"] = dec("0.5") }, "pricing"},
		{"zero production", func(in *domain.ProjectInput) { in.AnnualProductionKWh = decPtr("0") }, "annual_production_kwh"},
		{"zero production factor", func(in *domain.ProjectInput) { in.ProductionFactor = decimal.Zero }, "production_factor"},
		{"negative rate override", func(in *domain.ProjectInput) { in.ElectricRateOverride = decPtr("-0.1") }, "electric_rate_override"},
		{"ITC rate above one", func(in *domain.ProjectInput) {
			in.Options.ITC = true
			in.ITCRate = dec("1.5")
		}, "itc_rate"},
		{"negative escalation", func(in *domain.ProjectInput) {
			in.Options.Escalation = true
			in.EscalationRate = dec("-0.01")
		}, "escalation_rate"},
		{"escalation below rate precision", func(in *domain.ProjectInput) {
			in.Options.Escalation = true
			in.EscalationRate = dec("0.000000001")
		}, "escalation_rate"},
		{"degradation below production precision", func(in *domain.ProjectInput) {
			in.Options.Degradation = true
			in.DegradationRate = dec("0.000000000001")
		}, "degradation_rate"},
		{"full degradation", func(in *domain.ProjectInput) {
			in.Options.Degradation = true
			in.DegradationRate = dec("1")
		}, "degradation_rate"},
		{"SREC without program", func(in *domain.ProjectInput) {
			in.Options.SREC = true
			in.SRECProgram = ""
		}, "srec_program"},
		{"program outside location", func(in *domain.ProjectInput) {
			in.Options.SREC = true
			in.SRECProgram = domain.ProgramDCStandard
		}, "srec_program"},
	}

	engine := defaultEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := domain.DefaultProjectInput(2025)
			tt.mutate(&in)

			res, err := engine.Compute(in)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCompute_DisabledRatesNotValidated(t *testing.T) {
	in := tenKW()
	in.ITCRate = dec("7")
	in.EscalationRate = dec("-3")
	in.DegradationRate = dec("2")

	_, err := flatEngine(t).Compute(in)
	assert.NoError(t, err)
}
