package reporting

import (
	"fmt"
	"strings"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// RenderCashFlowCSV renders cash-flow rows as CSV string.
// Decimals are written exactly, without rounding or grouping.
func RenderCashFlowCSV(rows []domain.CashFlowRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("year,calendar_year,electric_rate,production_kwh,electric_savings,")
	sb.WriteString("srec_price,srec_count,srec_revenue,total_inflow,cumulative_inflow,cumulative_cash_flow\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%d,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			r.Year,
			r.CalendarYear,
			r.ElectricRate.String(),
			r.ProductionKWh.String(),
			r.ElectricSavings.String(),
			r.SRECPrice.String(),
			r.SRECCount.String(),
			r.SRECRevenue.String(),
			r.TotalInflow.String(),
			r.CumulativeInflow.String(),
			r.CumulativeCashFlow.String(),
		))
	}

	return sb.String()
}
