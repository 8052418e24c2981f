package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// RenderSummaryMarkdown renders the client summary as Markdown string.
func RenderSummaryMarkdown(r *Report) string {
	var sb strings.Builder
	in, res := r.Input, r.Result

	// Header
	sb.WriteString(fmt.Sprintf("# %s - %s\n\n", in.CustomerName, in.ProjectName))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Pro-Forma ID: `%s`\n\n", r.ProFormaID))

	// Project Overview
	sb.WriteString("## Project Overview\n\n")
	sb.WriteString("| Item | Value |\n")
	sb.WriteString("|------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Location | %s |\n", in.Location.Label()))
	sb.WriteString(fmt.Sprintf("| Utility | %s |\n", r.UtilityName))
	sb.WriteString(fmt.Sprintf("| System Size | %s kW |\n", in.SystemSizeKW.String()))
	sb.WriteString(fmt.Sprintf("| Total Cost | %s |\n", formatMoney(res.InstalledCost)))
	sb.WriteString(fmt.Sprintf("| Cost per Watt | %s |\n", formatMoney(res.CostPerWatt)))
	sb.WriteString(fmt.Sprintf("| Federal Tax Credit | %s |\n", formatMoney(res.ITCCredit)))
	sb.WriteString(fmt.Sprintf("| After-ITC Cost | %s |\n", formatMoney(res.NetCost)))
	sb.WriteString("\n")

	// Options
	sb.WriteString("## Options\n\n")
	sb.WriteString(fmt.Sprintf("- ITC: %s\n", toggleStatus(in.Options.ITC, formatPercent(in.ITCRate))))
	if in.Options.SREC {
		sb.WriteString(fmt.Sprintf("- SREC: Enabled (%s)\n", r.ProgramName))
	} else {
		sb.WriteString("- SREC: Disabled\n")
	}
	sb.WriteString(fmt.Sprintf("- Escalation: %s\n", toggleStatus(in.Options.Escalation, formatPercent(in.EscalationRate))))
	sb.WriteString(fmt.Sprintf("- Degradation: %s\n", toggleStatus(in.Options.Degradation, formatPercent(in.DegradationRate))))
	sb.WriteString("\n")

	// Key Metrics
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Electric Rate | %s |\n", formatRate(res.BaseElectricRate)))
	sb.WriteString(fmt.Sprintf("| Year 1 Production | %s |\n", formatKWh(res.Year1ProductionKWh)))
	sb.WriteString(fmt.Sprintf("| Year 1 Electric Savings | %s |\n", formatMoney(res.Year1Savings)))
	sb.WriteString(fmt.Sprintf("| Year 1 SREC Income | %s |\n", formatMoney(res.Year1SRECRevenue)))
	sb.WriteString(fmt.Sprintf("| Year 1 Total Benefit | %s |\n", formatMoney(res.Year1Benefit)))
	sb.WriteString(fmt.Sprintf("| Payback | %s |\n", paybackText(res, in.InstallYear)))
	sb.WriteString(fmt.Sprintf("| Simple Payback | %s |\n", simplePaybackText(res)))
	sb.WriteString("\n")

	// Totals
	sb.WriteString(fmt.Sprintf("## %d-Year Totals\n\n", domain.HorizonYears))
	sb.WriteString("| Total | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Electric Savings | %s |\n", formatMoney(res.Totals.ElectricSavings)))
	sb.WriteString(fmt.Sprintf("| SREC Income | %s |\n", formatMoney(res.Totals.SRECRevenue)))
	sb.WriteString(fmt.Sprintf("| **Grand Total Benefits** | **%s** |\n", formatMoney(res.Totals.GrandTotal)))
	sb.WriteString("\n")

	// Cash Flow
	sb.WriteString("## Cash Flow\n\n")
	sb.WriteString("| Year | Calendar | Rate | Production | Savings | SREC | Inflow | Cumulative |\n")
	sb.WriteString("|------|----------|------|------------|---------|------|--------|------------|\n")
	for _, row := range res.Rows {
		sb.WriteString(fmt.Sprintf("| %d | %d | %s | %s | %s | %s | %s | %s |\n",
			row.Year, row.CalendarYear,
			formatRate(row.ElectricRate),
			formatGrouped(row.ProductionKWh, 0),
			formatMoney(row.ElectricSavings),
			formatMoney(row.SRECRevenue),
			formatMoney(row.TotalInflow),
			formatMoney(row.CumulativeCashFlow)))
	}
	sb.WriteString("\n")

	// Digest
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Result digest: `%s`\n", r.Digest))

	return sb.String()
}
