package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// Number formats.
var (
	fmtCurrency = "$#,##0.00"
	fmtPerWatt  = "$0.00"
	fmtRate     = "$0.0000"
	fmtPercent  = "0.00%"
	fmtKWh      = "#,##0"
	fmtSRECs    = "#,##0.0"
)

// Fill colors.
const (
	colorHeader    = "1F4E78"
	colorSubheader = "4472C4"
	colorInput     = "E7E6E6"
	colorPositive  = "006100"
)

// workbook carries the open file and its registered styles while sheets are written.
type workbook struct {
	f      *excelize.File
	styles map[string]int
}

// Filename returns the export file name, e.g. "NDMU_Notre_Dame_MD_ProForma.xlsx".
func Filename(r *Report) string {
	return BaseName(r) + "_ProForma.xlsx"
}

// BaseName returns the customer and project part shared by every export file name.
func BaseName(r *Report) string {
	customer := sanitizeName(r.Input.CustomerName, "Customer")
	project := sanitizeName(r.Input.ProjectName, "Project")
	return customer + "_" + project
}

func sanitizeName(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// WriteWorkbook builds the workbook and writes it as .xlsx to w.
func WriteWorkbook(w io.Writer, r *Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook renders the three-sheet pro-forma workbook.
// Computed cells carry both a formula and the engine's value as the cached result.
func BuildWorkbook(r *Report) (*excelize.File, error) {
	if r == nil || r.Result == nil {
		return nil, fmt.Errorf("build workbook: empty report")
	}

	f := excelize.NewFile()
	wb := &workbook{f: f, styles: make(map[string]int)}

	if err := wb.registerStyles(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", SheetInputs); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCashFlow, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	refs, err := wb.writeInputs(r)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetInputs, err)
	}
	if err := wb.writeCashFlow(r, refs); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetCashFlow, err)
	}
	if err := wb.writeSummary(r); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetSummary, err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (wb *workbook) registerStyles() error {
	defs := map[string]*excelize.Style{
		"title": {
			Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeader}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		},
		"header": {
			Font: &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeader}},
		},
		"subheader": {
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorSubheader}},
			Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
		},
		"toggle": {
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorInput}},
		},
		"bold":          {Font: &excelize.Font{Bold: true}},
		"currency":      {CustomNumFmt: &fmtCurrency},
		"currencyBold":  {CustomNumFmt: &fmtCurrency, Font: &excelize.Font{Bold: true}},
		"perWatt":       {CustomNumFmt: &fmtPerWatt},
		"perWattBold":   {CustomNumFmt: &fmtPerWatt, Font: &excelize.Font{Bold: true}},
		"rate":          {CustomNumFmt: &fmtRate},
		"percent":       {CustomNumFmt: &fmtPercent},
		"kwh":           {CustomNumFmt: &fmtKWh},
		"srecs":         {CustomNumFmt: &fmtSRECs},
		"center":        {Alignment: &excelize.Alignment{Horizontal: "center"}},
		"grandLabel":    {Font: &excelize.Font{Bold: true, Size: 12}},
		"grandCurrency": {CustomNumFmt: &fmtCurrency, Font: &excelize.Font{Bold: true, Size: 12, Color: colorPositive}},
	}

	for name, style := range defs {
		id, err := wb.f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("create style %s: %w", name, err)
		}
		wb.styles[name] = id
	}
	return nil
}

// cell writes a value and an optional named style.
func (wb *workbook) cell(sheet, ref string, value interface{}, style string) error {
	if err := wb.f.SetCellValue(sheet, ref, value); err != nil {
		return err
	}
	if style == "" {
		return nil
	}
	return wb.f.SetCellStyle(sheet, ref, ref, wb.styles[style])
}

// formula writes the cached value first, then the formula.
func (wb *workbook) formula(sheet, ref, formula string, cached decimal.Decimal, style string) error {
	if err := wb.cell(sheet, ref, cached.InexactFloat64(), style); err != nil {
		return err
	}
	return wb.f.SetCellFormula(sheet, ref, formula)
}

// banner writes a merged, filled header across from:to on one row.
func (wb *workbook) banner(sheet string, row int, fromCol, toCol, text, style string) error {
	from := fmt.Sprintf("%s%d", fromCol, row)
	to := fmt.Sprintf("%s%d", toCol, row)
	if err := wb.cell(sheet, from, text, style); err != nil {
		return err
	}
	if err := wb.f.SetCellStyle(sheet, from, to, wb.styles[style]); err != nil {
		return err
	}
	return wb.f.MergeCell(sheet, from, to)
}

func (wb *workbook) subheaders(sheet string, row int, cols []string, labels []string) error {
	for i, label := range labels {
		if err := wb.cell(sheet, fmt.Sprintf("%s%d", cols[i], row), label, "subheader"); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) widths(sheet string, widths map[string]float64) error {
	for col, w := range widths {
		if err := wb.f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// inputRefs are the Inputs sheet cells other sheets reference.
type inputRefs struct {
	watts   string // system size in W
	netCost string
}

func toggleStatus(on bool, detail string) string {
	if !on {
		return "Disabled"
	}
	if detail == "" {
		return "Enabled"
	}
	return "Enabled (" + detail + ")"
}

func (wb *workbook) writeInputs(r *Report) (inputRefs, error) {
	const sheet = SheetInputs
	in, res := r.Input, r.Result
	var refs inputRefs

	if err := wb.widths(sheet, map[string]float64{"A": 3, "B": 35, "C": 20, "D": 15, "E": 30}); err != nil {
		return refs, err
	}

	title := fmt.Sprintf("%s - %s - Pro-Forma Inputs", in.CustomerName, in.ProjectName)
	if err := wb.banner(sheet, 1, "B", "E", title, "title"); err != nil {
		return refs, err
	}
	if err := wb.cell(sheet, "B2", "Pro-Forma ID: "+r.ProFormaID, ""); err != nil {
		return refs, err
	}
	if err := wb.cell(sheet, "E2", "Generated "+r.GeneratedAt.Format("2006-01-02"), ""); err != nil {
		return refs, err
	}

	// Toggle settings
	row := 3
	if err := wb.banner(sheet, row, "B", "E", "TOGGLE SETTINGS", "header"); err != nil {
		return refs, err
	}
	row++
	if err := wb.subheaders(sheet, row, []string{"B", "C", "D", "E"}, []string{"Setting", "Value", "Unit", "Notes"}); err != nil {
		return refs, err
	}

	srecValue := "Disabled"
	if in.Options.SREC {
		srecValue = r.ProgramName
	}
	toggles := []struct{ label, value, note string }{
		{"ITC Status", toggleStatus(in.Options.ITC, formatPercent(in.ITCRate)), ""},
		{"SREC Program", srecValue, in.Location.Label()},
		{"Utility Company", r.UtilityName, ""},
		{"Escalation Rate", toggleStatus(in.Options.Escalation, formatPercent(in.EscalationRate)), "compounded annually"},
		{"Panel Degradation", toggleStatus(in.Options.Degradation, formatPercent(in.DegradationRate)), "compounded annually"},
	}
	for _, t := range toggles {
		row++
		if err := wb.cell(sheet, fmt.Sprintf("B%d", row), t.label, ""); err != nil {
			return refs, err
		}
		if err := wb.cell(sheet, fmt.Sprintf("C%d", row), t.value, "toggle"); err != nil {
			return refs, err
		}
		if t.note != "" {
			if err := wb.cell(sheet, fmt.Sprintf("E%d", row), t.note, ""); err != nil {
				return refs, err
			}
		}
	}

	// Project inputs
	row += 2
	if err := wb.banner(sheet, row, "B", "E", "PROJECT INPUTS", "header"); err != nil {
		return refs, err
	}
	row++
	if err := wb.subheaders(sheet, row, []string{"B", "C", "D"}, []string{"Input", "Value", "Unit"}); err != nil {
		return refs, err
	}

	productionLabel, productionValue, productionUnit := "TSRF", in.ProductionFactor, "kWh/kW/yr"
	if in.AnnualProductionKWh != nil {
		productionLabel, productionValue, productionUnit = "Annual Production Estimate", *in.AnnualProductionKWh, "kWh"
	}

	inputs := []struct {
		label string
		value interface{}
		unit  string
		style string
	}{
		{"Customer Name", in.CustomerName, "", ""},
		{"Project Name", in.ProjectName, "", ""},
		{"Location", in.Location.Label(), "", ""},
		{"System Size", in.SystemSizeKW.InexactFloat64(), "kW", ""},
		{"System Size (W)", nil, "W", ""},
		{"Total System Cost", nil, "$", "currency"},
		{"Cost per Watt", nil, "$/W", "perWatt"},
		{"Federal Tax Credit", nil, "$", "currency"},
		{"After-ITC Cost", nil, "$", "currencyBold"},
		{productionLabel, productionValue.InexactFloat64(), productionUnit, "kwh"},
		{"Electric Rate", res.BaseElectricRate.InexactFloat64(), "$/kWh", "rate"},
		{"ITC Rate", in.ITCRate.InexactFloat64(), "%", "percent"},
		{"Panel Degradation", in.DegradationRate.InexactFloat64(), "%/yr", "percent"},
		{"Install Year", in.InstallYear, "", ""},
	}
	first := row + 1
	for i, item := range inputs {
		at := first + i
		if err := wb.cell(sheet, fmt.Sprintf("B%d", at), item.label, ""); err != nil {
			return refs, err
		}
		if item.value != nil {
			if err := wb.cell(sheet, fmt.Sprintf("C%d", at), item.value, item.style); err != nil {
				return refs, err
			}
		}
		if item.unit != "" {
			if err := wb.cell(sheet, fmt.Sprintf("D%d", at), item.unit, ""); err != nil {
				return refs, err
			}
		}
	}

	// Offsets into inputs
	kwRow := first + 3
	wattsRow := first + 4
	costRow := first + 5
	perWattRow := first + 6
	itcRow := first + 7
	netRow := first + 8
	itcRateRow := first + 11
	row = first + len(inputs) - 1

	refs.watts = fmt.Sprintf("$C$%d", wattsRow)
	refs.netCost = fmt.Sprintf("'%s'!$C$%d", sheet, netRow)

	// Cost breakdown; total rows come after the categories
	row += 2
	if err := wb.banner(sheet, row, "B", "E", "COST BREAKDOWN", "header"); err != nil {
		return refs, err
	}
	row++
	if err := wb.subheaders(sheet, row, []string{"B", "C", "D"}, []string{"Category", "$/W", "Total ($)"}); err != nil {
		return refs, err
	}
	firstCost := row + 1
	for _, line := range res.CostLines {
		row++
		if err := wb.cell(sheet, fmt.Sprintf("B%d", row), line.Category.Label(), ""); err != nil {
			return refs, err
		}
		if err := wb.cell(sheet, fmt.Sprintf("C%d", row), line.PerWatt.InexactFloat64(), "perWatt"); err != nil {
			return refs, err
		}
		if err := wb.formula(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("C%d*%s", row, refs.watts), line.Total, "currency"); err != nil {
			return refs, err
		}
	}
	lastCost := row
	row++
	totalRow := row
	if err := wb.cell(sheet, fmt.Sprintf("B%d", row), "TOTAL PROJECT COST", "bold"); err != nil {
		return refs, err
	}
	if err := wb.formula(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("SUM(C%d:C%d)", firstCost, lastCost), res.CostPerWatt, "perWattBold"); err != nil {
		return refs, err
	}
	if err := wb.formula(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("SUM(D%d:D%d)", firstCost, lastCost), res.InstalledCost, "currencyBold"); err != nil {
		return refs, err
	}

	// Derived project inputs reference the breakdown totals
	sizeW := in.SystemSizeW()
	if err := wb.formula(sheet, fmt.Sprintf("C%d", wattsRow), fmt.Sprintf("C%d*1000", kwRow), sizeW, ""); err != nil {
		return refs, err
	}
	if err := wb.formula(sheet, fmt.Sprintf("C%d", costRow), fmt.Sprintf("D%d", totalRow), res.InstalledCost, "currency"); err != nil {
		return refs, err
	}
	if err := wb.formula(sheet, fmt.Sprintf("C%d", perWattRow), fmt.Sprintf("C%d", totalRow), res.CostPerWatt, "perWatt"); err != nil {
		return refs, err
	}
	itcFormula := "0"
	if in.Options.ITC {
		itcFormula = fmt.Sprintf("C%d*C%d", costRow, itcRateRow)
	}
	if err := wb.formula(sheet, fmt.Sprintf("C%d", itcRow), itcFormula, res.ITCCredit, "currency"); err != nil {
		return refs, err
	}
	if err := wb.formula(sheet, fmt.Sprintf("C%d", netRow), fmt.Sprintf("C%d-C%d", costRow, itcRow), res.NetCost, "currencyBold"); err != nil {
		return refs, err
	}

	return refs, nil
}

// Cash-flow sheet columns.
var cashFlowHeaders = []string{
	"Year", "Calendar Year", "Electric Rate", "Production (kWh)", "Electric Savings",
	"SREC Price", "SRECs", "SREC Income", "Total Inflow", "Cumulative Cash Flow",
}

const cashFlowHeaderRow = 3

func (wb *workbook) writeCashFlow(r *Report, refs inputRefs) error {
	const sheet = SheetCashFlow
	in, res := r.Input, r.Result

	widths := map[string]float64{"A": 3, "B": 8, "C": 10}
	for _, col := range []string{"D", "E", "F", "G", "H", "I", "J", "K"} {
		widths[col] = 16
	}
	if err := wb.widths(sheet, widths); err != nil {
		return err
	}

	title := fmt.Sprintf("%s - %s - 25-Year Cash Flow", in.CustomerName, in.ProjectName)
	if err := wb.banner(sheet, 1, "B", "K", title, "title"); err != nil {
		return err
	}

	cols := []string{"B", "C", "D", "E", "F", "G", "H", "I", "J", "K"}
	if err := wb.subheaders(sheet, cashFlowHeaderRow, cols, cashFlowHeaders); err != nil {
		return err
	}

	for _, cf := range res.Rows {
		row := cashFlowHeaderRow + cf.Year
		ref := func(col string) string { return fmt.Sprintf("%s%d", col, row) }

		if err := wb.cell(sheet, ref("B"), cf.Year, "center"); err != nil {
			return err
		}
		if err := wb.cell(sheet, ref("C"), cf.CalendarYear, "center"); err != nil {
			return err
		}
		if err := wb.cell(sheet, ref("D"), cf.ElectricRate.InexactFloat64(), "rate"); err != nil {
			return err
		}
		if err := wb.cell(sheet, ref("E"), cf.ProductionKWh.InexactFloat64(), "kwh"); err != nil {
			return err
		}
		if err := wb.formula(sheet, ref("F"), fmt.Sprintf("D%d*E%d", row, row), cf.ElectricSavings, "currency"); err != nil {
			return err
		}
		if err := wb.cell(sheet, ref("G"), cf.SRECPrice.InexactFloat64(), "currency"); err != nil {
			return err
		}
		if err := wb.formula(sheet, ref("H"), fmt.Sprintf("E%d/1000", row), cf.SRECCount, "srecs"); err != nil {
			return err
		}
		if err := wb.formula(sheet, ref("I"), fmt.Sprintf("G%d*H%d", row, row), cf.SRECRevenue, "currency"); err != nil {
			return err
		}
		if err := wb.formula(sheet, ref("J"), fmt.Sprintf("F%d+I%d", row, row), cf.TotalInflow, "currencyBold"); err != nil {
			return err
		}

		cumulative := fmt.Sprintf("K%d+J%d", row-1, row)
		if cf.Year == 1 {
			cumulative = fmt.Sprintf("J%d-%s", row, refs.netCost)
		}
		if err := wb.formula(sheet, ref("K"), cumulative, cf.CumulativeCashFlow, "currency"); err != nil {
			return err
		}
	}

	// Totals row
	first := cashFlowHeaderRow + 1
	last := cashFlowHeaderRow + len(res.Rows)
	row := last + 1
	if err := wb.cell(sheet, fmt.Sprintf("B%d", row), "TOTAL", "bold"); err != nil {
		return err
	}
	totals := []struct {
		col    string
		cached decimal.Decimal
	}{
		{"F", res.Totals.ElectricSavings},
		{"I", res.Totals.SRECRevenue},
		{"J", res.Totals.GrandTotal},
	}
	for _, t := range totals {
		f := fmt.Sprintf("SUM(%s%d:%s%d)", t.col, first, t.col, last)
		if err := wb.formula(sheet, fmt.Sprintf("%s%d", t.col, row), f, t.cached, "currencyBold"); err != nil {
			return err
		}
	}

	return wb.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      cashFlowHeaderRow,
		TopLeftCell: fmt.Sprintf("A%d", cashFlowHeaderRow+1),
		ActivePane:  "bottomLeft",
	})
}

func paybackText(res *domain.ProjectionResult, installYear int) string {
	if !res.HasPayback() {
		return fmt.Sprintf("Not within %d years", domain.HorizonYears)
	}
	return fmt.Sprintf("Year %d (%d)", res.PaybackYear, installYear+res.PaybackYear-1)
}

func simplePaybackText(res *domain.ProjectionResult) string {
	if !res.Year1Benefit.IsPositive() {
		return "n/a"
	}
	return res.SimplePaybackYears.StringFixed(1) + " years"
}

func (wb *workbook) writeSummary(r *Report) error {
	const sheet = SheetSummary
	in, res := r.Input, r.Result

	if err := wb.widths(sheet, map[string]float64{"A": 3, "B": 35, "C": 20, "D": 15}); err != nil {
		return err
	}

	title := fmt.Sprintf("%s - %s - Client Summary", in.CustomerName, in.ProjectName)
	if err := wb.banner(sheet, 1, "B", "D", title, "title"); err != nil {
		return err
	}

	type line struct {
		label string
		value interface{}
		style string
	}
	sections := []struct {
		title string
		lines []line
	}{
		{"PROJECT OVERVIEW", []line{
			{"Customer", in.CustomerName, ""},
			{"Project", in.ProjectName, ""},
			{"Location", in.Location.Label(), ""},
			{"Utility", r.UtilityName, ""},
			{"System Size", in.SystemSizeKW.String() + " kW", ""},
			{"Total Cost", res.InstalledCost.InexactFloat64(), "currency"},
			{"Federal Tax Credit", res.ITCCredit.InexactFloat64(), "currency"},
			{"After-ITC Cost", res.NetCost.InexactFloat64(), "currency"},
		}},
		{"KEY METRICS", []line{
			{"Year 1 Production", formatKWh(res.Year1ProductionKWh), ""},
			{"Year 1 Electric Savings", res.Year1Savings.InexactFloat64(), "currency"},
			{"Year 1 SREC Income", res.Year1SRECRevenue.InexactFloat64(), "currency"},
			{"Year 1 Total Benefit", res.Year1Benefit.InexactFloat64(), "currency"},
			{"Payback Year", paybackText(res, in.InstallYear), ""},
			{"Simple Payback", simplePaybackText(res), ""},
		}},
		{"25-YEAR TOTALS", []line{
			{"Total Electric Savings", res.Totals.ElectricSavings.InexactFloat64(), "currency"},
			{"Total SREC Income", res.Totals.SRECRevenue.InexactFloat64(), "currency"},
			{"GRAND TOTAL BENEFITS", res.Totals.GrandTotal.InexactFloat64(), "grandCurrency"},
		}},
	}

	row := 1
	for _, s := range sections {
		row += 2
		if err := wb.banner(sheet, row, "B", "D", s.title, "header"); err != nil {
			return err
		}
		for _, l := range s.lines {
			row++
			labelStyle := ""
			if l.style == "grandCurrency" {
				labelStyle = "grandLabel"
			}
			if err := wb.cell(sheet, fmt.Sprintf("B%d", row), l.label, labelStyle); err != nil {
				return err
			}
			if err := wb.cell(sheet, fmt.Sprintf("C%d", row), l.value, l.style); err != nil {
				return err
			}
		}
	}
	return nil
}
