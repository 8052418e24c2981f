package reporting

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/idhash"
	"github.com/BubDublin/solar-proforma/internal/incentive"
	"github.com/BubDublin/solar-proforma/internal/projection"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	tables, err := incentive.Default()
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	return NewGenerator(projection.NewEngine(tables)).WithClock(func() time.Time { return fixedTime })
}

func defaultReport(t *testing.T) *Report {
	t.Helper()
	r, err := newTestGenerator(t).Generate(domain.DefaultProjectInput(2025))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return r
}

func TestGenerate(t *testing.T) {
	in := domain.DefaultProjectInput(2025)
	r := defaultReport(t)
	want := newTestGenerator(t).engine.ProFormaID(in)

	if !r.GeneratedAt.Equal(fixedTime) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixedTime)
	}
	if r.ProFormaID != want {
		t.Errorf("ProFormaID = %s, want %s", r.ProFormaID, want)
	}
	if r.Digest != idhash.ComputeResultDigest(r.Result) {
		t.Error("Digest does not match result")
	}
	if r.UtilityName != "PEPCO Maryland" {
		t.Errorf("UtilityName = %q, want PEPCO Maryland", r.UtilityName)
	}
	if r.ProgramName != "MD Standard SREC" {
		t.Errorf("ProgramName = %q, want MD Standard SREC", r.ProgramName)
	}
	if len(r.Result.Rows) != domain.HorizonYears {
		t.Errorf("rows = %d, want %d", len(r.Result.Rows), domain.HorizonYears)
	}
}

func TestGenerate_SRECOffHasNoProgramName(t *testing.T) {
	in := domain.DefaultProjectInput(2025)
	in.Options.SREC = false

	r, err := newTestGenerator(t).Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if r.ProgramName != "" {
		t.Errorf("ProgramName = %q, want empty", r.ProgramName)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	in := domain.DefaultProjectInput(2025)
	in.SystemSizeKW = decimal.Zero

	_, err := newTestGenerator(t).Generate(in)
	if err == nil {
		t.Fatal("expected error for zero system size")
	}
}

func TestFilename(t *testing.T) {
	r := defaultReport(t)
	if got := Filename(r); got != "NDMU_Notre_Dame_MD_ProForma.xlsx" {
		t.Errorf("Filename() = %q", got)
	}

	r.Input.CustomerName = "  "
	r.Input.ProjectName = "Roof/Phase 2"
	if got := Filename(r); got != "Customer_Roof_Phase_2_ProForma.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestBuildWorkbook_Sheets(t *testing.T) {
	f, err := BuildWorkbook(defaultReport(t))
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetInputs, SheetCashFlow, SheetSummary}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i], want[i])
		}
	}
}

func cellValue(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, ref, err)
	}
	return v
}

func cellFormula(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellFormula(sheet, ref)
	if err != nil {
		t.Fatalf("GetCellFormula(%s!%s): %v", sheet, ref, err)
	}
	return v
}

func TestBuildWorkbook_Inputs(t *testing.T) {
	f, err := BuildWorkbook(defaultReport(t))
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"B1":  "NDMU - Notre Dame MD - Pro-Forma Inputs",
		"B3":  "TOGGLE SETTINGS",
		"C5":  "Enabled (30%)",
		"C6":  "MD Standard SREC",
		"C7":  "PEPCO Maryland",
		"C9":  "Disabled",
		"B11": "PROJECT INPUTS",
		"C13": "NDMU",
		"B21": "After-ITC Cost",
		"B28": "COST BREAKDOWN",
		"B30": "Modules",
		"B46": "Origination Costs",
		"B47": "TOTAL PROJECT COST",
	}
	for ref, want := range checks {
		if got := cellValue(t, f, SheetInputs, ref); got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}

	formulas := map[string]string{
		"D30": "C30*$C$17",
		"D46": "C46*$C$17",
		"C47": "SUM(C30:C46)",
		"D47": "SUM(D30:D46)",
		"C17": "C16*1000",
		"C18": "D47",
		"C20": "C18*C24",
		"C21": "C18-C20",
	}
	for ref, want := range formulas {
		if got := cellFormula(t, f, SheetInputs, ref); got != want {
			t.Errorf("%s formula = %q, want %q", ref, got, want)
		}
	}
}

func TestBuildWorkbook_ITCOffFormula(t *testing.T) {
	in := domain.DefaultProjectInput(2025)
	in.Options.ITC = false
	r, err := newTestGenerator(t).Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	f, err := BuildWorkbook(r)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	if got := cellFormula(t, f, SheetInputs, "C20"); got != "0" {
		t.Errorf("ITC formula = %q, want 0", got)
	}
	if got := cellValue(t, f, SheetInputs, "C5"); got != "Disabled" {
		t.Errorf("ITC status = %q, want Disabled", got)
	}
}

func TestBuildWorkbook_CashFlow(t *testing.T) {
	f, err := BuildWorkbook(defaultReport(t))
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	for i, h := range cashFlowHeaders {
		ref, _ := excelize.CoordinatesToCellName(i+2, cashFlowHeaderRow)
		if got := cellValue(t, f, SheetCashFlow, ref); got != h {
			t.Errorf("header %s = %q, want %q", ref, got, h)
		}
	}

	for year := 1; year <= domain.HorizonYears; year++ {
		row := cashFlowHeaderRow + year
		ref := func(col string) string { return col + strconv.Itoa(row) }

		if got := cellValue(t, f, SheetCashFlow, ref("B")); got != strconv.Itoa(year) {
			t.Errorf("row %d year = %q", row, got)
		}
		if got := cellValue(t, f, SheetCashFlow, ref("C")); got != strconv.Itoa(2024+year) {
			t.Errorf("row %d calendar year = %q", row, got)
		}
		if got := cellFormula(t, f, SheetCashFlow, ref("F")); got != "D"+strconv.Itoa(row)+"*E"+strconv.Itoa(row) {
			t.Errorf("row %d savings formula = %q", row, got)
		}
		if got := cellFormula(t, f, SheetCashFlow, ref("J")); got != "F"+strconv.Itoa(row)+"+I"+strconv.Itoa(row) {
			t.Errorf("row %d inflow formula = %q", row, got)
		}
	}

	if got := cellFormula(t, f, SheetCashFlow, "K4"); got != "J4-'Inputs & Assumptions'!$C$21" {
		t.Errorf("year 1 cumulative formula = %q", got)
	}
	if got := cellFormula(t, f, SheetCashFlow, "K5"); got != "K4+J5" {
		t.Errorf("year 2 cumulative formula = %q", got)
	}
	if got := cellValue(t, f, SheetCashFlow, "B29"); got != "TOTAL" {
		t.Errorf("totals label = %q", got)
	}
	if got := cellFormula(t, f, SheetCashFlow, "J29"); got != "SUM(J4:J28)" {
		t.Errorf("grand total formula = %q", got)
	}
}

func TestBuildWorkbook_Summary(t *testing.T) {
	f, err := BuildWorkbook(defaultReport(t))
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"B3":  "PROJECT OVERVIEW",
		"C4":  "NDMU",
		"C8":  "236.6 kW",
		"B13": "KEY METRICS",
		"C14": "295,750 kWh",
		"B21": "25-YEAR TOTALS",
		"B24": "GRAND TOTAL BENEFITS",
	}
	for ref, want := range checks {
		if got := cellValue(t, f, SheetSummary, ref); got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}
	if got := cellValue(t, f, SheetSummary, "C19"); !strings.HasSuffix(got, " years") {
		t.Errorf("simple payback = %q, want years suffix", got)
	}
}

func TestBuildWorkbook_NilReport(t *testing.T) {
	if _, err := BuildWorkbook(&Report{}); err == nil {
		t.Error("expected error for report without result")
	}
}

func TestRenderCashFlowCSV(t *testing.T) {
	r := defaultReport(t)
	csv := RenderCashFlowCSV(r.Result.Rows)

	lines := strings.Split(strings.TrimSuffix(csv, "\n"), "\n")
	if len(lines) != domain.HorizonYears+1 {
		t.Fatalf("lines = %d, want %d", len(lines), domain.HorizonYears+1)
	}
	if !strings.HasPrefix(lines[0], "year,calendar_year,electric_rate,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,2025,0.135,295750,39926.25,49.5,295.75,14639.625,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if !strings.HasPrefix(lines[25], "25,2049,") {
		t.Errorf("unexpected last row: %s", lines[25])
	}
}

func TestRenderSummaryMarkdown(t *testing.T) {
	md := RenderSummaryMarkdown(defaultReport(t))

	expected := []string{
		"# NDMU - Notre Dame MD",
		"Generated: 2025-03-01T12:00:00Z",
		"| Total Cost | $272,090.00 |",
		"| Federal Tax Credit | $81,627.00 |",
		"| After-ITC Cost | $190,463.00 |",
		"| Year 1 Production | 295,750 kWh |",
		"| Year 1 Electric Savings | $39,926.25 |",
		"- SREC: Enabled (MD Standard SREC)",
		"- Degradation: Disabled",
		"## 25-Year Totals",
		"| 1 | 2025 | $0.1350 | 295,750 |",
	}
	for _, s := range expected {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing %q", s)
		}
	}
}

func TestRenderSummaryHTML(t *testing.T) {
	html, err := RenderSummaryHTML(defaultReport(t))
	if err != nil {
		t.Fatalf("RenderSummaryHTML failed: %v", err)
	}
	if !strings.Contains(html, "<h1>NDMU - Notre Dame MD</h1>") {
		t.Error("missing title heading")
	}
	if !strings.Contains(html, "<table>") {
		t.Error("tables not rendered")
	}
}

func TestWriteBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := defaultReport(t)

	paths, err := WriteBundle(dir, r)
	if err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v, want 3", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	f, err := excelize.OpenFile(paths[0])
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 3 {
		t.Errorf("reopened sheets = %v", f.GetSheetList())
	}

	csv, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if string(csv) != RenderCashFlowCSV(r.Result.Rows) {
		t.Error("csv file differs from rendered csv")
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"money", formatMoney(decimal.RequireFromString("1234567.891")), "$1,234,567.89"},
		{"negative money", formatMoney(decimal.RequireFromString("-1234.567")), "-$1,234.57"},
		{"small money", formatMoney(decimal.RequireFromString("0.5")), "$0.50"},
		{"rounds to zero", formatMoney(decimal.RequireFromString("-0.004")), "$0.00"},
		{"rate", formatRate(decimal.RequireFromString("0.135")), "$0.1350"},
		{"percent", formatPercent(decimal.RequireFromString("0.035")), "3.5%"},
		{"whole percent", formatPercent(decimal.RequireFromString("0.30")), "30%"},
		{"kwh", formatKWh(decimal.RequireFromString("295750.4")), "295,750 kWh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
