package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteBundle writes the workbook, the cash-flow CSV and the Markdown
// summary into dir and returns the written paths.
func WriteBundle(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := BaseName(r)
	xlsxPath := filepath.Join(dir, Filename(r))
	csvPath := filepath.Join(dir, base+"_CashFlow.csv")
	mdPath := filepath.Join(dir, base+"_Summary.md")

	f, err := os.Create(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("create workbook file: %w", err)
	}
	if err := WriteWorkbook(f, r); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook file: %w", err)
	}

	if err := os.WriteFile(csvPath, []byte(RenderCashFlowCSV(r.Result.Rows)), 0644); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	if err := os.WriteFile(mdPath, []byte(RenderSummaryMarkdown(r)), 0644); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	return []string{xlsxPath, csvPath, mdPath}, nil
}
