package reporting

import (
	"time"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// Report is everything the exporters render: the input snapshot, its
// projection and the display names resolved from the incentive tables.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	ProFormaID  string // base58 hash of Input
	Digest      string // hex hash of Result

	Input  domain.ProjectInput
	Result *domain.ProjectionResult

	// Display names
	UtilityName string
	ProgramName string // empty when SREC is off
}

// Sheet names of the exported workbook.
const (
	SheetInputs   = "Inputs & Assumptions"
	SheetCashFlow = "25-Year Cash Flow"
	SheetSummary  = "Client Summary"
)
