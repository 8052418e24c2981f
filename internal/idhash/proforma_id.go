package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// ComputeProFormaID computes a deterministic pro-forma ID from the input and
// the fingerprint of the incentive tables it was projected against.
// Formula: base58(SHA256(tables fingerprint + "|" + canonical input)).
// Identical inputs against identical tables always save to the same record.
func ComputeProFormaID(in domain.ProjectInput, tablesFingerprint string) string {
	hash := sha256.Sum256([]byte(tablesFingerprint + "|" + CanonicalInput(in)))
	return base58.Encode(hash[:])
}

// CanonicalInput renders the input as a stable pipe-separated string.
// Free-text fields are quoted so a '|' inside a name cannot shift fields.
// Decimals are rendered without trailing zeros so 0.30 and 0.3 hash alike.
// Pricing is rendered in fixed category order.
func CanonicalInput(in domain.ProjectInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%q|%q|%s|%q|%q|%q|",
		in.CustomerName,
		in.ProjectName,
		in.SystemSizeKW.String(),
		in.Location,
		in.Utility,
		in.SRECProgram,
	)
	fmt.Fprintf(&sb, "itc=%t|srec=%t|esc=%t|deg=%t|",
		in.Options.ITC,
		in.Options.SREC,
		in.Options.Escalation,
		in.Options.Degradation,
	)
	for _, c := range domain.CostCategories {
		fmt.Fprintf(&sb, "%s=%s|", c, in.Pricing.PerWatt(c).String())
	}
	fmt.Fprintf(&sb, "%s|%s|%s|%s|%s|%s|%d",
		optional(in.AnnualProductionKWh),
		in.ProductionFactor.String(),
		optional(in.ElectricRateOverride),
		in.EscalationRate.String(),
		in.DegradationRate.String(),
		in.ITCRate.String(),
		in.InstallYear,
	)

	return sb.String()
}

// ComputeResultDigest computes a hex SHA256 over every cash-flow row and the
// headline metrics. Two results with equal digests render identical exports.
func ComputeResultDigest(res *domain.ProjectionResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s|%s|%s|%s|%d|%s\n",
		res.InstalledCost.String(),
		res.ITCCredit.String(),
		res.NetCost.String(),
		res.Year1Benefit.String(),
		res.PaybackYear,
		res.SimplePaybackYears.String(),
	)
	for _, r := range res.Rows {
		fmt.Fprintf(&sb, "%d|%d|%s|%s|%s|%s|%s|%s|%s|%s\n",
			r.Year,
			r.CalendarYear,
			r.ElectricRate.String(),
			r.ProductionKWh.String(),
			r.ElectricSavings.String(),
			r.SRECPrice.String(),
			r.SRECRevenue.String(),
			r.TotalInflow.String(),
			r.CumulativeInflow.String(),
			r.CumulativeCashFlow.String(),
		)
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

func optional(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
