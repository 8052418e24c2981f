package verification

import (
	"context"
	"errors"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/idhash"
	"github.com/BubDublin/solar-proforma/internal/projection"
	"github.com/BubDublin/solar-proforma/internal/storage"
)

// ErrProFormaNotFound is returned when a pro-forma ID doesn't exist.
var ErrProFormaNotFound = errors.New("proforma not found")

// StoreVerifier recomputes saved pro-formas and compares them with what was stored.
type StoreVerifier struct {
	proformas storage.ProFormaStore
	cashflows storage.CashFlowStore // optional
	engine    *projection.Engine
}

// NewStoreVerifier creates a StoreVerifier. cashflows may be nil, in which
// case only the headline columns are checked.
func NewStoreVerifier(engine *projection.Engine, proformas storage.ProFormaStore, cashflows storage.CashFlowStore) *StoreVerifier {
	return &StoreVerifier{
		proformas: proformas,
		cashflows: cashflows,
		engine:    engine,
	}
}

// VerifyProForma verifies a single saved pro-forma by ID.
func (v *StoreVerifier) VerifyProForma(ctx context.Context, proFormaID string) (*VerificationResult, error) {
	stored, err := v.proformas.GetByID(ctx, proFormaID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProFormaNotFound
		}
		return nil, err
	}
	return v.verifyRecord(ctx, stored)
}

// VerifyAll verifies every saved pro-forma.
// A record that fails to recompute is reported as a divergence, not an error.
func (v *StoreVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	records, err := v.proformas.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		Total:   len(records),
		Results: make([]VerificationResult, 0, len(records)),
	}

	for _, rec := range records {
		result, err := v.verifyRecord(ctx, rec)
		if err != nil {
			report.Results = append(report.Results, VerificationResult{
				ProFormaID:  rec.ProFormaID,
				Divergences: []FieldDivergence{{Field: "Error", Actual: err.Error()}},
			})
			report.Divergent++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.Matched++
		} else {
			report.Divergent++
		}
	}

	return report, nil
}

func (v *StoreVerifier) verifyRecord(ctx context.Context, stored *domain.ProFormaRecord) (*VerificationResult, error) {
	recomputed, err := v.engine.Compute(stored.Input)
	if err != nil {
		return nil, err
	}

	var d divergences
	if id := v.engine.ProFormaID(stored.Input); id != stored.ProFormaID {
		d.add("ProFormaID", stored.ProFormaID, id)
	}
	d.decimalField("InstalledCost", stored.InstalledCost, recomputed.InstalledCost)
	d.decimalField("NetCost", stored.NetCost, recomputed.NetCost)
	d.decimalField("Year1Benefit", stored.Year1Benefit, recomputed.Year1Benefit)
	d.intField("PaybackYear", stored.PaybackYear, recomputed.PaybackYear)

	if v.cashflows != nil {
		rows, err := v.cashflows.GetByProFormaID(ctx, stored.ProFormaID)
		if err != nil {
			return nil, err
		}
		// A record whose rows never landed diverges on len(Rows).
		d = append(d, CompareRows(rows, recomputed.Rows)...)
	}

	return &VerificationResult{
		ProFormaID:   stored.ProFormaID,
		Match:        len(d) == 0,
		Divergences:  d,
		ActualDigest: idhash.ComputeResultDigest(recomputed),
	}, nil
}
