package reporting

import (
	"time"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/idhash"
	"github.com/BubDublin/solar-proforma/internal/projection"
)

// Generator produces reports by running the projection engine.
type Generator struct {
	engine *projection.Engine
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(engine *projection.Engine) *Generator {
	return &Generator{
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate computes the projection for in and wraps it in a Report.
// Returns projection.ErrInvalidInput unchanged for invalid input.
func (g *Generator) Generate(in domain.ProjectInput) (*Report, error) {
	res, err := g.engine.Compute(in)
	if err != nil {
		return nil, err
	}
	return g.FromResult(in, res), nil
}

// FromResult wraps an already computed projection.
func (g *Generator) FromResult(in domain.ProjectInput, res *domain.ProjectionResult) *Report {
	tables := g.engine.Tables()

	r := &Report{
		GeneratedAt: g.now(),
		ProFormaID:  g.engine.ProFormaID(in),
		Digest:      idhash.ComputeResultDigest(res),
		Input:       in,
		Result:      res,
		UtilityName: string(in.Utility),
	}

	if u, ok := tables.Utility(in.Utility); ok {
		r.UtilityName = u.Name
	}
	if in.Options.SREC {
		r.ProgramName = string(in.SRECProgram)
		if p, ok := tables.Program(in.SRECProgram); ok {
			r.ProgramName = p.Name
		}
	}

	return r
}
