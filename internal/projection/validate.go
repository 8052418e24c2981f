package projection

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// ErrInvalidInput is returned for any input the engine refuses to project.
// The wrapped message names the offending field.
var ErrInvalidInput = errors.New("invalid input")

var one = decimal.NewFromInt(1)

// maxInstallYear keeps every calendar year of the horizon at four digits.
const maxInstallYear = 9999 - domain.HorizonYears + 1

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, fmt.Sprintf(format, args...))
}

// validate checks every field the engine reads. Lookup unavailability
// (SREC year outside the schedule) is not a validation failure.
func (e *Engine) validate(in domain.ProjectInput) error {
	if !in.SystemSizeKW.IsPositive() {
		return invalid("system_size_kw", "must be positive, got %s", in.SystemSizeKW)
	}
	if in.InstallYear <= 0 || in.InstallYear > maxInstallYear {
		return invalid("install_year", "must be within [1, %d], got %d", maxInstallYear, in.InstallYear)
	}
	if !in.Location.IsValid() {
		return invalid("location", "unknown location %q", in.Location)
	}

	if _, ok := e.tables.UtilityRate(in.Utility); !ok {
		return invalid("utility", "unknown utility %q", in.Utility)
	}
	if !e.tables.UtilityServes(in.Utility, in.Location) {
		return invalid("utility", "%s does not serve %s", in.Utility, in.Location)
	}
	if in.ElectricRateOverride != nil && in.ElectricRateOverride.IsNegative() {
		return invalid("electric_rate_override", "must not be negative, got %s", *in.ElectricRateOverride)
	}

	if in.Options.SREC || in.SRECProgram != "" {
		if in.SRECProgram == "" {
			return invalid("srec_program", "required when SREC is enabled")
		}
		if !e.tables.ProgramServes(in.SRECProgram, in.Location) {
			return invalid("srec_program", "%s is not available in %s", in.SRECProgram, in.Location)
		}
	}

	for c, v := range in.Pricing {
		if !c.IsValid() {
			return invalid("pricing", "unknown cost category %q", c)
		}
		if v.IsNegative() {
			return invalid("pricing", "%s must not be negative, got %s", c, v)
		}
	}

	if in.AnnualProductionKWh != nil {
		if !in.AnnualProductionKWh.IsPositive() {
			return invalid("annual_production_kwh", "must be positive, got %s", *in.AnnualProductionKWh)
		}
	} else if !in.ProductionFactor.IsPositive() {
		return invalid("production_factor", "must be positive, got %s", in.ProductionFactor)
	}

	if in.Options.ITC && !inRange(in.ITCRate, true) {
		return invalid("itc_rate", "must be within [0, 1], got %s", in.ITCRate)
	}
	if in.Options.Escalation && !inRange(in.EscalationRate, true) {
		return invalid("escalation_rate", "must be within [0, 1], got %s", in.EscalationRate)
	}
	if in.Options.Degradation && !inRange(in.DegradationRate, false) {
		return invalid("degradation_rate", "must be within [0, 1), got %s", in.DegradationRate)
	}
	return nil
}

// inRange reports whether 0 <= v <= 1, or 0 <= v < 1 when closed is false.
func inRange(v decimal.Decimal, closed bool) bool {
	if v.IsNegative() {
		return false
	}
	if closed {
		return v.LessThanOrEqual(one)
	}
	return v.LessThan(one)
}
