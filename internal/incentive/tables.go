// Package incentive holds the static SREC schedules and utility rate tables.
// Tables are immutable once loaded and safe for concurrent reads.
package incentive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// Program is one SREC program with its year-indexed ACP schedule.
type Program struct {
	ID             domain.ProgramID
	Name           string
	Location       domain.Location
	MarketFraction decimal.Decimal // share of ACP the market pays
	Multiplier     decimal.Decimal // program multiplier (Brighter Tomorrow = 1.5)
	StartYear      int
	ACP            []decimal.Decimal // ACP[i] applies to StartYear+i
}

// EndYear returns the last calendar year with a scheduled value.
func (p Program) EndYear() int {
	return p.StartYear + len(p.ACP) - 1
}

// Utility is one electric utility with its flat volumetric rate.
type Utility struct {
	ID        domain.UtilityID
	Name      string
	Rate      decimal.Decimal // $/kWh
	Locations []domain.Location
}

// Serves reports whether the utility operates in the location.
func (u Utility) Serves(l domain.Location) bool {
	for _, loc := range u.Locations {
		if loc == l {
			return true
		}
	}
	return false
}

// Tables is the loaded incentive and rate data.
type Tables struct {
	programs    map[domain.ProgramID]Program
	utilities   map[domain.UtilityID]Utility
	fingerprint string
}

// Fingerprint identifies the numbers the engine reads from these tables.
// Display names are not part of it.
func (t *Tables) Fingerprint() string {
	return t.fingerprint
}

func (t *Tables) computeFingerprint() string {
	var sb strings.Builder
	for _, p := range t.Programs() {
		fmt.Fprintf(&sb, "program|%s|%s|%s|%s|%d", p.ID, p.Location, p.MarketFraction, p.Multiplier, p.StartYear)
		for _, acp := range p.ACP {
			fmt.Fprintf(&sb, "|%s", acp)
		}
		sb.WriteByte('\n')
	}
	for _, u := range t.Utilities() {
		fmt.Fprintf(&sb, "utility|%s|%s", u.ID, u.Rate)
		locs := make([]string, 0, len(u.Locations))
		for _, l := range u.Locations {
			locs = append(locs, string(l))
		}
		sort.Strings(locs)
		fmt.Fprintf(&sb, "|%s\n", strings.Join(locs, ","))
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// ACP returns the scheduled ACP ceiling for a program and calendar year.
// Returns false if the program is unknown or the year is outside the schedule.
func (t *Tables) ACP(program domain.ProgramID, year int) (decimal.Decimal, bool) {
	p, ok := t.programs[program]
	if !ok {
		return decimal.Zero, false
	}
	if year < p.StartYear || year > p.EndYear() {
		return decimal.Zero, false
	}
	return p.ACP[year-p.StartYear], true
}

// SRECPrice returns the expected SREC price for a program and calendar year:
// ACP x market fraction x multiplier.
// Returns false (Unavailable) under the same conditions as ACP.
func (t *Tables) SRECPrice(program domain.ProgramID, year int) (decimal.Decimal, bool) {
	acp, ok := t.ACP(program, year)
	if !ok {
		return decimal.Zero, false
	}
	p := t.programs[program]
	return acp.Mul(p.MarketFraction).Mul(p.Multiplier), true
}

// UtilityRate returns the flat $/kWh rate for a utility.
// Returns false for unrecognized utilities.
func (t *Tables) UtilityRate(utility domain.UtilityID) (decimal.Decimal, bool) {
	u, ok := t.utilities[utility]
	if !ok {
		return decimal.Zero, false
	}
	return u.Rate, true
}

// UtilityServes reports whether the utility is a valid choice for the location.
func (t *Tables) UtilityServes(utility domain.UtilityID, location domain.Location) bool {
	u, ok := t.utilities[utility]
	return ok && u.Serves(location)
}

// ProgramServes reports whether the SREC program belongs to the location.
func (t *Tables) ProgramServes(program domain.ProgramID, location domain.Location) bool {
	p, ok := t.programs[program]
	return ok && p.Location == location
}

// Program returns a copy of a program definition.
func (t *Tables) Program(id domain.ProgramID) (Program, bool) {
	p, ok := t.programs[id]
	if !ok {
		return Program{}, false
	}
	return copyProgram(p), true
}

// Utility returns a copy of a utility definition.
func (t *Tables) Utility(id domain.UtilityID) (Utility, bool) {
	u, ok := t.utilities[id]
	if !ok {
		return Utility{}, false
	}
	return copyUtility(u), true
}

// Programs returns all programs sorted by ID.
func (t *Tables) Programs() []Program {
	out := make([]Program, 0, len(t.programs))
	for _, p := range t.programs {
		out = append(out, copyProgram(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Utilities returns all utilities sorted by ID.
func (t *Tables) Utilities() []Utility {
	out := make([]Utility, 0, len(t.utilities))
	for _, u := range t.utilities {
		out = append(out, copyUtility(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UtilitiesFor returns the utilities serving a location, sorted by ID.
func (t *Tables) UtilitiesFor(location domain.Location) []Utility {
	var out []Utility
	for _, u := range t.Utilities() {
		if u.Serves(location) {
			out = append(out, u)
		}
	}
	return out
}

// ProgramsFor returns the SREC programs of a location, sorted by ID.
func (t *Tables) ProgramsFor(location domain.Location) []Program {
	var out []Program
	for _, p := range t.Programs() {
		if p.Location == location {
			out = append(out, p)
		}
	}
	return out
}

func copyProgram(p Program) Program {
	acp := make([]decimal.Decimal, len(p.ACP))
	copy(acp, p.ACP)
	p.ACP = acp
	return p
}

func copyUtility(u Utility) Utility {
	locs := make([]domain.Location, len(u.Locations))
	copy(locs, u.Locations)
	u.Locations = locs
	return u
}
