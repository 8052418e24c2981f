package server

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// ScheduleEntry is one year of an SREC program schedule.
type ScheduleEntry struct {
	Year      int             `json:"year"`
	ACP       decimal.Decimal `json:"acp"`
	SRECPrice decimal.Decimal `json:"srec_price"`
}

// ProgramInfo describes an SREC program and its full schedule.
type ProgramInfo struct {
	ID             domain.ProgramID `json:"id"`
	Name           string           `json:"name"`
	Location       domain.Location  `json:"location"`
	MarketFraction decimal.Decimal  `json:"market_fraction"`
	Multiplier     decimal.Decimal  `json:"multiplier"`
	StartYear      int              `json:"start_year"`
	EndYear        int              `json:"end_year"`
	Schedule       []ScheduleEntry  `json:"schedule"`
}

// UtilityInfo describes a utility and where it operates.
type UtilityInfo struct {
	ID        domain.UtilityID  `json:"id"`
	Name      string            `json:"name"`
	Rate      decimal.Decimal   `json:"rate"`
	Locations []domain.Location `json:"locations"`
}

// IncentivesResponse is the body of GET /api/incentives.
type IncentivesResponse struct {
	Programs  []ProgramInfo `json:"programs"`
	Utilities []UtilityInfo `json:"utilities"`
}

// handleIncentives lists programs and utilities, optionally narrowed by ?location=.
func (s *Server) handleIncentives(w http.ResponseWriter, r *http.Request) {
	tables := s.engine.Tables()
	programs, utilities := tables.Programs(), tables.Utilities()

	if v := r.URL.Query().Get("location"); v != "" {
		loc := domain.Location(v)
		if !loc.IsValid() {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("unknown location %q", v))
			return
		}
		programs, utilities = tables.ProgramsFor(loc), tables.UtilitiesFor(loc)
	}

	resp := IncentivesResponse{}
	for _, p := range programs {
		info := ProgramInfo{
			ID:             p.ID,
			Name:           p.Name,
			Location:       p.Location,
			MarketFraction: p.MarketFraction,
			Multiplier:     p.Multiplier,
			StartYear:      p.StartYear,
			EndYear:        p.EndYear(),
			Schedule:       make([]ScheduleEntry, 0, len(p.ACP)),
		}
		for year := p.StartYear; year <= p.EndYear(); year++ {
			acp, _ := tables.ACP(p.ID, year)
			price, _ := tables.SRECPrice(p.ID, year)
			info.Schedule = append(info.Schedule, ScheduleEntry{Year: year, ACP: acp, SRECPrice: price})
		}
		resp.Programs = append(resp.Programs, info)
	}

	for _, u := range utilities {
		resp.Utilities = append(resp.Utilities, UtilityInfo{
			ID:        u.ID,
			Name:      u.Name,
			Rate:      u.Rate,
			Locations: u.Locations,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}
