package incentive

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// ErrInvalidTables is returned when incentive data fails validation.
var ErrInvalidTables = errors.New("invalid incentive tables")

//go:embed incentives.yaml
var embeddedTables []byte

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the shared tables parsed from the embedded data.
// Parsed once; the result is read-only.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Parse(embeddedTables)
	})
	return defaultTables, defaultErr
}

// LoadFile reads substitute tables from a YAML file.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open incentive file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads tables from a YAML document.
func Load(r io.Reader) (*Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read incentive data: %w", err)
	}
	return Parse(data)
}

type rawTables struct {
	Programs  []rawProgram `yaml:"programs"`
	Utilities []rawUtility `yaml:"utilities"`
}

type rawProgram struct {
	ID             string    `yaml:"id"`
	Name           string    `yaml:"name"`
	Location       string    `yaml:"location"`
	MarketFraction float64   `yaml:"market_fraction"`
	Multiplier     float64   `yaml:"multiplier"`
	StartYear      int       `yaml:"start_year"`
	ACP            []float64 `yaml:"acp"`
}

type rawUtility struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Rate      float64  `yaml:"rate"`
	Locations []string `yaml:"locations"`
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Tables, error) {
	var raw rawTables
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}

	t := &Tables{
		programs:  make(map[domain.ProgramID]Program, len(raw.Programs)),
		utilities: make(map[domain.UtilityID]Utility, len(raw.Utilities)),
	}

	for _, rp := range raw.Programs {
		p, err := rp.toProgram()
		if err != nil {
			return nil, err
		}
		if _, dup := t.programs[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate program %q", ErrInvalidTables, p.ID)
		}
		t.programs[p.ID] = p
	}

	for _, ru := range raw.Utilities {
		u, err := ru.toUtility()
		if err != nil {
			return nil, err
		}
		if _, dup := t.utilities[u.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate utility %q", ErrInvalidTables, u.ID)
		}
		t.utilities[u.ID] = u
	}

	if len(t.utilities) == 0 {
		return nil, fmt.Errorf("%w: no utilities", ErrInvalidTables)
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

func (rp rawProgram) toProgram() (Program, error) {
	if rp.ID == "" {
		return Program{}, fmt.Errorf("%w: program without id", ErrInvalidTables)
	}
	loc := domain.Location(rp.Location)
	if !loc.IsValid() {
		return Program{}, fmt.Errorf("%w: program %s: unknown location %q", ErrInvalidTables, rp.ID, rp.Location)
	}
	if rp.StartYear <= 0 {
		return Program{}, fmt.Errorf("%w: program %s: start_year must be positive", ErrInvalidTables, rp.ID)
	}
	if rp.MarketFraction < 0 || rp.Multiplier < 0 {
		return Program{}, fmt.Errorf("%w: program %s: negative fraction or multiplier", ErrInvalidTables, rp.ID)
	}

	acp := make([]decimal.Decimal, len(rp.ACP))
	for i, v := range rp.ACP {
		if v < 0 {
			return Program{}, fmt.Errorf("%w: program %s: negative acp for %d", ErrInvalidTables, rp.ID, rp.StartYear+i)
		}
		acp[i] = decimal.NewFromFloat(v)
	}

	return Program{
		ID:             domain.ProgramID(rp.ID),
		Name:           rp.Name,
		Location:       loc,
		MarketFraction: decimal.NewFromFloat(rp.MarketFraction),
		Multiplier:     decimal.NewFromFloat(rp.Multiplier),
		StartYear:      rp.StartYear,
		ACP:            acp,
	}, nil
}

func (ru rawUtility) toUtility() (Utility, error) {
	if ru.ID == "" {
		return Utility{}, fmt.Errorf("%w: utility without id", ErrInvalidTables)
	}
	if ru.Rate < 0 {
		return Utility{}, fmt.Errorf("%w: utility %s: negative rate", ErrInvalidTables, ru.ID)
	}
	if len(ru.Locations) == 0 {
		return Utility{}, fmt.Errorf("%w: utility %s: no locations", ErrInvalidTables, ru.ID)
	}

	locs := make([]domain.Location, 0, len(ru.Locations))
	for _, s := range ru.Locations {
		loc := domain.Location(s)
		if !loc.IsValid() {
			return Utility{}, fmt.Errorf("%w: utility %s: unknown location %q", ErrInvalidTables, ru.ID, s)
		}
		locs = append(locs, loc)
	}

	return Utility{
		ID:        domain.UtilityID(ru.ID),
		Name:      ru.Name,
		Rate:      decimal.NewFromFloat(ru.Rate),
		Locations: locs,
	}, nil
}
