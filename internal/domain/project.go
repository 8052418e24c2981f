package domain

import "github.com/shopspring/decimal"

// CostCategory is one of the fixed installed-cost line items priced in $/W.
type CostCategory string

const (
	CostModules            CostCategory = "modules"
	CostInverters          CostCategory = "inverters"
	CostRacking            CostCategory = "racking"
	CostBallastBlock       CostCategory = "ballast-block"
	CostElectricalMaterial CostCategory = "electrical-material"
	CostOtherMaterials     CostCategory = "other-materials"
	CostEquipmentRental    CostCategory = "equipment-rental"
	CostRoofAttachments    CostCategory = "roof-attachments"
	CostDumpsters          CostCategory = "dumpsters"
	CostPortaJohn          CostCategory = "porta-john"
	CostSafetyEquipment    CostCategory = "safety-equipment"
	CostEngineering        CostCategory = "engineering"
	CostStamps             CostCategory = "stamps"
	CostPermits            CostCategory = "permits"
	CostRevenueGradeMeters CostCategory = "revenue-grade-meters"
	CostIXApplicationFees  CostCategory = "ix-application-fees"
	CostOrigination        CostCategory = "origination-costs"
)

// CostCategories lists all 17 categories in report order.
// Totals are always summed in this order.
var CostCategories = []CostCategory{
	CostModules,
	CostInverters,
	CostRacking,
	CostBallastBlock,
	CostElectricalMaterial,
	CostOtherMaterials,
	CostEquipmentRental,
	CostRoofAttachments,
	CostDumpsters,
	CostPortaJohn,
	CostSafetyEquipment,
	CostEngineering,
	CostStamps,
	CostPermits,
	CostRevenueGradeMeters,
	CostIXApplicationFees,
	CostOrigination,
}

var costCategoryLabels = map[CostCategory]string{
	CostModules:            "Modules",
	CostInverters:          "Inverters",
	CostRacking:            "Racking",
	CostBallastBlock:       "Ballast Block",
	CostElectricalMaterial: "Electrical Material",
	CostOtherMaterials:     "Other Materials",
	CostEquipmentRental:    "Equipment Rental",
	CostRoofAttachments:    "Roof Attachments",
	CostDumpsters:          "Dumpsters",
	CostPortaJohn:          "Porta John",
	CostSafetyEquipment:    "Safety Equipment",
	CostEngineering:        "Engineering",
	CostStamps:             "Stamps",
	CostPermits:            "Permits",
	CostRevenueGradeMeters: "Revenue Grade Meters",
	CostIXApplicationFees:  "IX Application Fees",
	CostOrigination:        "Origination Costs",
}

// IsValid checks if the category is one of the fixed categories.
func (c CostCategory) IsValid() bool {
	_, ok := costCategoryLabels[c]
	return ok
}

// Label returns the display name used in reports.
func (c CostCategory) Label() string {
	if label, ok := costCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Pricing maps cost categories to $/W. Missing categories price at zero.
type Pricing map[CostCategory]decimal.Decimal

// PerWatt returns the $/W for a category, zero if unset.
func (p Pricing) PerWatt(c CostCategory) decimal.Decimal {
	if v, ok := p[c]; ok {
		return v
	}
	return decimal.Zero
}

// Total returns the summed $/W across all fixed categories.
func (p Pricing) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range CostCategories {
		total = total.Add(p.PerWatt(c))
	}
	return total
}

// Options holds the independent feature toggles of a projection.
type Options struct {
	ITC         bool `json:"itc"`         // apply federal investment tax credit
	SREC        bool `json:"srec"`        // include SREC revenue
	Escalation  bool `json:"escalation"`  // compound utility rate by EscalationRate
	Degradation bool `json:"degradation"` // decay production by DegradationRate
}

// AllOptions enumerates every toggle combination (2^4).
func AllOptions() []Options {
	combos := make([]Options, 0, 16)
	for mask := 0; mask < 16; mask++ {
		combos = append(combos, Options{
			ITC:         mask&1 != 0,
			SREC:        mask&2 != 0,
			Escalation:  mask&4 != 0,
			Degradation: mask&8 != 0,
		})
	}
	return combos
}

// Escalation presets offered by the calculator.
var (
	EscalationConservative = decimal.RequireFromString("0.02")
	EscalationModerate     = decimal.RequireFromString("0.035")
	EscalationAggressive   = decimal.RequireFromString("0.05")
)

// Defaults applied by WithDefaults.
var (
	DefaultITCRate          = decimal.RequireFromString("0.30")
	DefaultProductionFactor = decimal.NewFromInt(1250) // TSRF, kWh/kW/year
	DefaultDegradationRate  = decimal.RequireFromString("0.005")
	DefaultEscalationRate   = EscalationModerate
)

// ProjectInput is the full parameter snapshot for one projection.
type ProjectInput struct {
	CustomerName string `json:"customer_name"` // display only
	ProjectName  string `json:"project_name"`  // display only

	SystemSizeKW decimal.Decimal `json:"system_size_kw"`

	Location    Location  `json:"location"`
	Utility     UtilityID `json:"utility"`
	SRECProgram ProgramID `json:"srec_program,omitempty"`

	Options Options `json:"options"`
	Pricing Pricing `json:"pricing"`

	// Production: explicit estimate, or ProductionFactor x SystemSizeKW when nil.
	AnnualProductionKWh *decimal.Decimal `json:"annual_production_kwh,omitempty"`
	ProductionFactor    decimal.Decimal  `json:"production_factor"`

	// ElectricRateOverride replaces the utility's table rate when set.
	ElectricRateOverride *decimal.Decimal `json:"electric_rate_override,omitempty"`

	EscalationRate  decimal.Decimal `json:"escalation_rate"`  // used only if Options.Escalation
	DegradationRate decimal.Decimal `json:"degradation_rate"` // used only if Options.Degradation
	ITCRate         decimal.Decimal `json:"itc_rate"`         // used only if Options.ITC

	InstallYear int `json:"install_year"` // calendar year of projection year 1
}

// SystemSizeW returns the system size in watts.
func (p ProjectInput) SystemSizeW() decimal.Decimal {
	return p.SystemSizeKW.Mul(decimal.NewFromInt(1000))
}

// WithDefaults returns a copy with zero-valued defaultable fields filled in.
// InstallYear is left to the caller.
func (p ProjectInput) WithDefaults() ProjectInput {
	out := p
	if out.ProductionFactor.IsZero() {
		out.ProductionFactor = DefaultProductionFactor
	}
	if out.ITCRate.IsZero() {
		out.ITCRate = DefaultITCRate
	}
	if out.EscalationRate.IsZero() {
		out.EscalationRate = DefaultEscalationRate
	}
	if out.DegradationRate.IsZero() {
		out.DegradationRate = DefaultDegradationRate
	}
	if out.SRECProgram == "" {
		out.SRECProgram = DefaultProgram(out.Location)
	}
	if out.Pricing == nil {
		out.Pricing = Pricing{}
	}
	return out
}

// DefaultPricing returns the reference $/W pricing sheet.
func DefaultPricing() Pricing {
	return Pricing{
		CostModules:            decimal.RequireFromString("0.28"),
		CostInverters:          decimal.RequireFromString("0.15"),
		CostRacking:            decimal.RequireFromString("0.23"),
		CostBallastBlock:       decimal.RequireFromString("0.02"),
		CostElectricalMaterial: decimal.RequireFromString("0.23"),
		CostOtherMaterials:     decimal.RequireFromString("0.02"),
		CostEquipmentRental:    decimal.RequireFromString("0.04"),
		CostRoofAttachments:    decimal.RequireFromString("0.02"),
		CostDumpsters:          decimal.RequireFromString("0.01"),
		CostPortaJohn:          decimal.Zero,
		CostSafetyEquipment:    decimal.RequireFromString("0.01"),
		CostEngineering:        decimal.RequireFromString("0.02"),
		CostStamps:             decimal.RequireFromString("0.03"),
		CostPermits:            decimal.RequireFromString("0.03"),
		CostRevenueGradeMeters: decimal.RequireFromString("0.01"),
		CostIXApplicationFees:  decimal.Zero,
		CostOrigination:        decimal.RequireFromString("0.05"),
	}
}

// DefaultProjectInput returns the calculator's starting form values.
func DefaultProjectInput(installYear int) ProjectInput {
	return ProjectInput{
		CustomerName: "NDMU",
		ProjectName:  "Notre Dame MD",
		SystemSizeKW: decimal.RequireFromString("236.6"),
		Location:     LocationMaryland,
		Utility:      UtilityPepcoMD,
		SRECProgram:  ProgramMDStandard,
		Options: Options{
			ITC:        true,
			SREC:       true,
			Escalation: true,
		},
		Pricing:          DefaultPricing(),
		ProductionFactor: DefaultProductionFactor,
		EscalationRate:   DefaultEscalationRate,
		DegradationRate:  DefaultDegradationRate,
		ITCRate:          DefaultITCRate,
		InstallYear:      installYear,
	}
}

// Clone returns a deep copy; Pricing and the optional fields are not shared.
func (p ProjectInput) Clone() ProjectInput {
	out := p
	if p.Pricing != nil {
		out.Pricing = make(Pricing, len(p.Pricing))
		for c, v := range p.Pricing {
			out.Pricing[c] = v
		}
	}
	if p.AnnualProductionKWh != nil {
		v := *p.AnnualProductionKWh
		out.AnnualProductionKWh = &v
	}
	if p.ElectricRateOverride != nil {
		v := *p.ElectricRateOverride
		out.ElectricRateOverride = &v
	}
	return out
}
