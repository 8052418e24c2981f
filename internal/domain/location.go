package domain

// Location is the jurisdiction a project is installed in.
type Location string

const (
	LocationMaryland           Location = "maryland"
	LocationDistrictOfColumbia Location = "district-of-columbia"
)

// Locations lists every supported jurisdiction in display order.
var Locations = []Location{LocationMaryland, LocationDistrictOfColumbia}

// String returns the string representation of Location.
func (l Location) String() string {
	return string(l)
}

// IsValid checks if the location is a supported jurisdiction.
func (l Location) IsValid() bool {
	return l == LocationMaryland || l == LocationDistrictOfColumbia
}

// Label returns the human-readable jurisdiction name.
func (l Location) Label() string {
	switch l {
	case LocationMaryland:
		return "Maryland"
	case LocationDistrictOfColumbia:
		return "Washington DC"
	default:
		return string(l)
	}
}

// UtilityID identifies an electric utility in the rate table.
type UtilityID string

const (
	UtilityPepcoMD       UtilityID = "pepco-md"
	UtilityPepcoDC       UtilityID = "pepco-dc"
	UtilityBGE           UtilityID = "bge"
	UtilityPotomacEdison UtilityID = "potomac-edison"
	UtilityOther         UtilityID = "other"
)

// String returns the string representation of UtilityID.
func (u UtilityID) String() string {
	return string(u)
}

// ProgramID identifies an SREC program schedule.
type ProgramID string

const (
	ProgramDCStandard         ProgramID = "dc-standard"
	ProgramMDStandard         ProgramID = "md-standard"
	ProgramMDBrighterTomorrow ProgramID = "md-brighter-tomorrow"
)

// String returns the string representation of ProgramID.
func (p ProgramID) String() string {
	return string(p)
}

// DefaultProgram returns the standard SREC program for a location.
// Returns "" for unsupported locations.
func DefaultProgram(l Location) ProgramID {
	switch l {
	case LocationMaryland:
		return ProgramMDStandard
	case LocationDistrictOfColumbia:
		return ProgramDCStandard
	default:
		return ""
	}
}
