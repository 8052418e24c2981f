package domain

import "github.com/shopspring/decimal"

// ProFormaRecord is a saved pro-forma: the input snapshot plus its headline.
// Corresponds to proformas table.
type ProFormaRecord struct {
	ProFormaID   string // deterministic hash of Input
	CustomerName string
	ProjectName  string
	Location     Location
	Utility      UtilityID

	SystemSizeKW  decimal.Decimal
	InstalledCost decimal.Decimal
	NetCost       decimal.Decimal
	Year1Benefit  decimal.Decimal
	PaybackYear   int

	Input     ProjectInput
	CreatedAt int64 // Unix ms
}

// NewProFormaRecord builds a record from an input and its computed result.
func NewProFormaRecord(id string, in ProjectInput, res *ProjectionResult, createdAt int64) *ProFormaRecord {
	return &ProFormaRecord{
		ProFormaID:    id,
		CustomerName:  in.CustomerName,
		ProjectName:   in.ProjectName,
		Location:      in.Location,
		Utility:       in.Utility,
		SystemSizeKW:  in.SystemSizeKW,
		InstalledCost: res.InstalledCost,
		NetCost:       res.NetCost,
		Year1Benefit:  res.Year1Benefit,
		PaybackYear:   res.PaybackYear,
		Input:         in.Clone(),
		CreatedAt:     createdAt,
	}
}

// Clone returns a deep copy of the record.
func (r *ProFormaRecord) Clone() *ProFormaRecord {
	out := *r
	out.Input = r.Input.Clone()
	return &out
}
