// internal/domain/slot/criteria.go
package slot

import "strings"

// FeeFilter selects which centers are evaluated.
type FeeFilter string

const (
	FeeFilterPaid FeeFilter = "Paid"
	FeeFilterFree FeeFilter = "Free"
	FeeFilterBoth FeeFilter = "Both"
)

// Dose is the dose number a recipient is looking for.
type Dose int

const (
	DoseFirst  Dose = 1
	DoseSecond Dose = 2
)

// Criteria is the process-wide filter configuration. It is built once at
// startup and only read afterwards.
type Criteria struct {
	MinAge            int
	FeeFilter         FeeFilter
	Dose              Dose
	PostalCodes       []string
	Recipients        []string
	SendNoSlotsNotice bool
	// CaseInsensitiveFee compares fee types with strings.EqualFold instead of
	// an exact match.
	CaseInsensitiveFee bool
}

// AllowsCenter reports whether the center passes the fee filter. The check is
// skipped entirely for FeeFilterBoth.
func (c Criteria) AllowsCenter(center Center) bool {
	if c.FeeFilter == FeeFilterBoth {
		return true
	}
	if c.CaseInsensitiveFee {
		return strings.EqualFold(string(center.FeeType), string(c.FeeFilter))
	}
	return string(center.FeeType) == string(c.FeeFilter)
}

// Qualifies reports whether a session matches the age, capacity and dose
// conditions.
func (c Criteria) Qualifies(s Session) bool {
	if s.MinAgeLimit > c.MinAge || s.AvailableCapacity <= 0 {
		return false
	}
	switch c.Dose {
	case DoseFirst:
		return s.AvailableCapacityDose1 > 0
	case DoseSecond:
		return s.AvailableCapacityDose2 > 0
	default:
		return false
	}
}
