// internal/domain/slot/center.go
package slot

// FeeType is the fee category a center reports upstream.
type FeeType string

const (
	FeeTypeFree FeeType = "Free"
	FeeTypePaid FeeType = "Paid"
)

// Center is a vaccination site returned for a postal code and date window.
// It is fetched fresh every cycle and never persisted.
type Center struct {
	Name         string
	BlockName    string
	DistrictName string
	StateName    string
	Pincode      int
	FeeType      FeeType // empty when upstream does not report it
	Sessions     []Session
}

// Session is one dated appointment offering at a Center.
type Session struct {
	Date                   string // DD-MM-YYYY, as reported upstream
	Vaccine                string
	MinAgeLimit            int
	AvailableCapacity      float64
	AvailableCapacityDose1 float64
	AvailableCapacityDose2 float64
}
