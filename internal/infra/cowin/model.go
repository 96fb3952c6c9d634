package cowin

import (
	"fmt"

	"github.com/goccy/go-json"

	"vaccine_slot_notifier/internal/domain/slot"
)

type calendarResponse struct {
	Centers []center `json:"centers"`
}

type center struct {
	Name         string    `json:"name"`
	StateName    string    `json:"state_name"`
	DistrictName string    `json:"district_name"`
	BlockName    string    `json:"block_name"`
	Pincode      int       `json:"pincode"`
	FeeType      string    `json:"fee_type"`
	Sessions     []session `json:"sessions"`
}

type session struct {
	Date                   string  `json:"date"`
	AvailableCapacity      float64 `json:"available_capacity"`
	AvailableCapacityDose1 float64 `json:"available_capacity_dose1"`
	AvailableCapacityDose2 float64 `json:"available_capacity_dose2"`
	MinAgeLimit            int     `json:"min_age_limit"`
	Vaccine                string  `json:"vaccine"`
}

// DecodeCenters parses a calendarByPin body. A missing or null "centers"
// field yields an empty slice; anything that is not the expected shape is an
// error.
func DecodeCenters(raw []byte) ([]slot.Center, error) {
	var resp calendarResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode calendar response: %w", err)
	}

	centers := make([]slot.Center, 0, len(resp.Centers))
	for _, c := range resp.Centers {
		sessions := make([]slot.Session, 0, len(c.Sessions))
		for _, s := range c.Sessions {
			sessions = append(sessions, slot.Session{
				Date:                   s.Date,
				Vaccine:                s.Vaccine,
				MinAgeLimit:            s.MinAgeLimit,
				AvailableCapacity:      s.AvailableCapacity,
				AvailableCapacityDose1: s.AvailableCapacityDose1,
				AvailableCapacityDose2: s.AvailableCapacityDose2,
			})
		}
		centers = append(centers, slot.Center{
			Name:         c.Name,
			BlockName:    c.BlockName,
			DistrictName: c.DistrictName,
			StateName:    c.StateName,
			Pincode:      c.Pincode,
			FeeType:      slot.FeeType(c.FeeType),
			Sessions:     sessions,
		})
	}
	return centers, nil
}
