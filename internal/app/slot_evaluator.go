// internal/app/slot_evaluator.go
package app

import (
	"fmt"
	"strings"
	"time"

	"vaccine_slot_notifier/internal/domain/notice"
	"vaccine_slot_notifier/internal/domain/slot"
)

const (
	subjectPrefix   = "CoWin Vaccination Availability Report: "
	subjectLayout   = "02-01-2006 15:04:05"
	registrationURL = "https://selfregistration.cowin.gov.in/"
)

// SlotEvaluator applies the criteria to aggregated centers and composes notices.
// It has no side effects.
type SlotEvaluator struct {
	now func() time.Time
}

func NewSlotEvaluator() *SlotEvaluator {
	return &SlotEvaluator{now: time.Now}
}

// QualifyingLines returns one line per qualifying session, in center then
// session order.
func (e *SlotEvaluator) QualifyingLines(centers []slot.Center, criteria slot.Criteria) []string {
	var lines []string
	for _, center := range centers {
		if !criteria.AllowsCenter(center) {
			continue
		}
		for _, session := range center.Sessions {
			if !criteria.Qualifies(session) {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s available on %s at %s, %s, %s, %s, Pincode-%d",
				session.Vaccine, session.Date, center.Name, center.BlockName,
				center.DistrictName, center.StateName, center.Pincode))
		}
	}
	return lines
}

// Evaluate builds the availability notice for a postal code. The second
// return value is false when nothing qualified.
func (e *SlotEvaluator) Evaluate(postalCode string, centers []slot.Center, criteria slot.Criteria) (notice.Message, bool) {
	lines := e.QualifyingLines(centers, criteria)
	if len(lines) == 0 {
		return notice.Message{}, false
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello,\n\n\tVaccination for your selected age group of %d+ is available near pincode %s:\n\n", criteria.MinAge, postalCode)
	for _, line := range lines {
		body.WriteString("\t- ")
		body.WriteString(line)
		body.WriteString("\n")
	}
	fmt.Fprintf(&body, "\nGo to %s right now.\n\nThanks.", registrationURL)

	return notice.Message{
		Kind:       notice.KindAvailability,
		PostalCode: postalCode,
		Subject:    e.subject(),
		Body:       body.String(),
	}, true
}

// NoSlotsNotice is the aggregate notice sent when no postal code qualified.
func (e *SlotEvaluator) NoSlotsNotice(criteria slot.Criteria) notice.Message {
	return notice.Message{
		Kind:    notice.KindNoSlots,
		Subject: e.subject(),
		Body: fmt.Sprintf("Hello,\n\n\tNo slots available for your selected age group of %d+ at %d pincodes: %s.\n\nThanks.",
			criteria.MinAge, len(criteria.PostalCodes), strings.Join(criteria.PostalCodes, ", ")),
	}
}

func (e *SlotEvaluator) subject() string {
	return subjectPrefix + e.now().Format(subjectLayout)
}
