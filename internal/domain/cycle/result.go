// internal/domain/cycle/result.go
package cycle

import (
	"time"

	"vaccine_slot_notifier/internal/domain/notice"
)

// Result is the transient outcome of one check cycle. It is returned to the
// caller and logged; nothing keeps it once the next cycle starts.
type Result struct {
	ID                 string
	StartedAt          time.Time
	FinishedAt         time.Time
	SlotFound          bool
	NoSlotsNoticeSent  bool
	// NoSlotsDeliveryErr is set when the no-slots notice failed on a channel.
	NoSlotsDeliveryErr error
	Outcomes           []Outcome
}

// Outcome is what a single postal code contributed to a cycle.
type Outcome struct {
	PostalCode  string
	Notice      *notice.Message // nil when nothing qualified
	Err         error           // set when processing the postal code failed
	DeliveryErr error
}

// NoticesSent counts the availability notices produced in the cycle.
func (r *Result) NoticesSent() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Notice != nil {
			n++
		}
	}
	return n
}

// Duration is how long the cycle took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
