// internal/domain/notice/message.go
package notice

// Kind tells availability notices apart from the end-of-cycle summary.
type Kind string

const (
	KindAvailability Kind = "AVAILABILITY"
	KindNoSlots      Kind = "NO_SLOTS"
)

// Message is a composed notice ready to be handed to a Notifier.
type Message struct {
	Kind       Kind
	PostalCode string // empty for KindNoSlots
	Subject    string
	Body       string
}
