// internal/domain/notice/notifier.go
package notice

import "context"

// Notifier delivers a Message over one channel (email, telegram).
// This keeps the cycle logic independent of the transport libraries.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
