// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/telebot.v3"

	"vaccine_slot_notifier/internal/domain/notice"
)

// sender is the part of *telebot.Bot the notifier needs.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Notifier implements notice.Notifier by posting every notice to a fixed set of chats.
type Notifier struct {
	bot     sender
	chatIDs []int64
}

func NewNotifier(b sender, chatIDs []int64) *Notifier {
	return &Notifier{bot: b, chatIDs: chatIDs}
}

func (n *Notifier) Name() string { return "telegram" }

// maxMessageLength is the Bot API limit for one text message.
const maxMessageLength = 4096

// Send posts the notice to each chat, split into as many messages as the
// length limit needs. A failure for one chat does not stop the others; all
// failures are returned together.
func (n *Notifier) Send(ctx context.Context, msg notice.Message) error {
	chunks := splitMessage(msg.Subject+"\n\n"+msg.Body, maxMessageLength)

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		for i, chunk := range chunks {
			if _, err := n.bot.Send(telebot.ChatID(chatID), chunk, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
				errs = append(errs, fmt.Errorf("chat %d part %d/%d: %w", chatID, i+1, len(chunks), err))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// splitMessage cuts text into pieces of at most limit runes, breaking on line
// boundaries. A single line longer than limit is cut mid-line.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
		}
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return chunks
}
