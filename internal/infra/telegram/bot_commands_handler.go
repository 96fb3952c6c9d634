// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"vaccine_slot_notifier/internal/app"
	"vaccine_slot_notifier/internal/domain/slot"
)

// CommandHandlers answers the bot commands. Everyone may use /start, /help
// and /criteria; /check is reserved for the admin.
type CommandHandlers struct {
	criteria     slot.Criteria
	runner       app.CycleRunner
	adminID      int64
	cycleTimeout time.Duration
	logger       *logrus.Entry
}

func NewCommandHandlers(
	criteria slot.Criteria,
	runner app.CycleRunner,
	adminTelegramID int64, // 0 disables /check
	cycleTimeout time.Duration,
	baseLogger *logrus.Entry,
) *CommandHandlers {
	return &CommandHandlers{
		criteria:     criteria,
		runner:       runner,
		adminID:      adminTelegramID,
		cycleTimeout: cycleTimeout,
		logger:       baseLogger,
	}
}

// RegisterBotCommands wires every command onto the bot.
func RegisterBotCommands(b *telebot.Bot, h *CommandHandlers) {
	b.Handle("/start", h.Start)
	b.Handle("/help", h.Help)
	b.Handle("/criteria", h.ShowCriteria)
	b.Handle("/check", h.Check)
}

func (h *CommandHandlers) isAdmin(c telebot.Context) bool {
	return h.adminID != 0 && c.Sender() != nil && c.Sender().ID == h.adminID
}

func (h *CommandHandlers) commandLogger(command string, c telebot.Context) *logrus.Entry {
	fields := logrus.Fields{"command": command}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	return h.logger.WithFields(fields)
}

func (h *CommandHandlers) Start(c telebot.Context) error {
	logCtx := h.commandLogger("/start", c)
	logCtx.Info("Processing /start command")

	var firstName string
	if c.Sender() != nil {
		firstName = c.Sender().FirstName
	}
	if h.isAdmin(c) {
		logCtx.Info("User identified as Admin")
		return c.Send(fmt.Sprintf("Hello, admin %s! Slot checks are running. Use /help for the list of commands.", firstName))
	}
	return c.Send(fmt.Sprintf("Hello, %s! I report CoWIN vaccination slot availability for the configured pincodes. Use /help for the list of commands.", firstName))
}

func (h *CommandHandlers) Help(c telebot.Context) error {
	h.commandLogger("/help", c).Info("Processing /help command")
	return c.Send(HelpText(h.isAdmin(c)))
}

func (h *CommandHandlers) ShowCriteria(c telebot.Context) error {
	h.commandLogger("/criteria", c).Info("Processing /criteria command")
	return c.Send(CriteriaText(h.criteria))
}

// HelpText lists the commands available to the sender.
func HelpText(admin bool) string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	b.WriteString("/criteria - show the age, fee, dose and pincodes being checked\n")
	if admin {
		b.WriteString("/check - run a check cycle right now\n")
	}
	b.WriteString("/help - show this message")
	return b.String()
}

// CriteriaText renders the configured filter criteria.
func CriteriaText(c slot.Criteria) string {
	noSlots := "off"
	if c.SendNoSlotsNotice {
		noSlots = "on"
	}
	return fmt.Sprintf("Minimum age: %d+\nFee type: %s\nDose: %d\nPincodes: %s\nNo-slots notice: %s",
		c.MinAge, c.FeeFilter, c.Dose, strings.Join(c.PostalCodes, ", "), noSlots)
}
