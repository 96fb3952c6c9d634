package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"vaccine_slot_notifier/internal/app"
	"vaccine_slot_notifier/internal/domain/cycle"
)

// Check runs a check cycle on demand for the admin and replies with its summary.
func (h *CommandHandlers) Check(c telebot.Context) error {
	logCtx := h.commandLogger("/check", c)
	logCtx.Info("Command received")

	if !h.isAdmin(c) {
		logCtx.Warn("Unauthorized access attempt")
		return c.Send("Error: you are not allowed to run this command.")
	}

	if err := c.Send("Running a check cycle..."); err != nil {
		return err
	}

	ctx := context.Background()
	if h.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cycleTimeout)
		defer cancel()
	}

	result, err := h.runner.RunCycle(ctx)
	switch {
	case errors.Is(err, app.ErrCycleInProgress):
		logCtx.Info("Cycle already in progress")
		return c.Send("A check cycle is already running, try again later.")
	case err != nil:
		logCtx.WithError(err).Error("On-demand check cycle failed")
		return c.Send(fmt.Sprintf("Check cycle failed: %s", err.Error()))
	}

	logCtx.WithFields(logrus.Fields{
		"cycle_id":   result.ID,
		"slot_found": result.SlotFound,
	}).Info("On-demand check cycle finished")
	return c.Send(CycleSummaryText(result))
}

// CycleSummaryText renders a cycle result for the admin.
func CycleSummaryText(r *cycle.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Check cycle %s finished in %s.\n", r.ID, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "Slots found: %s\n", yesNo(r.SlotFound))
	fmt.Fprintf(&b, "Availability notices: %d\n", r.NoticesSent())
	fmt.Fprintf(&b, "No-slots notice sent: %s", yesNo(r.NoSlotsNoticeSent))

	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(&b, "\n%s: failed (%v)", o.PostalCode, o.Err)
		case o.DeliveryErr != nil:
			fmt.Fprintf(&b, "\n%s: notice not delivered (%v)", o.PostalCode, o.DeliveryErr)
		}
	}
	if r.NoSlotsDeliveryErr != nil {
		fmt.Fprintf(&b, "\nNo-slots notice not delivered (%v)", r.NoSlotsDeliveryErr)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
