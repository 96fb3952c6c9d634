package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaccine_slot_notifier/internal/domain/notice"
)

func testMessage(postalCode string) notice.Message {
	return notice.Message{Kind: notice.KindAvailability, PostalCode: postalCode, Subject: "s", Body: "b"}
}

func TestDispatcher_SendsToEveryChannel(t *testing.T) {
	entry, _ := newTestLogger()
	email := &recordingNotifier{name: "email"}
	tg := &recordingNotifier{name: "telegram"}

	d := NewDispatcher([]notice.Notifier{email, tg}, 2, entry)
	d.Start()
	defer d.Stop()

	err := d.Dispatch(context.Background(), testMessage("500084")).Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []notice.Message{testMessage("500084")}, email.sent())
	assert.Equal(t, []notice.Message{testMessage("500084")}, tg.sent())
}

func TestDispatcher_ChannelFailureIsReported(t *testing.T) {
	entry, _ := newTestLogger()
	smtpErr := errors.New("535 authentication failed")
	email := &recordingNotifier{name: "email", err: smtpErr}
	tg := &recordingNotifier{name: "telegram"}

	d := NewDispatcher([]notice.Notifier{email, tg}, 1, entry)
	d.Start()
	defer d.Stop()

	err := d.Dispatch(context.Background(), testMessage("500084")).Wait(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, smtpErr))
	assert.Contains(t, err.Error(), "email:")
	assert.Len(t, tg.sent(), 1, "a failing channel must not stop the others")
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	entry, _ := newTestLogger()
	email := &recordingNotifier{name: "email"}

	d := NewDispatcher([]notice.Notifier{email}, 1, entry)
	d.Start()

	var deliveries []*Delivery
	for _, pc := range []string{"500084", "110001", "560001"} {
		deliveries = append(deliveries, d.Dispatch(context.Background(), testMessage(pc)))
	}
	d.Stop()

	for _, delivery := range deliveries {
		assert.NoError(t, delivery.Wait(context.Background()))
	}
	assert.Len(t, email.sent(), 3)
}

func TestDispatcher_DispatchAfterStop(t *testing.T) {
	entry, _ := newTestLogger()
	email := &recordingNotifier{name: "email"}

	d := NewDispatcher([]notice.Notifier{email}, 1, entry)
	d.Start()
	d.Stop()
	d.Stop()

	err := d.Dispatch(context.Background(), testMessage("500084")).Wait(context.Background())

	assert.True(t, errors.Is(err, ErrDispatcherStopped))
	assert.Empty(t, email.sent())
}

func TestDelivery_WaitHonoursContext(t *testing.T) {
	entry, _ := newTestLogger()
	email := &recordingNotifier{name: "email", block: make(chan struct{})}

	d := NewDispatcher([]notice.Notifier{email}, 1, entry)
	d.Start()
	defer d.Stop()
	defer close(email.block)

	delivery := d.Dispatch(context.Background(), testMessage("500084"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.True(t, errors.Is(delivery.Wait(ctx), context.DeadlineExceeded))
}
