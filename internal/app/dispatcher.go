// internal/app/dispatcher.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"vaccine_slot_notifier/internal/domain/notice"
)

// ErrDispatcherStopped is returned by deliveries queued after Stop.
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// Delivery is the pending result of one dispatched notice.
type Delivery struct {
	done chan struct{}
	err  error
}

func newDelivery() *Delivery {
	return &Delivery{done: make(chan struct{})}
}

func (d *Delivery) finish(err error) {
	d.err = err
	close(d.done)
}

// Wait blocks until the notice was handed to every channel or ctx ends.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type dispatchJob struct {
	ctx      context.Context
	msg      notice.Message
	delivery *Delivery
}

// Dispatcher queues notices and sends them from a fixed pool of workers to
// every configured channel.
type Dispatcher struct {
	notifiers []notice.Notifier
	workers   int
	queue     chan dispatchJob
	logger    *logrus.Entry

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

func NewDispatcher(notifiers []notice.Notifier, workers int, logger *logrus.Entry) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		notifiers: notifiers,
		workers:   workers,
		queue:     make(chan dispatchJob, workers*10),
		logger:    logger,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go func(id int) {
			defer d.wg.Done()
			d.logger.Debugf("dispatch worker-%d started", id)
			for job := range d.queue {
				job.delivery.finish(d.send(job.ctx, job.msg))
			}
			d.logger.Debugf("dispatch worker-%d stopped", id)
		}(i)
	}
}

// Stop closes the queue and waits for queued notices to drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch queues msg and returns its Delivery. It only blocks while the queue
// is full.
func (d *Dispatcher) Dispatch(ctx context.Context, msg notice.Message) *Delivery {
	delivery := newDelivery()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		delivery.finish(ErrDispatcherStopped)
		return delivery
	}

	select {
	case d.queue <- dispatchJob{ctx: ctx, msg: msg, delivery: delivery}:
	case <-ctx.Done():
		delivery.finish(ctx.Err())
	}
	return delivery
}

func (d *Dispatcher) send(ctx context.Context, msg notice.Message) error {
	logCtx := d.logger.WithFields(logrus.Fields{"kind": msg.Kind, "postal_code": msg.PostalCode})

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			logCtx.WithError(err).WithField("channel", n.Name()).Error("Failed to send notice")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		logCtx.WithField("channel", n.Name()).Info("Notice sent")
	}
	return errors.Join(errs...)
}
