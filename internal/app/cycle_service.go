// internal/app/cycle_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vaccine_slot_notifier/internal/domain/cycle"
	"vaccine_slot_notifier/internal/domain/notice"
	"vaccine_slot_notifier/internal/domain/slot"
)

// ErrCycleInProgress is returned when another cycle holds the cycle lock.
var ErrCycleInProgress = errors.New("check cycle already in progress")

// CycleLocker guards against overlapping cycles, in-process or across replicas.
type CycleLocker interface {
	TryLock(ctx context.Context) (unlock func(context.Context) error, acquired bool, err error)
}

type centerAggregator interface {
	Aggregate(ctx context.Context, postalCode string) []slot.Center
}

type noticeDispatcher interface {
	Dispatch(ctx context.Context, msg notice.Message) *Delivery
}

// CycleRunner is what the scheduler and the bot commands trigger.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*cycle.Result, error)
}

// CycleService drives one full check cycle across all configured postal codes.
type CycleService struct {
	aggregator    centerAggregator
	evaluator     *SlotEvaluator
	dispatcher    noticeDispatcher
	locker        CycleLocker
	criteria      slot.Criteria
	maxConcurrent int
	logger        *logrus.Entry
	now           func() time.Time
}

func NewCycleService(
	aggregator *WindowAggregator,
	evaluator *SlotEvaluator,
	dispatcher *Dispatcher,
	locker CycleLocker,
	criteria slot.Criteria,
	maxConcurrent int, // 0 means every postal code at once
	logger *logrus.Entry,
) *CycleService {
	return &CycleService{
		aggregator:    aggregator,
		evaluator:     evaluator,
		dispatcher:    dispatcher,
		locker:        locker,
		criteria:      criteria,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		now:           time.Now,
	}
}

// Criteria returns the read-only criteria every cycle evaluates against.
func (s *CycleService) Criteria() slot.Criteria {
	return s.criteria
}

// RunCycle checks every postal code concurrently, dispatches one notice per
// qualifying postal code and, when none qualified, the aggregate no-slots
// notice. Per postal code failures never abort the cycle.
func (s *CycleService) RunCycle(ctx context.Context) (*cycle.Result, error) {
	unlock, acquired, err := s.locker.TryLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !acquired {
		s.logger.Warn("Previous check cycle still running, skipping this one")
		return nil, ErrCycleInProgress
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.WithError(err).Error("Failed to release cycle lock")
		}
	}()

	result := &cycle.Result{ID: uuid.NewString(), StartedAt: s.now()}
	logCtx := s.logger.WithField("cycle_id", result.ID)
	logCtx.WithField("postal_codes", len(s.criteria.PostalCodes)).Info("Starting check cycle")

	outcomes := make([]cycle.Outcome, len(s.criteria.PostalCodes))
	deliveries := make([]*Delivery, len(s.criteria.PostalCodes))

	var g errgroup.Group
	if s.maxConcurrent > 0 {
		g.SetLimit(s.maxConcurrent)
	}
	for i, postalCode := range s.criteria.PostalCodes {
		g.Go(func() error {
			outcomes[i], deliveries[i] = s.checkPostalCode(ctx, postalCode, logCtx)
			return nil
		})
	}
	_ = g.Wait() // tasks report through outcomes

	for _, o := range outcomes {
		if o.Notice != nil {
			result.SlotFound = true
			break
		}
	}

	var summary *Delivery
	switch {
	case result.SlotFound:
	case !s.criteria.SendNoSlotsNotice:
		logCtx.Info("No slots found, no-slots notice disabled")
	case ctx.Err() != nil:
		logCtx.WithError(ctx.Err()).Warn("Cycle context ended before all postal codes settled, not sending no-slots notice")
	default:
		summary = s.dispatcher.Dispatch(ctx, s.evaluator.NoSlotsNotice(s.criteria))
		result.NoSlotsNoticeSent = true
		logCtx.Info("No slots found at any postal code, dispatching no-slots notice")
	}

	for i, d := range deliveries {
		if d == nil {
			continue
		}
		if err := d.Wait(ctx); err != nil {
			outcomes[i].DeliveryErr = err
			logCtx.WithError(err).WithField("postal_code", outcomes[i].PostalCode).Error("Availability notice was not delivered")
		}
	}
	if summary != nil {
		if err := summary.Wait(ctx); err != nil {
			result.NoSlotsDeliveryErr = err
			logCtx.WithError(err).Error("No-slots notice was not delivered")
		}
	}

	result.Outcomes = outcomes
	result.FinishedAt = s.now()
	logCtx.WithFields(logrus.Fields{
		"slot_found":  result.SlotFound,
		"notices":     result.NoticesSent(),
		"duration_ms": result.Duration().Milliseconds(),
	}).Infof("Covid Vaccine Check Complete for %s", result.FinishedAt.Format("02-01-2006 15:04:05"))

	return result, nil
}

func (s *CycleService) checkPostalCode(ctx context.Context, postalCode string, logCtx *logrus.Entry) (out cycle.Outcome, delivery *Delivery) {
	pcLog := logCtx.WithField("postal_code", postalCode)
	out.PostalCode = postalCode

	defer func() {
		if r := recover(); r != nil {
			out = cycle.Outcome{PostalCode: postalCode, Err: fmt.Errorf("checking postal code %s: %v", postalCode, r)}
			delivery = nil
			pcLog.WithField("panic", r).Error("Checking postal code failed, treating as no notice")
		}
	}()

	centers := s.aggregator.Aggregate(ctx, postalCode)
	msg, found := s.evaluator.Evaluate(postalCode, centers, s.criteria)
	if !found {
		pcLog.WithField("centers", len(centers)).Info("No qualifying slots")
		return out, nil
	}

	out.Notice = &msg
	pcLog.Info("Qualifying slots found, dispatching notice")
	return out, s.dispatcher.Dispatch(ctx, msg)
}
