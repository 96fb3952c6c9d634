// internal/app/window_aggregator.go
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vaccine_slot_notifier/internal/domain/slot"
	"vaccine_slot_notifier/internal/infra/cowin"
)

// DateLayout is the DD-MM-YYYY format the upstream expects.
const DateLayout = "02-01-2006"

// WindowOffsets are the day offsets queried for every postal code.
var WindowOffsets = []int{0, 7, 14, 21}

// SlotFetcher retrieves the raw calendar body for one (postal code, date) pair.
type SlotFetcher interface {
	Fetch(ctx context.Context, postalCode, date string) ([]byte, error)
}

// WindowAggregator fetches the four date windows of a postal code and merges
// their centers.
type WindowAggregator struct {
	fetcher  SlotFetcher
	now      func() time.Time
	location *time.Location
	logger   *logrus.Entry
}

func NewWindowAggregator(fetcher SlotFetcher, location *time.Location, logger *logrus.Entry) *WindowAggregator {
	if location == nil {
		location = time.Local
	}
	return &WindowAggregator{
		fetcher:  fetcher,
		now:      time.Now,
		location: location,
		logger:   logger,
	}
}

// DateWindows returns the query dates for the current day, earliest first.
func (a *WindowAggregator) DateWindows() []string {
	today := a.now().In(a.location)
	dates := make([]string, len(WindowOffsets))
	for i, offset := range WindowOffsets {
		dates[i] = today.AddDate(0, 0, offset).Format(DateLayout)
	}
	return dates
}

// Aggregate fetches every window concurrently and concatenates the centers in
// window order. A window that fails to fetch or parse contributes nothing.
func (a *WindowAggregator) Aggregate(ctx context.Context, postalCode string) []slot.Center {
	dates := a.DateWindows()
	perWindow := make([][]slot.Center, len(dates))

	var g errgroup.Group
	for i, date := range dates {
		g.Go(func() error {
			perWindow[i] = a.fetchWindow(ctx, postalCode, date)
			return nil
		})
	}
	_ = g.Wait() // windows never return errors

	var centers []slot.Center
	for _, c := range perWindow {
		centers = append(centers, c...)
	}
	return centers
}

// fetchWindow recovers its own panics; a panicking window contributes no
// centers.
func (a *WindowAggregator) fetchWindow(ctx context.Context, postalCode, date string) (centers []slot.Center) {
	logCtx := a.logger.WithFields(logrus.Fields{"postal_code": postalCode, "date": date})
	defer func() {
		if r := recover(); r != nil {
			logCtx.WithField("panic", r).Error("Date window panicked, treating as no centers")
			centers = nil
		}
	}()

	raw, err := a.fetcher.Fetch(ctx, postalCode, date)
	if err != nil {
		logCtx.WithError(err).Warn("Fetching date window failed, treating as no centers")
		return nil
	}

	centers, err = cowin.DecodeCenters(raw)
	if err != nil {
		logCtx.WithError(err).Warn("Parsing date window failed, treating as no centers")
		return nil
	}

	logCtx.WithField("centers", len(centers)).Debug("Date window fetched")
	return centers
}
