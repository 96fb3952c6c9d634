package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"vaccine_slot_notifier/internal/domain/notice"
)

// 2024-01-01 gives windows 01-01, 08-01, 15-01 and 22-01.
var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

var testWindows = []string{"01-01-2024", "08-01-2024", "15-01-2024", "22-01-2024"}

const emptyCenters = `{"centers":[]}`

func newTestLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func centerJSON(name string, pincode int, feeType string, dose1 int) string {
	return fmt.Sprintf(`{
		"center_id": 1,
		"name": %q,
		"state_name": "Telangana",
		"district_name": "Hyderabad",
		"block_name": "Serilingampally",
		"pincode": %d,
		"fee_type": %q,
		"sessions": [{
			"session_id": "s-1",
			"date": "01-01-2024",
			"available_capacity": 5,
			"available_capacity_dose1": %d,
			"available_capacity_dose2": 0,
			"min_age_limit": 18,
			"vaccine": "X"
		}]
	}`, name, pincode, feeType, dose1)
}

func centersBody(centers ...string) []byte {
	return []byte(`{"centers":[` + strings.Join(centers, ",") + `]}`)
}

type fetchResult struct {
	body []byte
	err  error
}

// fakeFetcher answers by postal code and date; anything unconfigured gets an
// empty center list.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fetchResult
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]fetchResult{}}
}

func (f *fakeFetcher) set(postalCode, date string, body []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[postalCode+"|"+date] = fetchResult{body: body, err: err}
}

func (f *fakeFetcher) Fetch(_ context.Context, postalCode, date string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, postalCode+"|"+date)
	if r, ok := f.responses[postalCode+"|"+date]; ok {
		return r.body, r.err
	}
	return []byte(emptyCenters), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	messages []notice.Message
	block    chan struct{}
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) Send(_ context.Context, msg notice.Message) error {
	if n.block != nil {
		<-n.block
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) sent() []notice.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice.Message(nil), n.messages...)
}

func newFixedAggregator(fetcher SlotFetcher, logger *logrus.Entry) *WindowAggregator {
	agg := NewWindowAggregator(fetcher, time.UTC, logger)
	agg.now = func() time.Time { return fixedNow }
	return agg
}

func newFixedEvaluator() *SlotEvaluator {
	e := NewSlotEvaluator()
	e.now = func() time.Time { return fixedNow }
	return e
}

// panickingFetcher panics for one postal code and delegates the rest.
type panickingFetcher struct {
	panicOn string
	inner   SlotFetcher
}

func (p *panickingFetcher) Fetch(ctx context.Context, postalCode, date string) ([]byte, error) {
	if postalCode == p.panicOn {
		panic("decoder blew up")
	}
	return p.inner.Fetch(ctx, postalCode, date)
}
