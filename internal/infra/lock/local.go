// Package lock provides the cycle-in-progress guards.
package lock

import (
	"context"
	"sync/atomic"
)

// LocalLocker guards overlapping cycles inside one process.
type LocalLocker struct {
	held atomic.Bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(_ context.Context) (func(context.Context) error, bool, error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	return func(context.Context) error {
		l.held.Store(false)
		return nil
	}, true, nil
}
