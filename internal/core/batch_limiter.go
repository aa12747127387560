package core

// batch_limiter.go bounds how many batch operations (validate, export) run
// at once. Each batch already fans out over the validator's workers, so
// admitting batches without limit multiplies decoder memory. When every slot
// is busy a caller waits up to maxWait and then gets ErrTooManyBatches.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyBatches is returned when no batch slot frees up within the wait
// window.
var ErrTooManyBatches = errors.New("too many concurrent batches, please try again later")

const (
	DefaultMaxConcurrentBatches = 4
	DefaultMaxWaitTime          = 30 * time.Second
)

// BatchLimiter is a counting semaphore with drain support.
type BatchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	drained chan struct{} // closed while active == 0
}

// NewBatchLimiter allows maxConcurrent batches; non-positive arguments fall
// back to the defaults.
func NewBatchLimiter(maxConcurrent int, maxWait time.Duration) *BatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	drained := make(chan struct{})
	close(drained)
	return &BatchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		drained: drained,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release
// after a nil return.
func (l *BatchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.enter()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyBatches
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *BatchLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.enter()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *BatchLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.drained)
	}
	l.mu.Unlock()
	<-l.slots
}

func (l *BatchLimiter) enter() {
	l.mu.Lock()
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// WaitForDrain blocks until no batch holds a slot or ctx ends.
func (l *BatchLimiter) WaitForDrain(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.active == 0 {
			l.mu.Unlock()
			return nil
		}
		drained := l.drained
		l.mu.Unlock()

		select {
		case <-drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// LimiterStatus is a snapshot for health and monitoring endpoints.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current slot usage.
func (l *BatchLimiter) Status() LimiterStatus {
	l.mu.Lock()
	active := l.active
	l.mu.Unlock()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}
