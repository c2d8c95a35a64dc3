// Package rate provides a token bucket rate limiter for outbound calls.
package rate

import (
	"context"
	"time"
)

// Limiter is a token bucket granting `capacity` permits per `period`.
//
// Tokens refill continuously at capacity/period per second up to capacity.
// A caller that finds less than one token sleeps for the deficit while
// holding the bucket, so waiters are admitted one at a time.
type Limiter struct {
	capacity float64
	period   time.Duration

	// lock is a one-slot semaphore guarding tokens and last. Unlike a
	// sync.Mutex it can be abandoned when the caller's context ends.
	lock   chan struct{}
	tokens float64
	last   time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter admitting `capacity` operations per `period`.
// The bucket starts full.
//
// Example:
//
//	limiter := rate.New(10, time.Second) // 10 req/s, burst of 10
func New(capacity float64, period time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	if period <= 0 {
		period = time.Second
	}

	return &Limiter{
		capacity: capacity,
		period:   period,
		lock:     make(chan struct{}, 1),
		tokens:   capacity,
		last:     time.Now(),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// PerSecond is shorthand for New(rps, time.Second).
func PerSecond(rps float64) *Limiter {
	return New(rps, time.Second)
}

// Acquire blocks until one token is available and consumes it. Only the
// calling goroutine is suspended. It returns ctx.Err() if the context ends
// first, in which case no token is consumed.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.enter(ctx); err != nil {
		return err
	}
	defer l.leave()

	l.advance(l.now())

	if l.tokens < 1 {
		wait := time.Duration((1 - l.tokens) * float64(l.period) / l.capacity)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		l.advance(l.now())
		if l.tokens < 1 {
			// sleep granularity can land a hair early
			l.tokens = 1
		}
	}

	l.tokens--
	return nil
}

// Allow consumes a token if one is available right now.
func (l *Limiter) Allow() bool {
	select {
	case l.lock <- struct{}{}:
	default:
		return false
	}
	defer l.leave()

	l.advance(l.now())
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Tokens returns the current number of available tokens.
func (l *Limiter) Tokens() float64 {
	_ = l.enter(context.Background())
	defer l.leave()

	l.advance(l.now())
	return l.tokens
}

// Capacity returns the bucket size.
func (l *Limiter) Capacity() float64 {
	return l.capacity
}

// Rate returns the refill rate in tokens per second.
func (l *Limiter) Rate() float64 {
	return l.capacity / l.period.Seconds()
}

func (l *Limiter) enter(ctx context.Context) error {
	select {
	case l.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) leave() {
	<-l.lock
}

// advance refills tokens for the time elapsed since the last refill.
// Must be called with the lock held.
func (l *Limiter) advance(now time.Time) {
	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.capacity / l.period.Seconds()
	}
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	if l.tokens < 0 {
		l.tokens = 0
	}
	l.last = now
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
