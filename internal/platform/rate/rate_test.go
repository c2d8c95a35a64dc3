package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"paperflow/internal/testutil"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	mu    sync.Mutex
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
	return nil
}

func newFakeLimiter(capacity float64, period time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := New(capacity, period)
	l.now = clock.now
	l.sleep = clock.sleep
	l.last = clock.t
	return l, clock
}

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		capacity     float64
		period       time.Duration
		wantCapacity float64
		wantRate     float64
	}{
		{"valid capacity and period", 10, time.Second, 10, 10},
		{"zero capacity defaults to 1", 0, time.Second, 1, 1},
		{"negative capacity defaults to 1", -3, time.Second, 1, 1},
		{"zero period defaults to one second", 5, 0, 5, 5},
		{"slow window", 100, 5 * time.Minute, 100, 100.0 / 300.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.capacity, tt.period)
			testutil.AssertEqual(t, l.Capacity(), tt.wantCapacity, "capacity")
			testutil.AssertEqual(t, l.Rate(), tt.wantRate, "rate")
			testutil.AssertTrue(t, l.Tokens() <= tt.wantCapacity, "bucket starts at most full")
		})
	}
}

func TestLimiter_BurstThenWait(t *testing.T) {
	l, clock := newFakeLimiter(10, time.Second)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		testutil.AssertNoError(t, l.Acquire(ctx), "acquire within capacity")
	}
	testutil.AssertEqual(t, len(clock.slept), 0, "first capacity acquires should not wait")

	testutil.AssertNoError(t, l.Acquire(ctx), "11th acquire")
	testutil.AssertEqual(t, len(clock.slept), 1, "11th acquire should wait once")
	testutil.AssertDuration(t, clock.slept[0], 99*time.Millisecond, 101*time.Millisecond, "wait should be period/capacity")
}

func TestLimiter_FractionalCapacity(t *testing.T) {
	// 0.33 req/s as used for the unauthenticated Semantic Scholar tier
	l, clock := newFakeLimiter(0.33, time.Second)
	ctx := context.Background()

	testutil.AssertNoError(t, l.Acquire(ctx), "first acquire")
	testutil.AssertEqual(t, len(clock.slept), 1, "bucket below one token must wait")
	deficit := (1 - 0.33) / 0.33
	want := time.Duration(deficit * float64(time.Second))
	testutil.AssertDuration(t, clock.slept[0], want-time.Millisecond, want+time.Millisecond, "deficit wait")

	testutil.AssertNoError(t, l.Acquire(ctx), "second acquire")
	testutil.AssertDuration(t, clock.slept[1], 3*time.Second-10*time.Millisecond, 3*time.Second+40*time.Millisecond, "empty bucket waits ~1/rate")
}

func TestLimiter_TokensStayInRange(t *testing.T) {
	l, clock := newFakeLimiter(3, time.Second)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		testutil.AssertNoError(t, l.Acquire(ctx), "acquire")
		tokens := l.Tokens()
		testutil.AssertTrue(t, tokens >= 0, "tokens never negative")
		testutil.AssertTrue(t, tokens <= 3, "tokens never above capacity")
	}

	clock.mu.Lock()
	clock.t = clock.t.Add(time.Hour)
	clock.mu.Unlock()
	testutil.AssertEqual(t, l.Tokens(), 3.0, "long idle refills to capacity only")
}

func TestLimiter_Allow(t *testing.T) {
	l, clock := newFakeLimiter(2, time.Second)

	testutil.AssertTrue(t, l.Allow(), "first allow")
	testutil.AssertTrue(t, l.Allow(), "second allow")
	testutil.AssertFalse(t, l.Allow(), "bucket empty")

	clock.mu.Lock()
	clock.t = clock.t.Add(500 * time.Millisecond)
	clock.mu.Unlock()
	testutil.AssertTrue(t, l.Allow(), "refilled one token after half a period")
}

func TestLimiter_AcquireRealClock(t *testing.T) {
	l := New(10, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		testutil.AssertNoError(t, l.Acquire(ctx), "acquire")
	}
	burst := time.Since(start)
	testutil.AssertTrue(t, burst < 50*time.Millisecond, "burst should be immediate")

	start = time.Now()
	testutil.AssertNoError(t, l.Acquire(ctx), "11th acquire")
	testutil.AssertDuration(t, time.Since(start), 70*time.Millisecond, 250*time.Millisecond, "11th acquire waits ~0.1s")
}

func TestLimiter_AcquireCanceled(t *testing.T) {
	l := New(1, time.Hour)
	testutil.AssertNoError(t, l.Acquire(context.Background()), "drain bucket")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	testutil.AssertTrue(t, err == context.DeadlineExceeded, "should return context error")
}

func TestLimiter_ConcurrentAcquire(t *testing.T) {
	l, clock := newFakeLimiter(5, time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Acquire(ctx)
		}()
	}
	wg.Wait()

	// 5 immediate permits, then 10 waits of 200ms each
	testutil.AssertEqual(t, len(clock.slept), 10, "waiters beyond capacity")
	testutil.AssertTrue(t, l.Tokens() >= 0, "tokens never negative under contention")
}
