package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingObserver struct {
	hits, misses, computes atomic.Int32
}

func (o *countingObserver) Hit()                          { o.hits.Add(1) }
func (o *countingObserver) Miss()                         { o.misses.Add(1) }
func (o *countingObserver) Computed(time.Duration, error) { o.computes.Add(1) }

func TestGate_HitWithinTTL(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	obs := &countingObserver{}
	g := NewGate[[]int](30*time.Second, WithClock(clk.Now), WithObserver(obs))
	var calls int32
	compute := func(context.Context) ([]int, error) {
		n := atomic.AddInt32(&calls, 1)
		return []int{int(n)}, nil
	}

	first, err := g.Get(context.Background(), compute)
	require.NoError(t, err)
	clk.Advance(29 * time.Second)
	second, err := g.Get(context.Background(), compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls)
	assert.EqualValues(t, 1, obs.hits.Load())
	assert.EqualValues(t, 1, obs.misses.Load())
	assert.True(t, g.Valid())
}

func TestGate_RecomputeAfterTTL(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	g := NewGate[int](time.Second, WithClock(clk.Now))
	var calls int32
	compute := func(context.Context) (int, error) { return int(atomic.AddInt32(&calls, 1)), nil }

	v1, _ := g.Get(context.Background(), compute)
	clk.Advance(time.Second)
	assert.False(t, g.Valid())
	v2, _ := g.Get(context.Background(), compute)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	_, updated, filled := g.Peek()
	assert.True(t, filled)
	assert.Equal(t, clk.Now(), updated)
}

func TestGate_ConcurrentMissComputesOnce(t *testing.T) {
	g := NewGate[string](time.Minute)
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	compute := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		once.Do(func() { close(started) })
		<-release
		return "snapshot", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := g.Get(context.Background(), compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	<-started
	// 给其余调用方时间进入等待
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "snapshot", r)
	}
}

func TestGate_ErrorKeepsPreviousValue(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	g := NewGate[int](time.Second, WithClock(clk.Now))
	_, err := g.Get(context.Background(), func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	boom := errors.New("boom")
	_, err = g.Get(context.Background(), func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, _, filled := g.Peek()
	assert.True(t, filled)
	assert.Equal(t, 7, v)
}

func TestGate_CallerCancel(t *testing.T) {
	g := NewGate[int](time.Minute)
	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Get(ctx, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGate_EmptyIsNotValid(t *testing.T) {
	g := NewGate[int](time.Minute)
	assert.False(t, g.Valid())
	_, _, filled := g.Peek()
	assert.False(t, filled)
}
