// 包 cache 提供单槽位、带 TTL 的计算结果缓存（Gate）：
// - 命中：直接返回上次结果，不调用 compute
// - 未命中：同一时刻只允许一次 compute（singleflight），并发调用方共享结果
// - 结果整体替换，不做合并或局部失效
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Observer 接收命中/未命中/计算结果事件，用于指标统计；可为空。
type Observer interface {
	Hit()
	Miss()
	Computed(d time.Duration, err error)
}

type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
}

// WithClock 注入时钟，测试中用于推进时间。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Gate 为单槽位 TTL 缓存；零值不可用，请使用 NewGate。
type Gate[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	obs   Observer
	group singleflight.Group

	mu      sync.RWMutex
	value   T
	updated time.Time
	filled  bool
}

func NewGate[T any](ttl time.Duration, opts ...Option) *Gate[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Gate[T]{ttl: ttl, now: o.now, obs: o.observer}
}

// slotKey 为 singleflight 的唯一键（单槽位）。
const slotKey = "slot"

// Get 在有效期内返回缓存值，否则调用 compute 并写回。
// compute 失败时返回错误且保留原缓存内容。
func (g *Gate[T]) Get(ctx context.Context, compute func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := g.fresh(); ok {
		g.hit()
		return v, nil
	}
	// compute 不随单个调用方取消而中断，结果由所有等待者共享
	flightCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(slotKey, func() (any, error) {
		if v, ok := g.fresh(); ok {
			return v, nil
		}
		g.miss()
		start := time.Now()
		v, err := compute(flightCtx)
		if g.obs != nil {
			g.obs.Computed(time.Since(start), err)
		}
		if err != nil {
			return v, err
		}
		g.mu.Lock()
		g.value = v
		g.updated = g.now()
		g.filled = true
		g.mu.Unlock()
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			var zero T
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// Peek 返回当前缓存内容与写入时间，不触发计算；filled=false 表示尚未写入。
func (g *Gate[T]) Peek() (v T, updated time.Time, filled bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value, g.updated, g.filled
}

// Valid 判断缓存当前是否在有效期内。
func (g *Gate[T]) Valid() bool {
	_, ok := g.fresh()
	return ok
}

func (g *Gate[T]) fresh() (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.filled || g.now().Sub(g.updated) >= g.ttl {
		var zero T
		return zero, false
	}
	return g.value, true
}

func (g *Gate[T]) hit() {
	if g.obs != nil {
		g.obs.Hit()
	}
}

func (g *Gate[T]) miss() {
	if g.obs != nil {
		g.obs.Miss()
	}
}
