// 包 aggregate 负责视图计算与数据装载：
// - views.go：Latest/Hot/ByPlatform/Stats 纯函数
// - Runner：缓存 → 数据源 → 归一化，真实来源失败或为空时回退到合成数据
package aggregate

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"crawl-dashboard/internal/cache"
	"crawl-dashboard/internal/logx"
	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/normalize"
	"crawl-dashboard/internal/source"
)

// 默认视图条数。
const (
	DefaultLatest     = 10
	DefaultHot        = 10
	DefaultByPlatform = 20
)

// errEmpty 表示来源读取成功但没有任何记录。
var errEmpty = errors.New("source returned no records")

// Options 为 Runner 的依赖；Source 为空表示直接使用合成数据。
type Options struct {
	Source     source.Source
	Mock       *source.Mock
	Normalizer *normalize.Normalizer
	Gate       *cache.Gate[[]model.Post]
	Rand       Rand
	Now        func() time.Time
	// OnFallback 在回退到合成数据时调用（用于指标），可为空
	OnFallback func(kind source.Kind, err error)
}

// Runner 组合缓存、数据源与归一化，对外提供各视图；可并发使用。
type Runner struct {
	src        source.Source
	mock       *source.Mock
	norm       *normalize.Normalizer
	gate       *cache.Gate[[]model.Post]
	rnd        *lockedRand
	now        func() time.Time
	onFallback func(kind source.Kind, err error)
}

func New(o Options) *Runner {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(o.Now().UnixNano()))
	}
	rnd := &lockedRand{r: o.Rand}
	if o.Mock == nil {
		o.Mock = source.NewMock(rnd, o.Now)
	}
	if o.Normalizer == nil {
		o.Normalizer = normalize.New(normalize.WithClock(o.Now))
	}
	if o.Gate == nil {
		o.Gate = cache.NewGate[[]model.Post](30*time.Second, cache.WithClock(o.Now))
	}
	return &Runner{
		src:        o.Source,
		mock:       o.Mock,
		norm:       o.Normalizer,
		gate:       o.Gate,
		rnd:        rnd,
		now:        o.Now,
		onFallback: o.OnFallback,
	}
}

// Kind 返回配置的数据来源类型。
func (r *Runner) Kind() source.Kind {
	if r.src == nil {
		return source.KindMock
	}
	return r.src.Kind()
}

// Collection 返回当前帖子集合（经缓存）。返回值为共享快照，调用方不得修改。
func (r *Runner) Collection(ctx context.Context) ([]model.Post, error) {
	return r.gate.Get(ctx, r.load)
}

func (r *Runner) load(ctx context.Context) ([]model.Post, error) {
	if r.src == nil {
		return r.mock.Posts(), nil
	}
	start := time.Now()
	recs, err := r.src.Fetch(ctx)
	if err == nil && len(recs) == 0 {
		err = errEmpty
	}
	if err != nil {
		logx.Warnf("读取数据源失败，使用模拟数据：来源=%s 错误=%v", r.src.Kind(), err)
		if r.onFallback != nil {
			r.onFallback(r.src.Kind(), err)
		}
		return r.mock.Posts(), nil
	}
	posts := r.norm.Normalize(recs)
	logx.Infof("已加载 %d 条数据（来源=%s，用时=%s）", len(posts), r.src.Kind(), time.Since(start).Round(time.Millisecond))
	return posts, nil
}

// All 返回 latest(10)/hot(10)/stats 组合视图。
func (r *Runner) All(ctx context.Context) (model.Overview, error) {
	posts, err := r.Collection(ctx)
	if err != nil {
		return model.Overview{}, err
	}
	return model.Overview{
		Latest: Latest(posts, DefaultLatest),
		Hot:    Hot(posts, DefaultHot),
		Stats:  Stats(posts, r.now(), r.rnd),
	}, nil
}

func (r *Runner) Latest(ctx context.Context, limit int) ([]model.Post, error) {
	posts, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return Latest(posts, limit), nil
}

func (r *Runner) Hot(ctx context.Context, limit int) ([]model.Post, error) {
	posts, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return Hot(posts, limit), nil
}

func (r *Runner) ByPlatform(ctx context.Context, p model.Platform, limit int) ([]model.Post, error) {
	posts, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return ByPlatform(posts, p, limit), nil
}

func (r *Runner) Stats(ctx context.Context) (model.Stats, error) {
	posts, err := r.Collection(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return Stats(posts, r.now(), r.rnd), nil
}

// Status 返回来源与缓存自检信息，不触发数据装载。
func (r *Runner) Status() model.Status {
	posts, updated, filled := r.gate.Peek()
	st := model.Status{
		DataSource: string(r.Kind()),
		CacheValid: r.gate.Valid(),
		LastUpdate: "未更新",
		DataCount:  len(posts),
	}
	if filled {
		st.LastUpdate = updated.Format("2006-01-02 15:04:05")
	}
	if r.src != nil {
		loc := r.src.Location()
		st.DataPath = &loc
	}
	return st
}

// lockedRand 串行化对随机源的访问（*rand.Rand 非并发安全）。
type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
