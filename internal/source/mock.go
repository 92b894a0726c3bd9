package source

import (
	"fmt"
	"time"

	"crawl-dashboard/internal/model"
)

// MockSize 为合成数据条数。
const MockSize = 50

var mockTitles = []string{
	"这个美妆技巧真的太绝了！",
	"分享一个超好用的生活小窍门",
	"今天的OOTD穿搭分享",
	"探店｜这家店真的太好吃了",
	"超详细的旅游攻略来了",
	"新手也能学会的料理教程",
	"这个数码产品必须推荐",
	"健身小白的入门指南",
	"居家好物分享第N弹",
	"这部剧真的太好看了",
	"一个人的周末也要精致",
	"这个配方我能吃一辈子",
	"分享我的护肤流程",
	"这个景点绝对值得打卡",
	"宝藏咖啡店发现！",
}

// Rand 为合成数据的随机源；*rand.Rand 满足该接口。
type Rand interface {
	Intn(n int) int
}

// Mock 生成已归一化的演示帖子，不经过 Normalizer。
type Mock struct {
	rnd Rand
	now func() time.Time
}

func NewMock(rnd Rand, now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	return &Mock{rnd: rnd, now: now}
}

// Posts 生成 MockSize 条帖子：平台/互动量随机，createTime 落在最近 7 天内，crawlTime 为当前时间。
func (m *Mock) Posts() []model.Post {
	now := m.now()
	out := make([]model.Post, 0, MockSize)
	for i := 0; i < MockSize; i++ {
		p := model.Platforms[m.rnd.Intn(len(model.Platforms))]
		out = append(out, model.Post{
			ID:            fmt.Sprintf("mock-%d-%d", now.UnixMilli(), i),
			Title:         mockTitles[m.rnd.Intn(len(mockTitles))],
			Platform:      p,
			PlatformLabel: p.Label(),
			Author:        fmt.Sprintf("用户%d", m.rnd.Intn(10000)),
			Views:         int64(m.rnd.Intn(100000) + 1000),
			Likes:         int64(m.rnd.Intn(10000) + 100),
			Comments:      int64(m.rnd.Intn(1000) + 10),
			Shares:        int64(m.rnd.Intn(500) + 10),
			CreateTime:    now.Add(-time.Duration(m.rnd.Intn(7*24*3600)) * time.Second),
			CrawlTime:     now,
		})
	}
	return out
}
