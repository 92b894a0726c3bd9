package aggregate

import (
	"sort"
	"time"

	"crawl-dashboard/internal/model"
)

// Rand 为趋势字段的随机源；*rand.Rand 满足该接口，测试中可替换为固定序列。
type Rand interface {
	Intn(n int) int
}

// Latest 按 crawlTime 倒序返回前 limit 条；稳定排序，时间相同保持原相对顺序。
func Latest(posts []model.Post, limit int) []model.Post {
	out := clone(posts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CrawlTime.After(out[j].CrawlTime) })
	return take(out, limit)
}

// Hot 按点赞数倒序返回前 limit 条；稳定排序。
func Hot(posts []model.Post, limit int) []model.Post {
	out := clone(posts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	return take(out, limit)
}

// ByPlatform 按原顺序返回平台完全匹配的前 limit 条；未知平台得到空结果。
func ByPlatform(posts []model.Post, platform model.Platform, limit int) []model.Post {
	out := make([]model.Post, 0)
	if limit <= 0 {
		return out
	}
	for _, p := range posts {
		if p.Platform != platform {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Stats 汇总计数/求和；todayCount 以 now 所在时区的当日零点为界。
// 趋势百分比为占位数据，每次计算都从 rnd 重新抽取。
func Stats(posts []model.Post, now time.Time, rnd Rand) model.Stats {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	st := model.Stats{
		TotalPosts: len(posts),
		Platforms:  make(map[model.Platform]int, len(model.Platforms)+1),
	}
	for _, p := range model.Platforms {
		st.Platforms[p] = 0
	}
	for _, p := range posts {
		if !p.CrawlTime.Before(midnight) {
			st.TodayCount++
		}
		st.TotalViews += p.Views
		st.TotalLikes += p.Likes
		st.TotalComments += p.Comments
		st.TotalShares += p.Shares
		st.Platforms[p.Platform]++
	}
	st.TodayTrend = rnd.Intn(20) + 5
	st.ViewsTrend = rnd.Intn(15) + 3
	st.LikesTrend = rnd.Intn(25) + 10
	st.CommentsTrend = rnd.Intn(18) + 7
	return st
}

func clone(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	copy(out, posts)
	return out
}

// take 截取前 limit 条：limit<=0 为空，超过长度返回全部。
func take(posts []model.Post, limit int) []model.Post {
	if limit <= 0 {
		return posts[:0]
	}
	if limit > len(posts) {
		return posts
	}
	return posts[:limit]
}
