// 包 model 定义对外输出的数据模型（帖子/统计/状态）与平台枚举。
package model

import "time"

// Platform 为平台标签，取值限定在已知集合或 unknown。
type Platform string

const (
	Xiaohongshu Platform = "xiaohongshu"
	Douyin      Platform = "douyin"
	Bilibili    Platform = "bilibili"
	Kuaishou    Platform = "kuaishou"
	Unknown     Platform = "unknown"
)

// Platforms 为已知平台（不含 unknown），顺序即展示顺序。
var Platforms = []Platform{Xiaohongshu, Douyin, Bilibili, Kuaishou}

var platformLabels = map[Platform]string{
	Xiaohongshu: "小红书",
	Douyin:      "抖音",
	Bilibili:    "B站",
	Kuaishou:    "快手",
	Unknown:     "未知",
}

// Label 返回平台中文名；未知取值原样返回。
func (p Platform) Label() string {
	if l, ok := platformLabels[p]; ok {
		return l
	}
	return string(p)
}

// Known 判断是否属于封闭集合（含 unknown）。
func (p Platform) Known() bool {
	_, ok := platformLabels[p]
	return ok
}

// Record 为归一化之前的原始记录（字段名 → 值），来自 CSV/JSON/数据库等不同来源。
type Record map[string]any

// Post 为归一化后的帖子条目。
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Platform      Platform  `json:"platform"`
	PlatformLabel string    `json:"platformLabel"`
	Author        string    `json:"author"`
	Views         int64     `json:"views"`
	Likes         int64     `json:"likes"`
	Comments      int64     `json:"comments"`
	Shares        int64     `json:"shares"`
	CreateTime    time.Time `json:"createTime"`
	CrawlTime     time.Time `json:"crawlTime"`
	URL           string    `json:"url"`
}

// Stats 为某次计算得到的统计快照，趋势字段每次计算都会重新随机生成。
type Stats struct {
	TodayCount    int              `json:"todayCount"`
	TotalViews    int64            `json:"totalViews"`
	TotalLikes    int64            `json:"totalLikes"`
	TotalComments int64            `json:"totalComments"`
	TotalShares   int64            `json:"totalShares"`
	TotalPosts    int              `json:"totalPosts"`
	Platforms     map[Platform]int `json:"platforms"`
	TodayTrend    int              `json:"todayTrend"`
	ViewsTrend    int              `json:"viewsTrend"`
	LikesTrend    int              `json:"likesTrend"`
	CommentsTrend int              `json:"commentsTrend"`
}

// Overview 为 /api/data/all 的数据体。
type Overview struct {
	Latest []Post `json:"latest"`
	Hot    []Post `json:"hot"`
	Stats  Stats  `json:"stats"`
}

// Status 为数据源与缓存的自检信息。
type Status struct {
	DataSource string  `json:"dataSource"`
	DataPath   *string `json:"dataPath"`
	CacheValid bool    `json:"cacheValid"`
	LastUpdate string  `json:"lastUpdate"`
	DataCount  int     `json:"dataCount"`
}

// Export 为一次性导出的 JSON 顶层结构。
type Export struct {
	Stats      Stats     `json:"stats"`
	Latest     []Post    `json:"latest"`
	Hot        []Post    `json:"hot"`
	Posts      []Post    `json:"posts"`
	DataSource string    `json:"dataSource"`
	ExportedAt time.Time `json:"exportedAt"`
}
