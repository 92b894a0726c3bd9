package normalize

import "crawl-dashboard/internal/model"

// 目标字段名，与 rules.yaml 中 fields 的键一致。
const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldAuthor     = "author"
	FieldViews      = "views"
	FieldLikes      = "likes"
	FieldComments   = "comments"
	FieldShares     = "shares"
	FieldCreateTime = "createTime"
	FieldCrawlTime  = "crawlTime"
	FieldURL        = "url"
)

const (
	DefaultTitle  = "无标题"
	DefaultAuthor = "未知用户"
)

// fieldRule：目标字段 → 按优先级排列的候选源字段 → 缺省值。
// 数值字段缺省为 0，时间字段缺省为入库时间，id 缺省为生成值。
type fieldRule struct {
	Field    string
	Keys     []string
	Fallback string
}

// builtinFields 为内置回退链，顺序即优先级；rules.yaml 只能在其后追加。
var builtinFields = []fieldRule{
	{Field: FieldID, Keys: []string{"id", "note_id", "aweme_id", "video_id", "bvid"}},
	{Field: FieldTitle, Keys: []string{"title", "desc", "content"}, Fallback: DefaultTitle},
	{Field: FieldAuthor, Keys: []string{"author", "nickname", "user_name"}, Fallback: DefaultAuthor},
	{Field: FieldViews, Keys: []string{"views", "view_count", "play_count", "video_play_count"}},
	{Field: FieldLikes, Keys: []string{"likes", "liked_count", "digg_count", "video_like_count"}},
	{Field: FieldComments, Keys: []string{"comments", "comment_count", "video_comment"}},
	{Field: FieldShares, Keys: []string{"shares", "share_count"}},
	{Field: FieldCreateTime, Keys: []string{"create_time", "publish_time", "time"}},
	{Field: FieldCrawlTime, Keys: []string{"crawl_time"}},
	{Field: FieldURL, Keys: []string{"url", "note_url", "video_url"}},
}

type platformKey struct {
	Platform model.Platform
	Keys     []string
}

// builtinPlatformKeys：无显式 platform 字段时按顺序检查的平台专属标识字段。
var builtinPlatformKeys = []platformKey{
	{Platform: model.Xiaohongshu, Keys: []string{"note_id", "xhs_note_id"}},
	{Platform: model.Douyin, Keys: []string{"aweme_id", "dy_aweme_id"}},
	{Platform: model.Bilibili, Keys: []string{"bvid", "bili_video_id"}},
	{Platform: model.Kuaishou, Keys: []string{"ks_video_id"}},
}

var builtinAliases = map[string]model.Platform{
	"xhs":     model.Xiaohongshu,
	"redbook": model.Xiaohongshu,
	"小红书":     model.Xiaohongshu,
	"dy":      model.Douyin,
	"抖音":      model.Douyin,
	"bili":    model.Bilibili,
	"b站":      model.Bilibili,
	"哔哩哔哩":    model.Bilibili,
	"ks":      model.Kuaishou,
	"快手":      model.Kuaishou,
}
