// 包 normalize 将来源各异的原始记录（CSV 行、JSON 对象、数据库行）
// 映射为统一的 model.Post：
// - 字段解析走声明式回退链（fields.go），可由 rules.yaml 追加候选
// - 平台识别：显式 platform 字段 → 平台专属 id 字段 → unknown
// - 数值/时间尽力转换，不做校验，不修改输入
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/rules"
)

// Normalizer 持有编译后的字段表；构造后只读，可并发使用。
type Normalizer struct {
	fields       map[string][]string
	fallbacks    map[string]string
	platformKeys []platformKey
	aliases      map[string]model.Platform
	now          func() time.Time
	newID        func(now time.Time) string
}

type Option func(*Normalizer)

// WithRules 在内置回退链之后追加 rules.yaml 中的候选字段/平台标识/别名。
func WithRules(r *rules.Rules) Option {
	return func(n *Normalizer) {
		if r == nil {
			return
		}
		for _, f := range builtinFields {
			n.fields[f.Field] = appendUnique(n.fields[f.Field], r.Candidates(f.Field)...)
		}
		// map 无序，按平台名排序保证追加顺序稳定
		names := make([]string, 0, len(r.PlatformKeys))
		for name := range r.PlatformKeys {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			keys := r.PlatformKeys[name]
			p := n.resolvePlatform(name)
			if p == model.Unknown || len(keys) == 0 {
				continue
			}
			n.platformKeys = append(n.platformKeys, platformKey{Platform: p, Keys: keys})
		}
		for alias, name := range r.Aliases {
			if p := model.Platform(name); p.Known() {
				n.aliases[alias] = p
			}
		}
	}
}

// WithClock 注入时钟（缺省时间字段与生成 id 使用）。
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator 注入 id 生成器，便于测试断言。
func WithIDGenerator(fn func(now time.Time) string) Option {
	return func(n *Normalizer) { n.newID = fn }
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		fields:    make(map[string][]string, len(builtinFields)),
		fallbacks: make(map[string]string, len(builtinFields)),
		aliases:   make(map[string]model.Platform, len(builtinAliases)),
		now:       time.Now,
		newID:     defaultID,
	}
	for _, f := range builtinFields {
		n.fields[f.Field] = append([]string(nil), f.Keys...)
		n.fallbacks[f.Field] = f.Fallback
	}
	n.platformKeys = append(n.platformKeys, builtinPlatformKeys...)
	for k, v := range builtinAliases {
		n.aliases[k] = v
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func defaultID(now time.Time) string {
	return fmt.Sprintf("item-%d-%s", now.UnixMilli(), uuid.NewString())
}

// Normalize 一对一、保序地转换整批记录；空输入返回空切片。
func (n *Normalizer) Normalize(raw []model.Record) []model.Post {
	out := make([]model.Post, 0, len(raw))
	now := n.now()
	for _, rec := range raw {
		out = append(out, n.post(rec, now))
	}
	return out
}

func (n *Normalizer) post(rec model.Record, now time.Time) model.Post {
	p := model.Post{
		ID:         n.text(rec, FieldID),
		Title:      CleanText(n.text(rec, FieldTitle)),
		Author:     CleanText(n.text(rec, FieldAuthor)),
		Views:      ToInt(n.lookup(rec, FieldViews)),
		Likes:      ToInt(n.lookup(rec, FieldLikes)),
		Comments:   ToInt(n.lookup(rec, FieldComments)),
		Shares:     ToInt(n.lookup(rec, FieldShares)),
		CreateTime: ToTime(n.lookup(rec, FieldCreateTime), now),
		CrawlTime:  ToTime(n.lookup(rec, FieldCrawlTime), now),
		URL:        n.text(rec, FieldURL),
	}
	if p.ID == "" {
		p.ID = n.newID(now)
	}
	// 清洗后为空（例如标题只有标签）同样使用占位值
	if p.Title == "" {
		p.Title = n.fallbacks[FieldTitle]
	}
	if p.Author == "" {
		p.Author = n.fallbacks[FieldAuthor]
	}
	p.Platform = n.DetectPlatform(rec)
	p.PlatformLabel = p.Platform.Label()
	return p
}

// lookup 按回退链返回第一个有效取值，全部缺失时返回 nil。
func (n *Normalizer) lookup(rec model.Record, field string) any {
	for _, k := range n.fields[field] {
		if v, ok := rec[k]; ok && present(v) {
			return v
		}
	}
	return nil
}

func (n *Normalizer) text(rec model.Record, field string) string {
	if v := n.lookup(rec, field); v != nil {
		return ToString(v)
	}
	return n.fallbacks[field]
}

// DetectPlatform 识别记录所属平台，结果总在封闭集合内。
func (n *Normalizer) DetectPlatform(rec model.Record) model.Platform {
	if v, ok := rec["platform"]; ok && present(v) {
		return n.resolvePlatform(ToString(v))
	}
	for _, pk := range n.platformKeys {
		for _, k := range pk.Keys {
			if v, ok := rec[k]; ok && present(v) {
				return pk.Platform
			}
		}
	}
	return model.Unknown
}

// resolvePlatform 规范化显式平台名：已知取值/别名映射到封闭集合，其它一律 unknown。
func (n *Normalizer) resolvePlatform(name string) model.Platform {
	s := strings.ToLower(strings.TrimSpace(name))
	if p := model.Platform(s); p.Known() {
		return p
	}
	if p, ok := n.aliases[s]; ok {
		return p
	}
	return model.Unknown
}

func appendUnique(base []string, add ...string) []string {
	seen := make(map[string]bool, len(base))
	for _, k := range base {
		seen[k] = true
	}
	for _, k := range add {
		if !seen[k] {
			seen[k] = true
			base = append(base, k)
		}
	}
	return base
}
