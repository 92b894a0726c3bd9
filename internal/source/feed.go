package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"crawl-dashboard/internal/config"
	"crawl-dashboard/internal/fetch"
	"crawl-dashboard/internal/logx"
	"crawl-dashboard/internal/model"
)

// hostPlatforms 按链接域名推断平台（RSSHub 等路由输出的条目链接指向原站）。
var hostPlatforms = []struct {
	suffix   string
	platform model.Platform
}{
	{"xiaohongshu.com", model.Xiaohongshu},
	{"xhslink.com", model.Xiaohongshu},
	{"douyin.com", model.Douyin},
	{"iesdouyin.com", model.Douyin},
	{"bilibili.com", model.Bilibili},
	{"b23.tv", model.Bilibili},
	{"kuaishou.com", model.Kuaishou},
}

// Feed 从配置的 RSS/Atom/JSON Feed 地址拉取条目，转换为原始记录。
type Feed struct {
	cl       *fetch.Client
	feeds    []config.Feed
	maxItems int
	timeout  time.Duration
}

func NewFeed(cl *fetch.Client, feeds []config.Feed, maxItems int) *Feed {
	return &Feed{cl: cl, feeds: feeds, maxItems: maxItems, timeout: 25 * time.Second}
}

func (s *Feed) Kind() Kind { return KindFeed }

func (s *Feed) Location() string {
	urls := make([]string, 0, len(s.feeds))
	for _, f := range s.feeds {
		urls = append(urls, f.URL)
	}
	return strings.Join(urls, ",")
}

// Fetch 逐个拉取订阅；单个订阅失败跳过，全部失败时返回最后一个错误。
func (s *Feed) Fetch(ctx context.Context) ([]model.Record, error) {
	var (
		all     []model.Record
		lastErr error
		ok      int
	)
	for _, f := range s.feeds {
		recs, err := s.parse(ctx, f)
		if err != nil {
			logx.Warnf("拉取订阅失败，已跳过：%s 错误=%v", f.URL, err)
			lastErr = err
			continue
		}
		ok++
		all = append(all, recs...)
	}
	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

func (s *Feed) parse(ctx context.Context, f config.Feed) ([]model.Record, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	// gofeed 不直接接收自定义 http.Client，先抓取再交给 gofeed 解析
	body, err := s.cl.Bytes(reqCtx, f.URL)
	if err != nil {
		return nil, fmt.Errorf("get feed %s: %w", f.URL, err)
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.URL, err)
	}
	out := make([]model.Record, 0, len(feed.Items))
	for _, it := range feed.Items {
		out = append(out, itemRecord(it, f.Platform))
		if s.maxItems > 0 && len(out) >= s.maxItems {
			break
		}
	}
	return out, nil
}

// itemRecord 将订阅条目映射为原始记录，字段名与爬虫导出保持一致，交由 Normalizer 处理。
func itemRecord(it *gofeed.Item, platform string) model.Record {
	rec := model.Record{
		"title": strings.TrimSpace(it.Title),
		"url":   strings.TrimSpace(it.Link),
	}
	if id := strings.TrimSpace(it.GUID); id != "" {
		rec["id"] = id
	} else if it.Link != "" {
		rec["id"] = strings.TrimSpace(it.Link)
	}
	if it.Author != nil {
		if it.Author.Name != "" {
			rec["author"] = it.Author.Name
		} else if it.Author.Email != "" {
			rec["author"] = it.Author.Email
		}
	}
	if t := pickTime(it.PublishedParsed, it.UpdatedParsed); !t.IsZero() {
		rec["create_time"] = t
	}
	if platform == "" {
		platform = string(platformFromLink(it.Link))
	}
	if platform != "" {
		rec["platform"] = platform
	}
	return rec
}

func platformFromLink(link string) model.Platform {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hostPlatforms {
		if host == h.suffix || strings.HasSuffix(host, "."+h.suffix) {
			return h.platform
		}
	}
	return ""
}

func pickTime(a, b *time.Time) time.Time {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return time.Time{}
}
