package source

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"crawl-dashboard/internal/logx"
	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/store"
)

// Table 描述一张候选表：排序列与归属平台（空表示由记录自身判断）。
type Table struct {
	Name     string
	OrderBy  string
	Platform model.Platform
}

// DefaultTables 为内置候选表：通用表名、平台缩写表名，以及 MediaCrawler 的 SQLite 表。
var DefaultTables = []Table{
	{Name: "posts", OrderBy: "create_time"},
	{Name: "notes", OrderBy: "create_time"},
	{Name: "videos", OrderBy: "create_time"},
	{Name: "xhs", OrderBy: "create_time", Platform: model.Xiaohongshu},
	{Name: "dy", OrderBy: "create_time", Platform: model.Douyin},
	{Name: "bili", OrderBy: "create_time", Platform: model.Bilibili},
	{Name: "ks", OrderBy: "create_time", Platform: model.Kuaishou},
	{Name: "xhs_note", OrderBy: "time", Platform: model.Xiaohongshu},
	{Name: "douyin_aweme", OrderBy: "create_time", Platform: model.Douyin},
	{Name: "bilibili_video", OrderBy: "create_time", Platform: model.Bilibili},
	{Name: "kuaishou_video", OrderBy: "create_time", Platform: model.Kuaishou},
}

// tableSpecs 将配置的表名映射为 Table；未配置时使用 DefaultTables。
func tableSpecs(names []string) []Table {
	if len(names) == 0 {
		return DefaultTables
	}
	known := make(map[string]Table, len(DefaultTables))
	for _, t := range DefaultTables {
		known[t.Name] = t
	}
	out := make([]Table, 0, len(names))
	for _, n := range names {
		if t, ok := known[n]; ok {
			out = append(out, t)
			continue
		}
		out = append(out, Table{Name: n, OrderBy: "create_time"})
	}
	return out
}

// readTables 逐表读取；查询失败（多为表不存在）的表跳过。
// 平台表的记录在缺少 platform 字段时补齐。
func readTables(ctx context.Context, st *store.Store, tables []Table, limit int) ([]model.Record, error) {
	var all []model.Record
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := st.ReadTable(ctx, t.Name, t.OrderBy, limit)
		if err != nil {
			logx.Debugf("跳过表 %s（%s）：%v", t.Name, st.Driver(), err)
			continue
		}
		if t.Platform != "" {
			for _, r := range rows {
				if s, _ := r["platform"].(string); strings.TrimSpace(s) == "" {
					r["platform"] = string(t.Platform)
				}
			}
		}
		logx.Debugf("表 %s 读取 %d 行", t.Name, len(rows))
		all = append(all, rows...)
	}
	return all, nil
}

// SQLite 读取数据目录下第一个 *.db（只读）。每次 Fetch 重新打开，以便读到爬虫最新写入。
type SQLite struct {
	dir    string
	tables []Table
	limit  int
}

func NewSQLite(dir string, tables []Table, limit int) *SQLite {
	return &SQLite{dir: dir, tables: tables, limit: limit}
}

func (s *SQLite) Kind() Kind       { return KindSQLite }
func (s *SQLite) Location() string { return s.dir }

func (s *SQLite) Fetch(ctx context.Context) ([]model.Record, error) {
	files, err := listFiles(s.dir, ".db")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .db file in %s", s.dir)
	}
	st, err := store.OpenSQLite(files[0])
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return readTables(ctx, st, s.tables, s.limit)
}

// Postgres 在首次 Fetch 时建立连接池并复用；连接失败不缓存，下次重试。
type Postgres struct {
	dsn    string
	tables []Table
	limit  int

	mu sync.Mutex
	st *store.Store
}

func NewPostgres(dsn string, tables []Table, limit int) *Postgres {
	return &Postgres{dsn: dsn, tables: tables, limit: limit}
}

func (s *Postgres) Kind() Kind { return KindPostgres }

// Location 不暴露 DSN（可能含口令）。
func (s *Postgres) Location() string { return "postgres" }

func (s *Postgres) Fetch(ctx context.Context) ([]model.Record, error) {
	st, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return readTables(ctx, st, s.tables, s.limit)
}

func (s *Postgres) conn(ctx context.Context) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != nil {
		return s.st, nil
	}
	st, err := store.OpenPostgres(ctx, s.dsn)
	if err != nil {
		return nil, err
	}
	s.st = st
	return st, nil
}

func (s *Postgres) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return nil
	}
	err := s.st.Close()
	s.st = nil
	return err
}
