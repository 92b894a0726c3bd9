// 包 source 负责选择并读取原始数据来源：
// - auto 模式按目录内容探测：*.csv → *.json → *.db → *.xlsx，均无则使用合成数据
// - 文件类来源单个文件失败只记录日志并跳过
// - 行式存储（sqlite/postgres）缺失的表直接跳过
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"crawl-dashboard/internal/config"
	"crawl-dashboard/internal/fetch"
	"crawl-dashboard/internal/model"
)

// Kind 为数据来源类型标签。
type Kind string

const (
	KindAuto     Kind = "auto"
	KindCSV      Kind = "csv"
	KindJSON     Kind = "json"
	KindXLSX     Kind = "xlsx"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindFeed     Kind = "feed"
	KindMock     Kind = "mock"
)

// Source 读取一批原始记录；实现需可被并发调用方串行复用（由缓存保证同一时刻只有一次 Fetch）。
type Source interface {
	Kind() Kind
	// Location 为 /api/status 展示的数据位置；无位置时返回空串。
	Location() string
	Fetch(ctx context.Context) ([]model.Record, error)
}

// detectOrder 为 auto 模式的探测顺序。
var detectOrder = []struct {
	ext  string
	kind Kind
}{
	{".csv", KindCSV},
	{".json", KindJSON},
	{".db", KindSQLite},
	{".xlsx", KindXLSX},
}

// Detect 按扩展名优先级探测目录内容；目录不存在或无匹配文件时返回 KindMock。
func Detect(dir string) Kind {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return KindMock
	}
	for _, d := range detectOrder {
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), d.ext) {
				return d.kind
			}
		}
	}
	return KindMock
}

// Open 根据配置构造来源；返回 nil Source 表示使用合成数据。
// 客户端 cl 仅 feed 来源使用，可为 nil。
func Open(cfg *config.Config, cl *fetch.Client) (Source, error) {
	kind := Kind(cfg.DataSource)
	if kind == KindAuto || kind == "" {
		kind = Detect(cfg.DataPath)
	}
	switch kind {
	case KindMock:
		return nil, nil
	case KindCSV:
		return &CSV{dir: cfg.DataPath}, nil
	case KindJSON:
		return &JSON{dir: cfg.DataPath}, nil
	case KindXLSX:
		return &XLSX{dir: cfg.DataPath}, nil
	case KindSQLite:
		return NewSQLite(cfg.DataPath, tableSpecs(cfg.Database.Tables()), cfg.Database.RowLimit), nil
	case KindPostgres:
		return NewPostgres(cfg.Database.DSN, tableSpecs(cfg.Database.Tables()), cfg.Database.RowLimit), nil
	case KindFeed:
		if cl == nil {
			return nil, fmt.Errorf("feed source requires http client")
		}
		return NewFeed(cl, cfg.Feeds, cfg.Fetch.MaxItems), nil
	}
	return nil, fmt.Errorf("unsupported data source %q", kind)
}

// listFiles 返回目录下指定扩展名的文件（按文件名排序）。
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
