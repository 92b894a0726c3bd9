// 包 export 负责一次性导出：将当前集合与各视图写为 JSON 快照文件。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"crawl-dashboard/internal/aggregate"
	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/source"
)

// MaxPosts 为导出帖子数上限（按 crawlTime 倒序保留最新的部分）。
const MaxPosts = 150

// Source 为导出所需的数据能力，由 aggregate.Runner 实现。
type Source interface {
	Collection(ctx context.Context) ([]model.Post, error)
	Stats(ctx context.Context) (model.Stats, error)
	Kind() source.Kind
}

// Snapshot 读取集合并组装导出结构；stats 按完整集合计算，posts 受 MaxPosts 限制。
func Snapshot(ctx context.Context, src Source, now time.Time) (model.Export, error) {
	posts, err := src.Collection(ctx)
	if err != nil {
		return model.Export{}, fmt.Errorf("load collection: %w", err)
	}
	st, err := src.Stats(ctx)
	if err != nil {
		return model.Export{}, fmt.Errorf("stats: %w", err)
	}
	return model.Export{
		Stats:      st,
		Latest:     aggregate.Latest(posts, aggregate.DefaultLatest),
		Hot:        aggregate.Hot(posts, aggregate.DefaultHot),
		Posts:      aggregate.Latest(posts, MaxPosts),
		DataSource: string(src.Kind()),
		ExportedAt: now,
	}, nil
}

// ToJSON 生成快照并写入 path（带缩进）。先写临时文件再改名，避免读到半截文件。
func ToJSON(ctx context.Context, src Source, path string) error {
	ex, err := Snapshot(ctx, src, time.Now())
	if err != nil {
		return err
	}
	return WriteFile(path, ex)
}

func WriteFile(path string, ex model.Export) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.json")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ex); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
