// 包 rules 负责加载字段映射扩展规则（rules.yaml）：
// 在内置字段回退链之后追加候选字段名、平台识别字段与平台别名，
// 用于适配不同爬虫版本导出的列名而无需改代码。
package rules

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules 示例：
//
//	fields:
//	  likes: [like_cnt]
//	platform_keys:
//	  kuaishou: [photo_id]
//	aliases:
//	  redbook: xiaohongshu
type Rules struct {
	// Fields：目标字段 → 额外候选源字段（追加在内置回退链之后）
	Fields map[string][]string `yaml:"fields"`
	// PlatformKeys：平台 → 额外识别字段（存在即判定为该平台）
	PlatformKeys map[string][]string `yaml:"platform_keys"`
	// Aliases：平台别名 → 规范平台名
	Aliases map[string]string `yaml:"aliases"`
}

func Load(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", path, err)
	}
	r.normalize()
	return &r, nil
}

// normalize 统一键名为小写并去掉空白，避免配置书写差异。
func (r *Rules) normalize() {
	fields := make(map[string][]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[strings.ToLower(strings.TrimSpace(k))] = trimAll(v)
	}
	r.Fields = fields
	keys := make(map[string][]string, len(r.PlatformKeys))
	for k, v := range r.PlatformKeys {
		keys[strings.ToLower(strings.TrimSpace(k))] = trimAll(v)
	}
	r.PlatformKeys = keys
	aliases := make(map[string]string, len(r.Aliases))
	for k, v := range r.Aliases {
		aliases[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	r.Aliases = aliases
}

// Candidates 返回某目标字段的额外候选（不区分大小写）。
func (r *Rules) Candidates(field string) []string {
	if r == nil {
		return nil
	}
	return r.Fields[strings.ToLower(field)]
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
