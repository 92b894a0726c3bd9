// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 支持的数据源类型；auto 表示按目录内容自动探测。
var dataSources = map[string]bool{
	"auto": true, "csv": true, "json": true, "xlsx": true,
	"sqlite": true, "postgres": true, "feed": true, "mock": true,
}

type Config struct {
	Listen     string     `yaml:"LISTEN"`
	DataPath   string     `yaml:"DATA_PATH"`
	DataSource string     `yaml:"DATA_SOURCE"` // auto|csv|json|xlsx|sqlite|postgres|feed|mock
	CacheTTL   Duration   `yaml:"CACHE_TTL"`
	StaticDir  string     `yaml:"STATIC_DIR"`
	RulesPath  string     `yaml:"RULES"`
	Database   Database   `yaml:"DATABASE"`
	Feeds      []Feed     `yaml:"FEEDS"`
	Proxy      Proxy      `yaml:"PROXY"`
	Fetch      FetchLimit `yaml:"FETCH"`
	LogLevel   string     `yaml:"LOG_LEVEL"`
	LogFormat  string     `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale  string     `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor   string     `yaml:"LOG_COLOR"`  // auto|always|never
}

type Database struct {
	// DSN 仅在 DATA_SOURCE=postgres 时使用；sqlite 直接读取 DATA_PATH 下的 *.db
	DSN       string `yaml:"dsn"`
	RowLimit  int    `yaml:"row_limit"`
	TableList string `yaml:"tables"` // 逗号分隔，留空使用内置表名
}

// Tables 返回配置的候选表名。
func (d Database) Tables() []string {
	var out []string
	for _, t := range strings.Split(d.TableList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type Feed struct {
	URL      string `yaml:"url"`
	Platform string `yaml:"platform"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

type FetchLimit struct {
	Timeout  Duration `yaml:"timeout"`
	Retry    int      `yaml:"retry"`
	MaxItems int      `yaml:"max_items"`
}

// Duration 支持在 YAML 中以 "30s"/"1m" 形式书写，纯数字按秒处理。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	s := strings.TrimSpace(n.Value)
	if s == "" {
		*d = 0
		return nil
	}
	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration %q", s)
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default 返回仅含默认值的配置（配置文件不存在时使用）。
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Load 从文件读取 YAML 并反序列化为 Config；文件不存在时回退到默认配置。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
	if c.CacheTTL < 0 {
		return errors.New("CACHE_TTL must be >= 0")
	}
	if c.Database.RowLimit < 0 {
		return errors.New("DATABASE.row_limit must be >= 0")
	}
	c.DataSource = strings.ToLower(strings.TrimSpace(c.DataSource))
	if c.DataSource == "" {
		c.DataSource = "auto"
	}
	if !dataSources[c.DataSource] {
		return fmt.Errorf("unsupported DATA_SOURCE: %s", c.DataSource)
	}
	if c.DataSource == "postgres" && c.Database.DSN == "" {
		return errors.New("DATABASE.dsn required when DATA_SOURCE=postgres")
	}
	if c.DataSource == "feed" && len(c.Feeds) == 0 {
		return errors.New("FEEDS required when DATA_SOURCE=feed")
	}
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.DataPath == "" {
		c.DataPath = "./data"
	}
	if c.RulesPath == "" {
		c.RulesPath = "rules.yaml"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = Duration(30 * time.Second)
	}
	if c.Database.RowLimit == 0 {
		c.Database.RowLimit = 100
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = Duration(25 * time.Second)
	}
	if c.Fetch.Retry < 0 {
		c.Fetch.Retry = 2
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
