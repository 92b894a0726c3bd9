// 命令行入口：
// - 解析 flags 与 settings.yaml/rules.yaml
// - 初始化日志、数据源、缓存与指标
// - 启动 HTTP 服务（优雅退出），或以 -export 导出一次 JSON 快照后退出
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"crawl-dashboard/internal/aggregate"
	"crawl-dashboard/internal/api"
	"crawl-dashboard/internal/cache"
	"crawl-dashboard/internal/config"
	"crawl-dashboard/internal/export"
	"crawl-dashboard/internal/fetch"
	"crawl-dashboard/internal/logx"
	"crawl-dashboard/internal/metrics"
	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/normalize"
	"crawl-dashboard/internal/rules"
	"crawl-dashboard/internal/source"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml (optional)")
		rulesPath  = flag.String("rules", "", "path to rules.yaml, overrides RULES in settings")
		exportPath = flag.String("export", "", "write a JSON snapshot to this path and exit")
		listen     = flag.String("listen", "", "listen address, overrides LISTEN in settings")
	)
	flag.Parse()

	// 1) 加载配置；文件不存在时使用默认值
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *rulesPath != "" {
		cfg.RulesPath = *rulesPath
	}

	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(logx.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Locale: cfg.LogLocale, Color: cfg.LogColor})

	// 3) 字段规则（可选）
	var rl *rules.Rules
	if cfg.RulesPath != "" {
		r, err := rules.Load(cfg.RulesPath)
		switch {
		case err == nil:
			rl = r
			logx.Infof("已加载字段规则：%s", cfg.RulesPath)
		case errors.Is(err, os.ErrNotExist):
			logx.Debugf("未找到字段规则文件，使用内置字段表：%s", cfg.RulesPath)
		default:
			logx.Warnf("加载字段规则失败，使用内置字段表：%v", err)
		}
	}

	// 4) HTTP 客户端（feed 来源使用）与数据源
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Fetch.Timeout.Std(),
		Retry:      cfg.Fetch.Retry,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}
	src, err := source.Open(cfg, cl)
	if err != nil {
		logx.Warnf("初始化数据源失败，使用模拟数据：%v", err)
		src = nil
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	// 5) 缓存、指标与视图
	m := metrics.New()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	run := aggregate.New(aggregate.Options{
		Source:     src,
		Normalizer: normalize.New(normalize.WithRules(rl)),
		Gate:       cache.NewGate[[]model.Post](cfg.CacheTTL.Std(), cache.WithObserver(m)),
		Rand:       rnd,
		OnFallback: m.Fallback,
	})

	if *exportPath != "" {
		// 6) 导出模式：写出快照后退出
		if err := export.ToJSON(context.Background(), run, *exportPath); err != nil {
			logx.Errorf("导出失败：%v", err)
			os.Exit(1)
		}
		logx.Infof("已导出 %s", *exportPath)
		return
	}

	// 7) HTTP 服务
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(run), api.Options{Metrics: m, StaticDir: cfg.StaticDir})
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	banner(cfg, run.Status())
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logx.Errorf("HTTP 服务异常退出：%v", err)
		os.Exit(1)
	case <-ctx.Done():
	}
	logx.Infof("正在关闭服务……")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Warnf("关闭 HTTP 服务失败：%v", err)
	}
}

func banner(cfg *config.Config, st model.Status) {
	logx.Infof("MediaCrawler 数据大屏服务已启动：%s", cfg.Listen)
	for _, ep := range []string{
		"GET /api/data/all            - 获取所有数据",
		"GET /api/data/latest         - 获取最新数据",
		"GET /api/data/hot            - 获取热门数据",
		"GET /api/data/stats          - 获取统计数据",
		"GET /api/data/platform/:name - 按平台获取数据",
		"GET /api/status              - 检查数据源状态",
		"GET /metrics                 - Prometheus 指标",
	} {
		logx.Infof("  %s", ep)
	}
	logx.Infof("数据源类型：%s", st.DataSource)
	if st.DataPath != nil {
		logx.Infof("数据位置：%s", *st.DataPath)
	}
	logx.Infof("缓存有效期：%s", cfg.CacheTTL.Std())
}
