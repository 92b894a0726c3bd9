package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"crawl-dashboard/internal/logx"
)

// Options 为路由可选项。
type Options struct {
	// Metrics 非空时挂载 /metrics 并记录请求指标
	Metrics interface {
		RequestObserver
		Handler() http.Handler
	}
	// StaticDir 非空且包含 dashboard.html 时挂载大屏页面
	StaticDir string
}

// NewRouter 构造 gin 引擎并注册全部路由。
func NewRouter(h *Handler, o Options) *gin.Engine {
	r := gin.New()
	var obs RequestObserver
	if o.Metrics != nil {
		obs = o.Metrics
	}
	r.Use(Recovery(), Logger(obs), CORS())

	SetupRoutes(r.Group("/api"), h)
	if o.Metrics != nil {
		r.GET("/metrics", gin.WrapH(o.Metrics.Handler()))
	}
	if o.StaticDir != "" {
		page := filepath.Join(o.StaticDir, "dashboard.html")
		if _, err := os.Stat(page); err == nil {
			r.StaticFile("/", page)
			r.StaticFile("/dashboard.html", page)
		} else {
			logx.Warnf("未找到大屏页面，跳过挂载：%s", page)
		}
	}
	r.NoRoute(NotFound)
	return r
}

// SetupRoutes 在 /api 分组下注册数据接口。
func SetupRoutes(g *gin.RouterGroup, h *Handler) {
	data := g.Group("/data")
	data.GET("/all", h.All)
	data.GET("/latest", h.Latest)
	data.GET("/hot", h.Hot)
	data.GET("/stats", h.Stats)
	data.GET("/platform/:name", h.Platform)
	g.GET("/status", h.Status)
}
