package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crawl-dashboard/internal/logx"
)

// RequestObserver 接收每个请求的路由模板、状态码与耗时（metrics.Metrics 实现）。
type RequestObserver interface {
	ObserveRequest(route string, code int, d time.Duration)
}

// CORS 允许任意来源；预检请求直接返回 204。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Logger 每个请求输出一行日志；带错误的请求以 error 级别输出。
func Logger(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if obs != nil {
			obs.ObserveRequest(route, status, d)
		}
		lg := logx.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", d.Round(time.Microsecond).String(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			lg.Error("HTTP 请求失败", "errors", c.Errors.String())
			return
		}
		lg.Debug("HTTP 请求")
	}
}

// Recovery 捕获 panic 并返回 500 JSON，进程继续服务后续请求。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logx.Errorf("请求处理 panic：%s %s 错误=%v", c.Request.Method, c.Request.URL.Path, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
