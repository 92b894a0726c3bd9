// 包 api 提供 HTTP 接口（gin）：数据视图、状态自检与 /metrics。
// 响应统一为 {success, data} 或 {success:false, message}。
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crawl-dashboard/internal/aggregate"
	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/normalize"
)

// Service 为接口层依赖的视图能力，由 aggregate.Runner 实现。
type Service interface {
	All(ctx context.Context) (model.Overview, error)
	Latest(ctx context.Context, limit int) ([]model.Post, error)
	Hot(ctx context.Context, limit int) ([]model.Post, error)
	ByPlatform(ctx context.Context, p model.Platform, limit int) ([]model.Post, error)
	Stats(ctx context.Context) (model.Stats, error)
	Status() model.Status
}

type Handler struct {
	svc Service
	now func() time.Time
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) All(c *gin.Context) {
	ov, err := h.svc.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      ov,
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *Handler) Latest(c *gin.Context) {
	posts, err := h.svc.Latest(c.Request.Context(), limitParam(c, aggregate.DefaultLatest))
	respond(c, posts, err)
}

func (h *Handler) Hot(c *gin.Context) {
	posts, err := h.svc.Hot(c.Request.Context(), limitParam(c, aggregate.DefaultHot))
	respond(c, posts, err)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	respond(c, st, err)
}

func (h *Handler) Platform(c *gin.Context) {
	// 平台标识精确匹配，不做大小写归一
	p := model.Platform(c.Param("name"))
	posts, err := h.svc.ByPlatform(c.Request.Context(), p, limitParam(c, aggregate.DefaultByPlatform))
	respond(c, posts, err)
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.svc.Status()})
}

// NotFound 处理未注册的路径。
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "API endpoint not found"})
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
}

// limitParam 宽松解析 limit：缺省、无法解析或为 0 时取默认值，负数原样传递（得到空结果）。
func limitParam(c *gin.Context, def int) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return def
	}
	n := normalize.ToInt(raw)
	if n == 0 {
		return def
	}
	const maxLimit = 1 << 20
	if n > maxLimit {
		return maxLimit
	}
	return int(n)
}
