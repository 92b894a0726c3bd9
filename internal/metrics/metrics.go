// 包 metrics 定义 Prometheus 指标：缓存命中/未命中/计算耗时、数据源回退、HTTP 请求。
// 使用独立 Registry，便于测试中多次构造。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crawl-dashboard/internal/source"
)

const namespace = "crawl_dashboard"

type Metrics struct {
	reg *prometheus.Registry

	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	ComputeDuration *prometheus.HistogramVec
	SourceFallbacks *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total",
			Help: "Requests served from the cached collection.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_misses_total",
			Help: "Requests that triggered a collection reload.",
		}),
		ComputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "collection_load_seconds",
			Help:    "Time spent loading and normalizing the collection.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		SourceFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_fallbacks_total",
			Help: "Loads that fell back to synthetic data, by configured source kind.",
		}, []string{"kind"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Hit/Miss/Computed 实现 cache.Observer。
func (m *Metrics) Hit()  { m.CacheHits.Inc() }
func (m *Metrics) Miss() { m.CacheMisses.Inc() }

func (m *Metrics) Computed(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ComputeDuration.WithLabelValues(result).Observe(d.Seconds())
}

// Fallback 记录一次数据源回退。
func (m *Metrics) Fallback(kind source.Kind, _ error) {
	m.SourceFallbacks.WithLabelValues(string(kind)).Inc()
}

// ObserveRequest 记录一次 HTTP 请求；route 使用路由模板而非原始路径，避免标签基数膨胀。
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler 返回 /metrics 的 exposition 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
