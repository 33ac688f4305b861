// Package metrics 提供 Prometheus 指标：HTTP 请求以及回收站清理相关的计数与耗时.
//
// Example:
//
//	m := metrics.New(cfg.Metrics)
//	m.Mount(engine, cfg.Metrics)
//
//	m.ItemsPurged.WithLabelValues("retention").Inc()
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/yeisme/trashbin/pkg/configs"
)

// Metrics 持有独立的注册表与所有指标.
type Metrics struct {
	registry *prometheus.Registry

	// RequestCounter HTTP 请求计数.
	RequestCounter *prometheus.CounterVec
	// RequestDuration HTTP 请求耗时.
	RequestDuration *prometheus.HistogramVec

	// ItemsPurged 删除的条目数，按原因（retention/quota）.
	ItemsPurged *prometheus.CounterVec
	// BytesFreed 释放的字节数，按原因.
	BytesFreed *prometheus.CounterVec
	// Sweeps 单个用户清理次数，按模式与结果.
	Sweeps *prometheus.CounterVec
	// SweepDuration 单个用户清理耗时.
	SweepDuration *prometheus.HistogramVec
	// DeleteFailures 删除失败的条目数.
	DeleteFailures prometheus.Counter
	// BatchUsers 批处理访问的用户数，按结果（swept/skipped/failed）.
	BatchUsers *prometheus.CounterVec
	// ActiveSweeps 正在进行的清理数.
	ActiveSweeps prometheus.Gauge
}

// New 创建并注册所有指标. cfg.Enabled 为 false 时仍返回可用实例，只是不对外暴露.
func New(cfg configs.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		ItemsPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "items_purged_total",
			Help:      "Trash items removed by expiry",
		}, []string{"reason"}),
		BytesFreed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "bytes_freed_total",
			Help:      "Bytes released by expiry",
		}, []string{"reason"}),
		Sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "sweeps_total",
			Help:      "Per-user expiry sweeps",
		}, []string{"mode", "result"}),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "sweep_duration_seconds",
			Help:      "Per-user expiry sweep duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"mode"}),
		DeleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "delete_failures_total",
			Help:      "Trash items that could not be removed",
		}),
		BatchUsers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "batch_users_total",
			Help:      "Users visited by the batch expiry job",
		}, []string{"result"}),
		ActiveSweeps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "trash",
			Name:      "active_sweeps",
			Help:      "Sweeps currently running",
		}),
	}

	if cfg.RuntimeMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	reg.MustRegister(
		m.RequestCounter, m.RequestDuration,
		m.ItemsPurged, m.BytesFreed, m.Sweeps, m.SweepDuration,
		m.DeleteFailures, m.BatchUsers, m.ActiveSweeps,
	)

	return m
}

// Registry 获取 Prometheus 注册表，供 gorm、watermill 等注册自己的指标.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// gormPrefix gorm prometheus 插件注册在默认注册表上的指标前缀.
const gormPrefix = "gorm_"

// prefixGatherer 只保留名称带指定前缀的指标族.
type prefixGatherer struct {
	next   prometheus.Gatherer
	prefix string
}

func (g prefixGatherer) Gather() ([]*dto.MetricFamily, error) {
	mfs, err := g.next.Gather()

	kept := mfs[:0]
	for _, mf := range mfs {
		if strings.HasPrefix(mf.GetName(), g.prefix) {
			kept = append(kept, mf)
		}
	}

	return kept, err
}

// Handler 返回 /metrics 处理器，同时导出默认注册表中的 gorm 连接池指标.
func (m *Metrics) Handler() http.Handler {
	gatherers := prometheus.Gatherers{
		m.registry,
		prefixGatherer{next: prometheus.DefaultGatherer, prefix: gormPrefix},
	}

	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{Registry: m.registry})
}

// Mount 在 engine 上挂载指标端点.
func (m *Metrics) Mount(engine gin.IRoutes, cfg configs.MetricsConfig) {
	if !cfg.Enabled {
		return
	}

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(m.Handler()))
}

// ObserveSweep 记录一次单用户清理.
func (m *Metrics) ObserveSweep(mode string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.Sweeps.WithLabelValues(mode, result).Inc()
	m.SweepDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}
