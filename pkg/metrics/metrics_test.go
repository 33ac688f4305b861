package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/metrics"
)

func TestObserveSweep(t *testing.T) {
	m := metrics.New(configs.MetricsConfig{Namespace: "test"})

	m.ObserveSweep("full", nil, time.Millisecond)
	m.ObserveSweep("full", errors.New("boom"), time.Millisecond)
	m.ObserveSweep("retention", nil, time.Millisecond)

	if got := testutil.ToFloat64(m.Sweeps.WithLabelValues("full", "ok")); got != 1 {
		t.Errorf("full/ok = %v", got)
	}

	if got := testutil.ToFloat64(m.Sweeps.WithLabelValues("full", "error")); got != 1 {
		t.Errorf("full/error = %v", got)
	}
}

func TestMount(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{Enabled: true, Namespace: "test", Path: "/metrics"}
	m := metrics.New(cfg)
	m.ItemsPurged.WithLabelValues("quota").Add(3)

	engine := gin.New()
	m.Mount(engine, cfg)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), `test_trash_items_purged_total{reason="quota"} 3`) {
		t.Errorf("metrics output missing purged counter:\n%s", rec.Body.String())
	}
}

func TestMountDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := metrics.New(configs.MetricsConfig{})
	engine := gin.New()
	m.Mount(engine, configs.MetricsConfig{Enabled: false})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMountExposesGormMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "gorm_dbstats_test_open_connections"})
	prometheus.MustRegister(gauge)
	t.Cleanup(func() { prometheus.Unregister(gauge) })
	gauge.Set(2)

	cfg := configs.MetricsConfig{Enabled: true, Namespace: "test", Path: "/metrics"}
	m := metrics.New(cfg)

	engine := gin.New()
	m.Mount(engine, cfg)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "gorm_dbstats_test_open_connections 2") {
		t.Errorf("metrics output missing gorm gauge:\n%s", rec.Body.String())
	}
}
