package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标配置.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Namespace      string `mapstructure:"namespace"`       // 指标名前缀
	Path           string `mapstructure:"path"`            // 暴露路径
	RuntimeMetrics bool   `mapstructure:"runtime_metrics"` // 是否收集 go/process 指标
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "trashbin")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.runtime_metrics", true)
}
