package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort         = 8080      // 监听端口
	DefaultHost         = "0.0.0.0" // 监听地址
	DefaultReloadConfig = true      // 是否启用配置热重载
	DefaultDebug        = false     // 是否启用调试模式
	DefaultTimeout      = 30        // 超时时间，单位秒
	DefaultTriggerRPS   = 1         // 每个客户端手动触发清理的速率
	DefaultTriggerBurst = 5
)

type (
	// ServerConfig 运维 HTTP 服务器配置（健康检查、调度器、/metrics）.
	ServerConfig struct {
		Enabled      bool   `mapstructure:"enabled"`
		Port         int    `mapstructure:"port"          rule:"min=1,max=65535"`
		Host         string `mapstructure:"host"          rule:"ip"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		Timeout      int    `mapstructure:"timeout"       rule:"min=1,max=300"`
		// 手动触发清理接口按客户端 IP 限流，TriggerRPS 为 0 表示不限流
		TriggerRPS   float64 `mapstructure:"trigger_rps"   rule:"min=0"`
		TriggerBurst int     `mapstructure:"trigger_burst" rule:"min=1"`
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Addr 返回监听地址.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.trigger_rps", DefaultTriggerRPS)
	v.SetDefault("server.trigger_burst", DefaultTriggerBurst)
}
