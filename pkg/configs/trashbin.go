package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/yeisme/trashbin/pkg/rule"
)

// TrashBackend 回收站存储后端.
type TrashBackend string

const (
	TrashBackendDB TrashBackend = "db" // 元数据在数据库，文件内容在对象存储
	TrashBackendFS TrashBackend = "fs" // <root>/<user>/files_trashbin/files/<name>.d<mtime>
)

// ExpiryMode 批处理任务对每个用户执行的清理方式.
type ExpiryMode string

const (
	ExpiryModeRetention ExpiryMode = "retention" // 只按保留期清理
	ExpiryModeFull      ExpiryMode = "full"      // 保留期 + 配额
)

const (
	DefaultRetentionObligation = "auto"         // 默认保留策略
	DefaultPurgeLimit          = 50             // 回收站最多占用可用配额的百分比
	DefaultTrashBackend        = TrashBackendDB // 默认后端
	DefaultTrashFSRoot         = "data"         // fs 后端根目录
	DefaultTrashQuota          = "none"         // fs 后端用户默认配额
	DefaultExpirySchedule      = "*/30 * * * *" // 每 30 分钟一次
	DefaultUsersPerSession     = 500            // 每次批处理的用户数
	DefaultExpiryWorkers       = 4              // 并发清理的用户数
	DefaultExpiryMode          = ExpiryModeRetention
	DefaultDeleteBurst         = 10
)

// TrashbinConfig 回收站过期清理配置.
type TrashbinConfig struct {
	// RetentionObligation 保留策略: auto | D, auto | auto, D | D1, D2 | disabled
	RetentionObligation string        `mapstructure:"retention_obligation"`
	PurgeLimit          int           `mapstructure:"purge_limit"          rule:"min=0,max=100"`
	Backend             TrashBackend  `mapstructure:"backend"              rule:"oneof=db fs"`
	FSRoot              string        `mapstructure:"fs_root"              rule:"required_if=Backend fs"`
	DefaultQuota        string        `mapstructure:"default_quota"`
	Schedule            string        `mapstructure:"schedule"             rule:"required,cron"`
	UsersPerSession     int           `mapstructure:"users_per_session"    rule:"min=1"`
	Workers             int           `mapstructure:"workers"              rule:"min=1,max=64"`
	Mode                ExpiryMode    `mapstructure:"mode"                 rule:"oneof=retention full"`
	DeleteRPS           float64       `mapstructure:"delete_rps"           rule:"min=0"` // 0 表示不限速
	DeleteBurst         int           `mapstructure:"delete_burst"         rule:"min=1"`
	QuotaCacheTTL       time.Duration `mapstructure:"quota_cache_ttl"      rule:"min=0"` // 0 表示不缓存
}

// Validate 校验配置.
func (c *TrashbinConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("trashbin: %w", err)
	}

	return nil
}

func (c *TrashbinConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("trashbin.retention_obligation", DefaultRetentionObligation)
	v.SetDefault("trashbin.purge_limit", DefaultPurgeLimit)
	v.SetDefault("trashbin.backend", DefaultTrashBackend)
	v.SetDefault("trashbin.fs_root", DefaultTrashFSRoot)
	v.SetDefault("trashbin.default_quota", DefaultTrashQuota)
	v.SetDefault("trashbin.schedule", DefaultExpirySchedule)
	v.SetDefault("trashbin.users_per_session", DefaultUsersPerSession)
	v.SetDefault("trashbin.workers", DefaultExpiryWorkers)
	v.SetDefault("trashbin.mode", DefaultExpiryMode)
	v.SetDefault("trashbin.delete_rps", 0)
	v.SetDefault("trashbin.delete_burst", DefaultDeleteBurst)
	v.SetDefault("trashbin.quota_cache_ttl", "0s")
}
