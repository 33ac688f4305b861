package configs

import "github.com/spf13/viper"

// EventsConfig 控制回收站事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Trash   TrashEventsConfig `mapstructure:"trash"`
}

// TrashEventsConfig 回收站领域的事件开关.
type TrashEventsConfig struct {
	ItemPurged     bool `mapstructure:"item_purged"`     // 每删除一个条目发布一次，量可能很大
	SweepCompleted bool `mapstructure:"sweep_completed"` // 每个用户清理结束
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.trash.item_purged", false)
	v.SetDefault("events.trash.sweep_completed", true)
}
