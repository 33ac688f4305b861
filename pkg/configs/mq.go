package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeMemory MQType = "memory"
	MQTypeNATS   MQType = "nats"
	MQTypeRedis  MQType = "redis"

	DefaultMaxReconnects = 5  // 默认最大重连次数
	DefaultReconnectWait = 5  // 默认重连等待时间（秒）
	DefaultMQBufferSize  = 64 // memory 模式下每个订阅者的缓冲
)

// MQConfig 消息队列配置，承载回收站事件与按用户的过期请求.
type MQConfig struct {
	Type   MQType         `mapstructure:"type"   rule:"oneof=memory nats redis"`
	Common MQCommonConfig `mapstructure:"common"`
	NATS   MQNATSConfig   `mapstructure:"nats"`
	Redis  MQRedisConfig  `mapstructure:"redis"`
}

// MQCommonConfig 通用MQ配置.
type MQCommonConfig struct {
	URL           string `mapstructure:"url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	BufferSize    int64  `mapstructure:"buffer_size"    rule:"min=0"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// ReconnectWaitDuration 返回重连等待时间.
func (c *MQCommonConfig) ReconnectWaitDuration() time.Duration {
	return time.Duration(c.ReconnectWait) * time.Second
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	DurablePrefix          string `mapstructure:"durable_prefix"`
	QueueGroupPrefix       string `mapstructure:"queue_group_prefix"`
	SubscribersCount       int    `mapstructure:"subscribers_count" rule:"min=1"`
	AckWaitTimeout         int    `mapstructure:"ack_wait_timeout"  rule:"min=1"` // 秒
}

// MQRedisConfig Redis Stream MQ 配置.
type MQRedisConfig struct {
	Addr          string `mapstructure:"addr"           rule:"hostname_port"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"             rule:"min=0,max=15"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeMemory)

	v.SetDefault("mq.common.url", "nats://localhost:4222")
	v.SetDefault("mq.common.user", "")
	v.SetDefault("mq.common.password", "")
	v.SetDefault("mq.common.client_id", "trashbin")
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.common.buffer_size", DefaultMQBufferSize)
	v.SetDefault("mq.common.enable_metrics", true)

	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", false)
	v.SetDefault("mq.nats.durable_prefix", "trashbin")
	v.SetDefault("mq.nats.queue_group_prefix", "trashbin")
	v.SetDefault("mq.nats.subscribers_count", 1)
	v.SetDefault("mq.nats.ack_wait_timeout", 30)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.password", "")
	v.SetDefault("mq.redis.db", 0)
	v.SetDefault("mq.redis.consumer_group", "trashbin")
}
