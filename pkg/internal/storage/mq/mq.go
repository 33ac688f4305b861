// Package mq 基于 Watermill 封装消息队列，承载回收站事件与按用户的过期请求.
//
// 支持的类型：
//   - memory（gochannel，单进程）
//   - nats（可选 JetStream）
//   - redis（Pub/Sub）
//
// 使用示例：
//
//	client, err := mq.New(ctx, cfg.MQ, mq.Options{Logger: logger})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), payload)
//	err = client.Publish(ctx, "nv.trash.sweep.completed", msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/configs"
)

// Factory 创建 Publisher 与 Subscriber.
type Factory func(ctx context.Context, cfg configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的类型（已排序）.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// Options 创建 Client 的可选项.
type Options struct {
	Logger *zerolog.Logger
	// Registerer 不为 nil 且 cfg.Common.EnableMetrics 时，为 publisher/subscriber 添加 prometheus 指标.
	Registerer prometheus.Registerer
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	typ        configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

// New 根据配置创建 Client.
func New(ctx context.Context, cfg configs.MQConfig, opts Options) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(opts.Logger)

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if cfg.Common.EnableMetrics && opts.Registerer != nil {
		builder := metrics.NewPrometheusMetricsBuilder(opts.Registerer, "trashbin", "mq")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	return &Client{typ: cfg.Type, publisher: pub, subscriber: sub, logger: logger}, nil
}

// NewWith 用现成的 Publisher/Subscriber 构造 Client，测试中使用.
func NewWith(typ configs.MQType, pub message.Publisher, sub message.Subscriber, logger *zerolog.Logger) *Client {
	return &Client{typ: typ, publisher: pub, subscriber: sub, logger: NewLoggerAdapter(logger)}
}

// Type 消息队列类型.
func (c *Client) Type() configs.MQType {
	return c.typ
}

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher {
	return c.publisher
}

// Subscriber 返回底层 Subscriber，供 message.Router 使用.
func (c *Client) Subscriber() message.Subscriber {
	return c.subscriber
}

// Logger 返回 watermill 日志适配器.
func (c *Client) Logger() watermill.LoggerAdapter {
	return c.logger
}

// Publish 发布消息，ctx 写入每条消息.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭 publisher 与 subscriber.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
