//go:build !no_nats

package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/trashbin/pkg/configs"
)

const drainTimeout = 30 * time.Second

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

func natsOptions(cfg configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.Common.ClientID),
		nc.MaxReconnects(cfg.Common.MaxReconnects),
		nc.ReconnectWait(cfg.Common.ReconnectWaitDuration()),
		nc.DrainTimeout(drainTimeout),
		nc.RetryOnFailedConnect(true),
	}

	if cfg.Common.User != "" {
		opts = append(opts, nc.UserInfo(cfg.Common.User, cfg.Common.Password))
	}

	return opts
}

func jetStreamConfig(cfg configs.MQNATSConfig) nats.JetStreamConfig {
	if !cfg.JetStreamEnabled {
		return nats.JetStreamConfig{Disabled: true}
	}

	return nats.JetStreamConfig{
		AutoProvision: cfg.JetStreamAutoProvision,
		TrackMsgId:    cfg.JetStreamTrackMsgID,
		AckAsync:      cfg.JetStreamAckAsync,
		DurablePrefix: cfg.DurablePrefix,
	}
}

// natsFactory 创建 NATS Publisher & Subscriber，过期请求通过 queue group 在多个实例间分摊.
func natsFactory(_ context.Context, cfg configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	opts := natsOptions(cfg)
	js := jetStreamConfig(cfg.NATS)
	marshaler := &nats.JSONMarshaler{}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         cfg.Common.URL,
		NatsOptions: opts,
		JetStream:   js,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              cfg.Common.URL,
		QueueGroupPrefix: cfg.NATS.QueueGroupPrefix,
		SubscribersCount: cfg.NATS.SubscribersCount,
		AckWaitTimeout:   time.Duration(cfg.NATS.AckWaitTimeout) * time.Second,
		NatsOptions:      opts,
		JetStream:        js,
		Unmarshaler:      marshaler,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
