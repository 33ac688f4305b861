//go:build !no_redis

package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/trashbin/pkg/configs"
)

const defaultChannelBufferSize = 100

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisEnvelope Redis Pub/Sub 上传输的消息，保留 UUID 与 metadata.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// redisPublisher 使用 Redis Pub/Sub 发布消息（至多一次投递）.
type redisPublisher struct {
	client *redis.Client
}

// redisSubscriber 每次 Subscribe 建立独立的 PubSub 连接.
type redisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func redisFactory(ctx context.Context, cfg configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	newClient := func() *redis.Client {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	pubClient := newClient()
	if err := pubClient.Ping(ctx).Err(); err != nil {
		_ = pubClient.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisPublisher{client: pubClient},
		&redisSubscriber{client: newClient(), logger: logger, closeCh: make(chan struct{})},
		nil
}

func (p *redisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		b, err := sonic.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(msg.Context(), topic, b).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

func (s *redisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, defaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				if !s.deliver(ctx, topic, raw.Payload, out) {
					return
				}
			}
		}
	}()

	return out, nil
}

// deliver 投递一条消息并等待 Ack/Nack，Nack 时重新投递.
func (s *redisSubscriber) deliver(ctx context.Context, topic, raw string, out chan<- *message.Message) bool {
	var env redisEnvelope
	if err := sonic.UnmarshalString(raw, &env); err != nil {
		s.logger.Error("drop malformed redis message", err, watermill.LogFields{"topic": topic})
		return true
	}

	for {
		msg := message.NewMessage(env.UUID, env.Payload)
		for k, v := range env.Metadata {
			msg.Metadata.Set(k, v)
		}

		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-s.closeCh:
			return false
		case <-ctx.Done():
			return false
		}

		select {
		case <-msg.Acked():
			return true
		case <-msg.Nacked():
			continue
		case <-s.closeCh:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (s *redisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closeCh)

	errs := make([]error, 0, len(s.subs)+1)
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}

	s.mu.Unlock()
	s.wg.Wait()

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}
