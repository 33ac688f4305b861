package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/storage/mq"
	"github.com/yeisme/trashbin/pkg/queue"
)

const (
	consumerMaxRetries      = 3
	consumerInitialInterval = 200 * time.Millisecond
)

// ErrInvalidUser 用户名为空.
var ErrInvalidUser = errors.New("invalid user")

// ExpiryQueue 通过消息队列异步触发单个用户的清理.
type ExpiryQueue struct {
	client *mq.Client
	job    *ExpireTrashJob
	logger *zerolog.Logger
}

// NewExpiryQueue 创建 ExpiryQueue.
func NewExpiryQueue(client *mq.Client, job *ExpireTrashJob, logger *zerolog.Logger) *ExpiryQueue {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ExpiryQueue{client: client, job: job, logger: logger}
}

// ScheduleExpiry 清理启用时为用户发布一个过期请求，返回是否已发布.
func (q *ExpiryQueue) ScheduleExpiry(ctx context.Context, user string) (bool, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return false, ErrInvalidUser
	}

	if !q.job.Manager().ExpiryEnabled() {
		return false, nil
	}

	msg, err := queue.NewWatermillMessage(queue.TopicTrashExpiryRequested, queue.ExpiryRequestedPayload{
		User:        user,
		RequestedAt: time.Now().UTC(),
	}, queue.WithProducer(queue.ProducerTrashbin))
	if err != nil {
		return false, err
	}

	if err := q.client.Publish(ctx, queue.TopicTrashExpiryRequested, msg); err != nil {
		return false, err
	}

	return true, nil
}

// NewRouter 创建消费过期请求的 watermill Router，调用方负责 Run 与 Close.
func (q *ExpiryQueue) NewRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, q.client.Logger())
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		q.dropAfterRetries,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      consumerMaxRetries,
			InitialInterval: consumerInitialInterval,
			Logger:          q.client.Logger(),
		}.Middleware,
	)

	router.AddConsumerHandler(ConsumerTrashExpiry, queue.TopicTrashExpiryRequested, q.client.Subscriber(), q.Handle)

	return router, nil
}

// Handle 处理一条过期请求：对用户执行保留期 + 配额清理.
func (q *ExpiryQueue) Handle(msg *message.Message) error {
	env, err := queue.ParseExpiryRequested(msg)
	if err != nil {
		q.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("drop malformed expiry request")
		return nil
	}

	user := strings.TrimSpace(env.Payload.User)
	if user == "" {
		q.logger.Warn().Str("message_uuid", msg.UUID).Msg("drop expiry request without user")
		return nil
	}

	_, err = q.job.ExpireUser(msg.Context(), user, configs.ExpiryModeFull)

	switch {
	case errors.Is(err, ErrExpiryDisabled):
		return nil
	case errors.Is(err, expiry.ErrQuotaLookup):
		// 保留期阶段已完成，重试只会重复查询配额
		q.logger.Warn().Err(err).Str("user", user).Msg("quota lookup failed during requested expiry")
		return nil
	}

	return err
}

// dropAfterRetries 重试耗尽后记录并确认消息，避免无限重投.
func (q *ExpiryQueue) dropAfterRetries(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err != nil {
			q.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("expiry request failed after retries, dropping")
		}

		return msgs, nil
	}
}
