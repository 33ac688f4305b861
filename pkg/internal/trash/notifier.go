package trash

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/metrics"
	"github.com/yeisme/trashbin/pkg/queue"
)

// EventNotifier 把删除结果写入指标，并按配置发布到消息队列. 发布失败只记录日志.
type EventNotifier struct {
	pub     message.Publisher
	events  configs.EventsConfig
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

// NewEventNotifier pub 或 m 为 nil 时对应功能关闭.
func NewEventNotifier(pub message.Publisher, events configs.EventsConfig, m *metrics.Metrics, logger *zerolog.Logger) *EventNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &EventNotifier{pub: pub, events: events, metrics: m, logger: logger}
}

var _ expiry.Notifier = (*EventNotifier)(nil)

func (n *EventNotifier) headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer(queue.ProducerTrashbin)}
	if id := RunID(ctx); id != "" {
		opts = append(opts, queue.WithTraceID(id))
	}

	return opts
}

// ItemPurged 实现 expiry.Notifier.
func (n *EventNotifier) ItemPurged(ctx context.Context, user string, item expiry.TrashItem, freed int64, reason expiry.Reason) {
	if n.metrics != nil {
		n.metrics.ItemsPurged.WithLabelValues(string(reason)).Inc()
		n.metrics.BytesFreed.WithLabelValues(string(reason)).Add(float64(freed))
	}

	if n.pub == nil || !n.events.Enabled || !n.events.Trash.ItemPurged {
		return
	}

	err := queue.PublishItemPurged(n.pub, queue.ItemPurgedPayload{
		User:   user,
		Name:   item.Name,
		MTime:  item.MTime,
		Size:   freed,
		Reason: string(reason),
	}, n.headerOpts(ctx)...)
	if err != nil {
		n.logger.Warn().Err(err).Str("user", user).Str("name", item.Name).Msg("publish item purged event failed")
	}
}

// SweepCompleted 记录一个用户清理结束.
func (n *EventNotifier) SweepCompleted(ctx context.Context, payload queue.SweepCompletedPayload) {
	if n.metrics != nil && payload.Failed > 0 {
		n.metrics.DeleteFailures.Add(float64(payload.Failed))
	}

	if n.pub == nil || !n.events.Enabled || !n.events.Trash.SweepCompleted {
		return
	}

	if err := queue.PublishSweepCompleted(n.pub, payload, n.headerOpts(ctx)...); err != nil {
		n.logger.Warn().Err(err).Str("user", payload.User).Msg("publish sweep completed event failed")
	}
}
