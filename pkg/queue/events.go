package queue

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

// PublishItemPurged 发布 nv.trash.item.purged 事件.
func PublishItemPurged(pub message.Publisher, payload ItemPurgedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicTrashItemPurged, payload, opts...)
}

// ParseItemPurged 解析 nv.trash.item.purged 消息.
func ParseItemPurged(msg *message.Message) (Message[ItemPurgedPayload], error) {
	return parseTopic[ItemPurgedPayload](msg, TopicTrashItemPurged)
}

// PublishSweepCompleted 发布 nv.trash.sweep.completed 事件.
func PublishSweepCompleted(pub message.Publisher, payload SweepCompletedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicTrashSweepCompleted, payload, opts...)
}

// ParseSweepCompleted 解析 nv.trash.sweep.completed 消息.
func ParseSweepCompleted(msg *message.Message) (Message[SweepCompletedPayload], error) {
	return parseTopic[SweepCompletedPayload](msg, TopicTrashSweepCompleted)
}

// PublishExpiryRequested 发布 nv.trash.expiry.requested 事件.
func PublishExpiryRequested(pub message.Publisher, payload ExpiryRequestedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicTrashExpiryRequested, payload, opts...)
}

// ParseExpiryRequested 解析 nv.trash.expiry.requested 消息.
func ParseExpiryRequested(msg *message.Message) (Message[ExpiryRequestedPayload], error) {
	return parseTopic[ExpiryRequestedPayload](msg, TopicTrashExpiryRequested)
}

func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}
