// Package queue 定义回收站事件的主题、负载与统一信封.
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "nv.trash.item.purged",
//	    "trace_id": "01J9Z5S8K3X2M4N6P7Q8R9T0VW",
//	    "producer": "trashbin",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布示例
//
//	err := queue.PublishItemPurged(client.Publisher(), queue.ItemPurgedPayload{
//	  User: "alice", Name: "report.pdf", MTime: 1700000000, Size: 42, Reason: "retention",
//	}, queue.WithProducer(queue.ProducerTrashbin))
//
// 消费示例
//
//	router.AddConsumerHandler("expiry", queue.TopicTrashExpiryRequested, sub,
//	  func(m *message.Message) error {
//	    env, err := queue.ParseExpiryRequested(m)
//	    ...
//	  })
//
// 注意事项
//  1. occurred_at 为 UTC
//  2. 消费者应忽略未知字段
//  3. Header.topic 与中间件的 Subject/Topic 重复，意在离线可追踪
package queue

import (
	"errors"
	"fmt"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
	ProducerTrashbin string = "trashbin"
)

var (
	// ErrUnexpectedTopic 信封头中的主题与期望的主题不一致.
	ErrUnexpectedTopic = errors.New("unexpected event topic")
	// ErrUnsupportedVersion 负载版本无法识别.
	ErrUnsupportedVersion = errors.New("unsupported payload version")
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载，不校验主题.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}

// parseTopic 解出负载并确认信封属于 topic 且版本可识别. 缺省的 topic/version 视为匹配.
func parseTopic[T any](msg *message.Message, topic string) (Message[T], error) {
	env, err := Decode[T](msg.Payload)
	if err != nil {
		return env, fmt.Errorf("decode %s: %w", topic, err)
	}

	if env.Header.Topic != "" && env.Header.Topic != topic {
		return env, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedTopic, env.Header.Topic, topic)
	}

	if v := env.Header.Version; v != "" && v != PayloadVersionV1 {
		return env, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}

	return env, nil
}
