package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，批处理中为 run_id.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// ItemPurgedPayload 一个条目被删除.
type ItemPurgedPayload struct {
	User   string `json:"user"`
	Name   string `json:"name"`
	MTime  int64  `json:"mtime"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"` // retention | quota
}

// SweepCompletedPayload 一个用户的清理结果.
type SweepCompletedPayload struct {
	User             string `json:"user"`
	Mode             string `json:"mode"` // retention | full
	BytesFreed       int64  `json:"bytes_freed"`
	ItemsRemoved     int    `json:"items_removed"`
	RetentionRemoved int    `json:"retention_removed"`
	QuotaRemoved     int    `json:"quota_removed"`
	Failed           int    `json:"failed"`
	DurationMillis   int64  `json:"duration_ms"`
	Error            string `json:"error,omitempty"`
}

// ExpiryRequestedPayload 请求对用户执行保留期 + 配额清理.
type ExpiryRequestedPayload struct {
	User        string    `json:"user"`
	RequestedAt time.Time `json:"requested_at"`
}
