package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobTrashExpiry = "trash.expiry"

	// ConsumerTrashExpiry 处理 nv.trash.expiry.requested 的 watermill handler 名称.
	ConsumerTrashExpiry = "trash.expiry.requested"
)

// OffsetKey 批处理下一次开始的用户偏移量在 KV 中的键.
const OffsetKey = "cronjob_trash_expiry_offset"
