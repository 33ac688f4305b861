package queue

// 主题命名规范：nv.<域>.<对象>.<动作>，尽量稳定且向后兼容.

const (
	TopicTrashItemPurged      = "nv.trash.item.purged"      // 回收站条目被过期清理删除
	TopicTrashSweepCompleted  = "nv.trash.sweep.completed"  // 一个用户的清理完成
	TopicTrashExpiryRequested = "nv.trash.expiry.requested" // 请求对指定用户执行过期清理
)

// TrashTopics 回收站相关主题集合.
var TrashTopics = []string{
	TopicTrashItemPurged,
	TopicTrashSweepCompleted,
	TopicTrashExpiryRequested,
}
