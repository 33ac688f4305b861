package expiry

import "errors"

var (
	// ErrListTrash 列出回收站失败，对该用户的清理是致命的.
	ErrListTrash = errors.New("list trash items")
	// ErrQuotaLookup 查询配额失败，只跳过配额阶段.
	ErrQuotaLookup = errors.New("quota lookup")
	// ErrUnsortedListing 存储返回的列表不是按 mtime 升序.
	ErrUnsortedListing = errors.New("trash listing not sorted by mtime ascending")
	// ErrItemNotFound 要删除的条目已不存在.
	ErrItemNotFound = errors.New("trash item not found")
)
