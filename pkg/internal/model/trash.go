// Package model 定义回收站元数据的数据库模型.
package model

import (
	"time"
)

// TrashItem 回收站中的一个条目，内容存放在对象存储的 Bucket/ObjectKey.
// (Owner, Name, MTime) 唯一.
type TrashItem struct {
	ID    uint   `gorm:"primaryKey"                                                              json:"id"`
	Owner string `gorm:"size:255;not null;uniqueIndex:idx_trash_identity,priority:1;index:idx_trash_owner_mtime,priority:1" json:"owner"`
	Name  string `gorm:"size:512;not null;uniqueIndex:idx_trash_identity,priority:2"             json:"name"`
	// 放入回收站的时间，unix 秒
	MTime     int64     `gorm:"column:mtime;not null;uniqueIndex:idx_trash_identity,priority:3;index:idx_trash_owner_mtime,priority:2" json:"mtime"`
	Size      int64     `gorm:"not null;default:0"                                                   json:"size"`
	Bucket    string    `gorm:"size:255"                                                             json:"bucket"`
	ObjectKey string    `gorm:"size:1024"                                                            json:"object_key"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名.
func (TrashItem) TableName() string {
	return "trash_items"
}

// UserQuota 用户配额.
// Quota 为可读的容量字符串（例如 "10 GB"），"none" 或空表示不限，"default" 表示使用全局默认值.
type UserQuota struct {
	Owner     string    `gorm:"primaryKey;size:255" json:"owner"`
	Quota     string    `gorm:"size:64"             json:"quota"`
	Used      int64     `gorm:"not null;default:0"  json:"used"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 表名.
func (UserQuota) TableName() string {
	return "user_quotas"
}

// All 需要迁移的模型.
func All() []any {
	return []any{&TrashItem{}, &UserQuota{}}
}
