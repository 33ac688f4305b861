//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/trashbin/pkg/configs"
)

// CGo 版本.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector { return sqlite.Open(dsn) })
}
