//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/trashbin/pkg/configs"
)

func init() {
	factory := func(dsn string) gorm.Dialector { return mysql.Open(dsn) }

	RegisterDialectorFactory(configs.MySQL, factory)
	RegisterDialectorFactory(configs.MariaDB, factory)
}
