//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/trashbin/pkg/configs"
)

func init() {
	factory := func(dsn string) gorm.Dialector { return postgres.Open(dsn) }

	RegisterDialectorFactory(configs.PostgreSQL, factory)
	RegisterDialectorFactory(configs.Postgres, factory)
}
