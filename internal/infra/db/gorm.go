package db

import (
	"fmt"

	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// dsn は DATABASE_URL か POSTGRES_* から組み立てたもの。
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	return gdb, nil
}

// Migrate はストアのレコード用テーブルを作る。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&model.Record{}); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
