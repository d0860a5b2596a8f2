package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate 按驱动执行数据库迁移
// postgres 使用版本化 SQL 迁移；sqlite 使用 AutoMigrate 并补齐内置通知类型
func Migrate(db *gorm.DB, driver string, logger *zap.Logger) error {
	if driver == "sqlite" {
		return autoMigrate(db, logger)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	drv, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", drv)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}

func autoMigrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate 失败: %w", err)
	}

	for _, t := range model.BuiltinNotificationTypes() {
		var count int64
		if err := db.Model(&model.NotificationType{}).Where("code = ?", t.Code).Count(&count).Error; err != nil {
			return fmt.Errorf("检查内置通知类型失败: %w", err)
		}
		if count > 0 {
			continue
		}
		t := t
		if err := db.Create(&t).Error; err != nil {
			return fmt.Errorf("写入内置通知类型 %s 失败: %w", t.Code, err)
		}
	}

	logger.Info("SQLite 结构同步完成")
	return nil
}
