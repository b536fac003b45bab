// Package database 提供 MySQL 连接与 GORM 实例的初始化。
package database

import (
	"fmt"
	"people_api/internal/model"
	"people_api/pkg/log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"moul.io/zapgorm2"
)

// DB 全局 GORM 数据库实例，在 InitMySQL 成功后可用。
var DB *gorm.DB

// NewGormConfig 返回统一的 GORM 配置：SQL 日志走 zapgorm2，
// 驱动错误翻译为 gorm.ErrDuplicatedKey 等通用错误。
func NewGormConfig() *gorm.Config {
	gormLogger := zapgorm2.New(log.GetLogger())
	gormLogger.IgnoreRecordNotFoundError = true

	return &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}
}

// InitMySQL 根据 DSN 连接 MySQL 并初始化全局 DB。
func InitMySQL(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), NewGormConfig())
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}

	// 获取底层 *sql.DB 以配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Info("MySQL initialized successfully")
	return nil
}

// RunMigrate 创建内容库表结构。生产环境的表由内容编辑系统维护，只在本地/测试环境开启。
func RunMigrate() error {
	log.Info("Running migrations...")

	if err := DB.AutoMigrate(
		&model.Post{},
		&model.PostMeta{},
		&model.Term{},
		&model.TermRelationship{},
	); err != nil {
		log.Errorf("Failed to run migrations: %v", err)
		return err
	}

	log.Info("Migrations completed successfully")
	return nil
}
