package mysql

import (
	"Colabi/internal/config"
	"Colabi/internal/models"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	dbInstance *gorm.DB
	once       sync.Once
	initErr    error
)

// 连接池未配置时的缺省值。
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 300 * time.Second
)

// GetDB 以单例模式建立 GORM 连接, 并迁移任务域的表结构。
// 首次调用完成连接与迁移, 后续调用直接复用同一实例。
func GetDB(cfg *config.MySQLConfig) (*gorm.DB, error) {
	once.Do(func() {
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Username, cfg.Password, cfg.Address, cfg.Database)

		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 MySQL: %w", err)
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			initErr = fmt.Errorf("无法获取底层 SQL DB 实例: %w", err)
			return
		}

		// 连接池参数, 零值回落到缺省配置。
		maxOpen, maxIdle, lifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, time.Duration(cfg.ConnMaxLifetime)*time.Second
		if maxOpen <= 0 {
			maxOpen = defaultMaxOpenConns
		}
		if maxIdle <= 0 {
			maxIdle = defaultMaxIdleConns
		}
		if lifetime <= 0 {
			lifetime = defaultConnMaxLifetime
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxIdle)
		sqlDB.SetConnMaxLifetime(lifetime)

		// 同步任务域表结构。
		if err := db.AutoMigrate(
			&models.Agent{},
			&models.Task{},
			&models.CompletedTask{},
			&models.CompletedTaskFile{},
		); err != nil {
			initErr = fmt.Errorf("MySQL 表结构迁移失败: %w", err)
			return
		}

		log.Println("✅ 成功连接到 MySQL!")
		dbInstance = db
	})

	return dbInstance, initErr
}

// Close 安全地关闭单例的数据库连接。
func Close() error {
	if dbInstance == nil {
		return nil
	}
	sqlDB, err := dbInstance.DB()
	if err != nil {
		return fmt.Errorf("❌ 获取底层 SQL DB 实例失败: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck 检查数据库连接的健康状况。
func HealthCheck(ctx context.Context) error {
	if dbInstance == nil {
		return fmt.Errorf("数据库连接未初始化")
	}
	sqlDB, err := dbInstance.DB()
	if err != nil {
		return fmt.Errorf("无法获取底层 SQL DB 实例进行健康检查: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
