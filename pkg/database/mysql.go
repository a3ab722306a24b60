package database

import (
	"salescoach-go/pkg/log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitMySQL 初始化 MySQL 数据库连接并配置连接池。
func InitMySQL(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("MySQL 连接失败", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("获取底层 sql.DB 失败", err)
	}

	// 模拟结束时的转写/反馈写入是短促的突发流量，连接池不必太大
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("[MySQL] 数据库连接成功")
}
