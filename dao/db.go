package dao

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"doc-chat-backend/model"
)

var DB *gorm.DB

// Init 建立MySQL连接并迁移表结构
func Init(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		// 将MySQL唯一键冲突翻译为gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to mysql: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Conversation{},
		&model.Message{},
		&model.Document{},
		&model.ReferenceAnswer{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %v", err)
	}

	DB = db
	return nil
}
