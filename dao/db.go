package dao

import (
	"document-rag-backend/config"
	"document-rag-backend/model"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go/v4"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const connectAttempts = 5

// DB 全局数据库连接
var DB *gorm.DB

// Init 建立MySQL连接并迁移表结构
// 容器环境下MySQL可能晚于应用就绪，带退避重试
func Init() error {
	var err error
	err = retry.Do(
		func() error {
			DB, err = gorm.Open(mysql.Open(config.Cfg.MySQL.DSN), &gorm.Config{})
			return err
		},
		retry.Attempts(connectAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying to connect to mysql",
				"attempt", n+1,
				"err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to mysql after retries: %v", err)
	}

	if err := DB.AutoMigrate(
		&model.ChunkingTask{},
		&model.StoredChunk{},
		&model.EmbeddingTask{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %v", err)
	}

	return nil
}
