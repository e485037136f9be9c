package dao

import (
	"context"
	"document-rag-backend/model"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChunkingTaskDAO 分块任务持久化
type ChunkingTaskDAO struct {
	db *gorm.DB
}

func NewChunkingTaskDAO(db *gorm.DB) *ChunkingTaskDAO {
	return &ChunkingTaskDAO{db: db}
}

func (d *ChunkingTaskDAO) Create(ctx context.Context, task *model.ChunkingTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return d.db.WithContext(ctx).Create(task).Error
}

// FindByID 未找到时返回 (nil, nil)
func (d *ChunkingTaskDAO) FindByID(ctx context.Context, id string) (*model.ChunkingTask, error) {
	var task model.ChunkingTask
	if err := d.db.WithContext(ctx).
		Where("id = ?", id).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (d *ChunkingTaskDAO) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, errorMessage string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	return d.db.WithContext(ctx).
		Model(&model.ChunkingTask{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (d *ChunkingTaskDAO) MarkCompleted(ctx context.Context, id string, totalChunks int) error {
	now := time.Now()
	return d.db.WithContext(ctx).
		Model(&model.ChunkingTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.TaskStatusCompleted,
			"total_chunks": totalChunks,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}
