package dao

import (
	"context"
	"document-rag-backend/model"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmbeddingTaskDAO 嵌入任务持久化
type EmbeddingTaskDAO struct {
	db *gorm.DB
}

func NewEmbeddingTaskDAO(db *gorm.DB) *EmbeddingTaskDAO {
	return &EmbeddingTaskDAO{db: db}
}

func (d *EmbeddingTaskDAO) Create(ctx context.Context, task *model.EmbeddingTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return d.db.WithContext(ctx).Create(task).Error
}

// FindByID 未找到时返回 (nil, nil)
func (d *EmbeddingTaskDAO) FindByID(ctx context.Context, id string) (*model.EmbeddingTask, error) {
	var task model.EmbeddingTask
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

// FindByChunkingTaskID 唯一索引保证至多一条
func (d *EmbeddingTaskDAO) FindByChunkingTaskID(ctx context.Context, chunkingTaskID string) (*model.EmbeddingTask, error) {
	var task model.EmbeddingTask
	if err := d.db.WithContext(ctx).
		Where("chunking_task_id = ?", chunkingTaskID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (d *EmbeddingTaskDAO) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, errorMessage string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	return d.db.WithContext(ctx).
		Model(&model.EmbeddingTask{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// IncrementProcessedChunks 原子自增进度计数
func (d *EmbeddingTaskDAO) IncrementProcessedChunks(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).
		Model(&model.EmbeddingTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed_chunks": gorm.Expr("processed_chunks + ?", 1),
			"updated_at":       time.Now(),
		}).Error
}

func (d *EmbeddingTaskDAO) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	return d.db.WithContext(ctx).
		Model(&model.EmbeddingTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.TaskStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}
