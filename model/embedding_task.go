package model

import (
	"fmt"
	"time"
)

// EmbeddingConfig 单次嵌入运行的配置快照
type EmbeddingConfig struct {
	Model          string `json:"model"`
	Dimension      int    `json:"dimension"`
	CollectionName string `json:"collection_name"`
}

// EmbeddingTask 一次嵌入运行的任务记录，与分块任务1:1绑定
// chunking_task_id 上的唯一索引是并发保护：同一分块任务至多一个嵌入任务
type EmbeddingTask struct {
	ID              string          `gorm:"primarykey;size:36" json:"id"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
	ChunkingTaskID  string          `gorm:"not null;uniqueIndex" json:"chunking_task_id"`
	DocumentID      string          `gorm:"not null" json:"document_id"`
	Status          TaskStatus      `gorm:"not null;default:pending" json:"status"`
	TotalChunks     int             `gorm:"not null;default:0" json:"total_chunks"`
	ProcessedChunks int             `gorm:"not null;default:0" json:"processed_chunks"`
	EmbeddingConfig EmbeddingConfig `gorm:"serializer:json" json:"embedding_config"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage    string          `gorm:"type:text" json:"error_message,omitempty"`
}

func (EmbeddingTask) TableName() string {
	return "embedding_task"
}

func (t *EmbeddingTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

func (t *EmbeddingTask) IsFailed() bool {
	return t.Status == TaskStatusFailed
}

// MarkProcessing 允许从 pending/failed/processing 进入 processing
// failed -> processing 对应显式恢复；崩溃残留的 processing 状态恢复时原样接管
func (t *EmbeddingTask) MarkProcessing() error {
	if t.Status == TaskStatusCompleted {
		return fmt.Errorf("invalid status transition: %s -> %s", t.Status, TaskStatusProcessing)
	}
	t.Status = TaskStatusProcessing
	return nil
}

func (t *EmbeddingTask) MarkCompleted() error {
	// 对已完成任务重复置完成态无害
	if t.Status == TaskStatusCompleted {
		return nil
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	return nil
}

func (t *EmbeddingTask) MarkFailed(message string) error {
	if t.Status == TaskStatusCompleted {
		return fmt.Errorf("invalid status transition: %s -> %s", t.Status, TaskStatusFailed)
	}
	t.Status = TaskStatusFailed
	t.ErrorMessage = message
	return nil
}

// Progress 返回处理进度百分比
func (t *EmbeddingTask) Progress() int {
	if t.TotalChunks == 0 {
		return 0
	}
	return int(float64(t.ProcessedChunks) / float64(t.TotalChunks) * 100)
}
