package model

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	// 任务已创建，尚未开始处理
	TaskStatusPending TaskStatus = "pending"

	// 任务处理中
	TaskStatusProcessing TaskStatus = "processing"

	// 任务处理完成
	TaskStatusCompleted TaskStatus = "completed"

	// 任务处理失败
	TaskStatusFailed TaskStatus = "failed"
)

// ChunkingConfig 单次分块运行的配置快照，随任务落库
type ChunkingConfig struct {
	Strategy string `json:"strategy"`
	Size     int    `json:"size"`
	Overlap  int    `json:"overlap"`
}

// ChunkingTask 一次文档分块运行的任务记录
// 每次调用都新建任务，失败的任务保留作为审计记录，不支持恢复
type ChunkingTask struct {
	ID             string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DocumentID     string         `gorm:"not null;index" json:"document_id"`
	FilePath       string         `gorm:"not null" json:"file_path"`
	Status         TaskStatus     `gorm:"not null;default:pending" json:"status"`
	TotalChunks    int            `gorm:"not null;default:0" json:"total_chunks"`
	ChunkingConfig ChunkingConfig `gorm:"serializer:json" json:"chunking_config"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message,omitempty"`
}

func (ChunkingTask) TableName() string {
	return "chunking_task"
}

func (t *ChunkingTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

func (t *ChunkingTask) IsFailed() bool {
	return t.Status == TaskStatusFailed
}

// MarkProcessing 仅允许 pending -> processing
func (t *ChunkingTask) MarkProcessing() error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("invalid status transition: %s -> %s", t.Status, TaskStatusProcessing)
	}
	t.Status = TaskStatusProcessing
	return nil
}

// MarkCompleted 记录最终分块数，totalChunks 自此成为权威值
func (t *ChunkingTask) MarkCompleted(totalChunks int) error {
	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("invalid status transition: %s -> %s", t.Status, TaskStatusCompleted)
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.TotalChunks = totalChunks
	t.CompletedAt = &now
	return nil
}

func (t *ChunkingTask) MarkFailed(message string) error {
	if t.Status == TaskStatusCompleted {
		return fmt.Errorf("invalid status transition: %s -> %s", t.Status, TaskStatusFailed)
	}
	t.Status = TaskStatusFailed
	t.ErrorMessage = message
	return nil
}

// StoredChunk 归属于一次分块任务的持久化chunk
// 任务完成后，同一 task_id 下的 chunk_index 恰为 0..N-1，无空洞
type StoredChunk struct {
	ID         string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	TaskID     string    `gorm:"not null;index:idx_task_chunk,unique" json:"task_id"`
	ChunkIndex int       `gorm:"not null;index:idx_task_chunk,unique" json:"chunk_index"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PageNumber int       `json:"page_number,omitempty"`
}

func (StoredChunk) TableName() string {
	return "stored_chunk"
}
