package ingestion

import (
	"context"
	"errors"

	"document-rag-backend/model"

	"github.com/tmc/langchaingo/schema"
)

var (
	// ErrNoChunksFound 分块任务下没有chunk，嵌入运行的前置条件不满足
	ErrNoChunksFound = errors.New("no chunks found for chunking task")

	// ErrEmbeddingTaskExists 同一分块任务的嵌入任务已存在且未完成，需显式resume
	ErrEmbeddingTaskExists = errors.New("embedding task already exists, use resume")

	ErrTaskNotFound = errors.New("task not found")
)

// ChunkingTaskRepository 分块任务存取，由 dao.ChunkingTaskDAO 实现
type ChunkingTaskRepository interface {
	Create(ctx context.Context, task *model.ChunkingTask) error
	FindByID(ctx context.Context, id string) (*model.ChunkingTask, error)
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus, errorMessage string) error
	MarkCompleted(ctx context.Context, id string, totalChunks int) error
}

// StoredChunkRepository chunk存取，由 dao.StoredChunkDAO 实现
type StoredChunkRepository interface {
	CreateMany(ctx context.Context, chunks []*model.StoredChunk, table string) error
	CountByTaskID(ctx context.Context, taskID string) (int, error)
	FindByTaskIDPaginated(ctx context.Context, taskID string, offset, limit int) ([]*model.StoredChunk, error)
}

// EmbeddingTaskRepository 嵌入任务存取，由 dao.EmbeddingTaskDAO 实现
type EmbeddingTaskRepository interface {
	Create(ctx context.Context, task *model.EmbeddingTask) error
	FindByID(ctx context.Context, id string) (*model.EmbeddingTask, error)
	FindByChunkingTaskID(ctx context.Context, chunkingTaskID string) (*model.EmbeddingTask, error)
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus, errorMessage string) error
	IncrementProcessedChunks(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
}

// DocumentLoader 文档加载能力，由 loader.FileLoader 实现
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]schema.Document, error)
}
