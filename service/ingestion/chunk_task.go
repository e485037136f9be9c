package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"document-rag-backend/model"
	"document-rag-backend/service/ingestion/chunker"

	"github.com/google/uuid"
)

// 未指定策略时的默认分块配置
const (
	DefaultChunkStrategy = "recursive-1000-200"
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
)

// ChunkRequest 一次文档分块请求
type ChunkRequest struct {
	FilePath string

	// 为空时按文件名加随机后缀生成
	DocumentID string

	Strategy     string
	ChunkSize    int
	ChunkOverlap int
	TOC          chunker.TOCOptions

	// 大于0时截断chunk列表头部，用于运维场景控制成本
	MaxChunks int

	// chunk落库的分表名，为空时写默认表
	ChunkTable string
}

type ChunkResult struct {
	TaskID      string           `json:"task_id"`
	DocumentID  string           `json:"document_id"`
	TotalChunks int              `json:"total_chunks"`
	Status      model.TaskStatus `json:"status"`
}

// ChunkService 分块任务编排：每次调用新建任务，失败任务保留作审计，不支持恢复
type ChunkService struct {
	tasks    ChunkingTaskRepository
	chunks   StoredChunkRepository
	loader   DocumentLoader
	registry *chunker.Registry
}

func NewChunkService(tasks ChunkingTaskRepository, chunks StoredChunkRepository, loader DocumentLoader, registry *chunker.Registry) *ChunkService {
	return &ChunkService{
		tasks:    tasks,
		chunks:   chunks,
		loader:   loader,
		registry: registry,
	}
}

func (s *ChunkService) Chunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	documentID := req.DocumentID
	if documentID == "" {
		documentID = generateDocumentID(req.FilePath)
	}

	cfg := model.ChunkingConfig{
		Strategy: req.Strategy,
		Size:     req.ChunkSize,
		Overlap:  req.ChunkOverlap,
	}
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultChunkStrategy
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultChunkSize
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = DefaultChunkOverlap
	}

	task := &model.ChunkingTask{
		DocumentID:     documentID,
		FilePath:       req.FilePath,
		Status:         model.TaskStatusPending,
		ChunkingConfig: cfg,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create chunking task: %v", err)
	}

	totalChunks, err := s.run(ctx, task, cfg, req)
	if err != nil {
		// 失败原样上抛，任务记录保留失败原因
		if updateErr := s.tasks.UpdateStatus(ctx, task.ID, model.TaskStatusFailed, err.Error()); updateErr != nil {
			slog.Error("failed to mark chunking task failed", "task_id", task.ID, "err", updateErr)
		}
		return nil, err
	}

	if err := s.tasks.MarkCompleted(ctx, task.ID, totalChunks); err != nil {
		return nil, fmt.Errorf("failed to mark chunking task completed: %v", err)
	}

	slog.Info("chunking task completed",
		"task_id", task.ID, "document_id", documentID, "total_chunks", totalChunks)

	return &ChunkResult{
		TaskID:      task.ID,
		DocumentID:  documentID,
		TotalChunks: totalChunks,
		Status:      model.TaskStatusCompleted,
	}, nil
}

func (s *ChunkService) run(ctx context.Context, task *model.ChunkingTask, cfg model.ChunkingConfig, req ChunkRequest) (int, error) {
	if err := s.tasks.UpdateStatus(ctx, task.ID, model.TaskStatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("failed to mark chunking task processing: %v", err)
	}

	docs, err := s.loader.Load(ctx, req.FilePath)
	if err != nil {
		return 0, err
	}

	c, err := s.registry.Get(cfg.Strategy)
	if err != nil {
		return 0, err
	}

	chunks, err := c.ChunkDocuments(docs, chunker.Options{
		ChunkSize:    cfg.Size,
		ChunkOverlap: cfg.Overlap,
		TOC:          req.TOC,
	})
	if err != nil {
		return 0, err
	}

	// 头部截断保序，截断后 chunk_index 仍为 0..N-1
	if req.MaxChunks > 0 && len(chunks) > req.MaxChunks {
		slog.Info("truncating chunks", "task_id", task.ID,
			"total", len(chunks), "max_chunks", req.MaxChunks)
		chunks = chunks[:req.MaxChunks]
	}

	stored := make([]*model.StoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		stored = append(stored, &model.StoredChunk{
			ID:         chunk.ID,
			TaskID:     task.ID,
			ChunkIndex: chunk.Metadata.ChunkIndex,
			Content:    chunk.Content,
			PageNumber: chunk.Metadata.PageNumber,
		})
	}

	if err := s.chunks.CreateMany(ctx, stored, req.ChunkTable); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %v", err)
	}

	return len(chunks), nil
}

// GetTask 查询分块任务状态
func (s *ChunkService) GetTask(ctx context.Context, id string) (*model.ChunkingTask, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find chunking task: %v", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, nil
}

// generateDocumentID 文件名去扩展名，追加随机ID前8位
// 随机后缀让同一文件的多次分块互不冲突
func generateDocumentID(filePath string) string {
	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-%s", stem, uuid.NewString()[:8])
}
