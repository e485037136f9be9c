package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"document-rag-backend/config"
	"document-rag-backend/model"
	"document-rag-backend/service/embedding"
	"document-rag-backend/service/vectorstore"
)

const (
	// 嵌入批处理大小，分页边界即检查点边界
	embeddingBatchSize = 50

	// 每处理10个chunk记录一次进度
	progressLogInterval = 10

	DefaultEmbeddingModel     = "nomic-embed-text"
	DefaultEmbeddingDimension = 768

	vectorContentType = "application/pdf"
	vectorVersion     = "1.0"
)

// EmbedRequest 一次嵌入运行请求
type EmbedRequest struct {
	ChunkingTaskID string
	DocumentID     string

	// 零值字段回退到默认配置
	Config model.EmbeddingConfig

	// 接管已存在且未完成的任务；已完成任务无需resume，直接幂等返回
	Resume bool
}

type EmbedResult struct {
	TaskID          string           `json:"task_id"`
	DocumentID      string           `json:"document_id"`
	TotalChunks     int              `json:"total_chunks"`
	ProcessedChunks int              `json:"processed_chunks"`
	Status          model.TaskStatus `json:"status"`
	CollectionName  string           `json:"collection_name"`
}

// EmbedService 嵌入任务编排，可恢复、幂等
// processed_chunks 计数仅作观测，向量ID存在性检查才是恢复正确性的依据
type EmbedService struct {
	tasks    EmbeddingTaskRepository
	chunks   StoredChunkRepository
	embedder embedding.Provider
	store    vectorstore.Store
}

func NewEmbedService(tasks EmbeddingTaskRepository, chunks StoredChunkRepository, embedder embedding.Provider, store vectorstore.Store) *EmbedService {
	return &EmbedService{
		tasks:    tasks,
		chunks:   chunks,
		embedder: embedder,
		store:    store,
	}
}

func (s *EmbedService) ProcessEmbeddings(ctx context.Context, req EmbedRequest) (*EmbedResult, error) {
	cfg := applyEmbeddingDefaults(req.Config)

	totalChunks, err := s.chunks.CountByTaskID(ctx, req.ChunkingTaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %v", err)
	}
	// 前置条件不满足，不创建任何任务记录
	if totalChunks == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoChunksFound, req.ChunkingTaskID)
	}

	task, done, err := s.findOrCreateTask(ctx, req, totalChunks, cfg)
	if err != nil {
		return nil, err
	}
	if done {
		return buildEmbedResult(task, cfg.CollectionName), nil
	}

	if err := s.runPipeline(ctx, req, task, totalChunks, cfg); err != nil {
		if updateErr := s.tasks.UpdateStatus(ctx, task.ID, model.TaskStatusFailed, err.Error()); updateErr != nil {
			slog.Error("failed to mark embedding task failed", "task_id", task.ID, "err", updateErr)
		}
		return nil, err
	}

	if err := s.tasks.MarkCompleted(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("failed to mark embedding task completed: %v", err)
	}

	refreshed, err := s.tasks.FindByID(ctx, task.ID)
	if err != nil || refreshed == nil {
		return nil, fmt.Errorf("failed to reload embedding task %s: %v", task.ID, err)
	}

	slog.Info("embedding task completed",
		"task_id", refreshed.ID, "total_chunks", refreshed.TotalChunks,
		"processed_chunks", refreshed.ProcessedChunks)

	return buildEmbedResult(refreshed, cfg.CollectionName), nil
}

// findOrCreateTask 任务解析。done=true 表示任务已完成，调用方直接幂等返回
func (s *EmbedService) findOrCreateTask(ctx context.Context, req EmbedRequest, totalChunks int, cfg model.EmbeddingConfig) (*model.EmbeddingTask, bool, error) {
	existing, err := s.tasks.FindByChunkingTaskID(ctx, req.ChunkingTaskID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find embedding task: %v", err)
	}

	if existing != nil {
		if existing.IsCompleted() {
			slog.Info("embedding task already completed", "task_id", existing.ID)
			return existing, true, nil
		}

		// 未完成的任务必须显式resume接管，防止误触发并发重复运行
		if !req.Resume {
			return nil, false, fmt.Errorf("%w: chunking task %s", ErrEmbeddingTaskExists, req.ChunkingTaskID)
		}

		if existing.IsFailed() {
			slog.Info("resuming failed embedding task", "task_id", existing.ID)
		} else {
			slog.Info("continuing embedding task", "task_id", existing.ID,
				"processed_chunks", existing.ProcessedChunks, "total_chunks", existing.TotalChunks)
		}

		if err := existing.MarkProcessing(); err != nil {
			return nil, false, err
		}
		if err := s.tasks.UpdateStatus(ctx, existing.ID, model.TaskStatusProcessing, ""); err != nil {
			return nil, false, fmt.Errorf("failed to mark embedding task processing: %v", err)
		}
		return existing, false, nil
	}

	task := &model.EmbeddingTask{
		ChunkingTaskID:  req.ChunkingTaskID,
		DocumentID:      req.DocumentID,
		Status:          model.TaskStatusPending,
		TotalChunks:     totalChunks,
		EmbeddingConfig: cfg,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, false, fmt.Errorf("failed to create embedding task: %v", err)
	}
	if err := s.tasks.UpdateStatus(ctx, task.ID, model.TaskStatusProcessing, ""); err != nil {
		return nil, false, fmt.Errorf("failed to mark embedding task processing: %v", err)
	}
	return task, false, nil
}

func (s *EmbedService) runPipeline(ctx context.Context, req EmbedRequest, task *model.EmbeddingTask, totalChunks int, cfg model.EmbeddingConfig) error {
	if err := s.store.EnsureCollection(ctx, cfg.CollectionName, cfg.Dimension); err != nil {
		return err
	}

	slog.Info("processing chunks", "task_id", task.ID,
		"total_chunks", totalChunks, "batch_size", embeddingBatchSize)

	processed := task.ProcessedChunks
	for offset := 0; offset < totalChunks; offset += embeddingBatchSize {
		batch, err := s.chunks.FindByTaskIDPaginated(ctx, req.ChunkingTaskID, offset, embeddingBatchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch chunk batch: %v", err)
		}

		for _, chunk := range batch {
			if err := s.processChunk(ctx, req, task, chunk, cfg); err != nil {
				return err
			}
			processed++
			if processed%progressLogInterval == 0 || processed == totalChunks {
				slog.Info("embedding progress", "task_id", task.ID,
					"processed", processed, "total", totalChunks,
					"percentage", processed*100/totalChunks)
			}
		}
	}

	return nil
}

// processChunk 单chunk处理。向量ID由chunk ID确定性推导，
// 已存在的向量直接跳过，覆盖“嵌入完成但计数未落库”的崩溃场景
func (s *EmbedService) processChunk(ctx context.Context, req EmbedRequest, task *model.EmbeddingTask, chunk *model.StoredChunk, cfg model.EmbeddingConfig) error {
	vectorID := vectorstore.DeriveVectorID(chunk.ID)

	exists, err := s.store.Exists(ctx, cfg.CollectionName, vectorID)
	if err != nil {
		return fmt.Errorf("failed to check vector existence: %v", err)
	}
	if exists {
		slog.Info("skipping chunk (already processed)",
			"task_id", task.ID, "chunk_index", chunk.ChunkIndex)
		return nil
	}

	vector, err := s.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %d: %v", chunk.ChunkIndex, err)
	}

	point := vectorstore.Point{
		ID:     vectorID,
		Vector: vector,
		Payload: vectorstore.Payload{
			ChunkID:         chunk.ID,
			ChunkIndex:      chunk.ChunkIndex,
			Content:         chunk.Content,
			DocumentID:      req.DocumentID,
			ChunkingTaskID:  req.ChunkingTaskID,
			EmbeddingTaskID: task.ID,
			PageNumber:      chunk.PageNumber,
			ContentType:     vectorContentType,
			Tags:            []string{},
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
			Version:         vectorVersion,
		},
	}
	if err := s.store.Upsert(ctx, cfg.CollectionName, []vectorstore.Point{point}); err != nil {
		return fmt.Errorf("failed to store vector for chunk %d: %v", chunk.ChunkIndex, err)
	}

	if err := s.tasks.IncrementProcessedChunks(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to increment processed chunks: %v", err)
	}
	return nil
}

// GetTask 查询嵌入任务状态
func (s *EmbedService) GetTask(ctx context.Context, id string) (*model.EmbeddingTask, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find embedding task: %v", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, nil
}

// applyEmbeddingDefaults 空字段优先取全局配置，未加载配置时回退内置默认值
func applyEmbeddingDefaults(cfg model.EmbeddingConfig) model.EmbeddingConfig {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
		if config.Cfg != nil && config.Cfg.Embedding.Model != "" {
			cfg.Model = config.Cfg.Embedding.Model
		}
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultEmbeddingDimension
		if config.Cfg != nil && config.Cfg.Embedding.Dimension > 0 {
			cfg.Dimension = config.Cfg.Embedding.Dimension
		}
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = vectorstore.DefaultCollectionName
	}
	return cfg
}

func buildEmbedResult(task *model.EmbeddingTask, collectionName string) *EmbedResult {
	return &EmbedResult{
		TaskID:          task.ID,
		DocumentID:      task.DocumentID,
		TotalChunks:     task.TotalChunks,
		ProcessedChunks: task.ProcessedChunks,
		Status:          task.Status,
		CollectionName:  collectionName,
	}
}
