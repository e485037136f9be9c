package ingestion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"document-rag-backend/model"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
)

type fakeChunkingTaskRepo struct {
	tasks map[string]*model.ChunkingTask
}

func newFakeChunkingTaskRepo() *fakeChunkingTaskRepo {
	return &fakeChunkingTaskRepo{tasks: make(map[string]*model.ChunkingTask)}
}

func (r *fakeChunkingTaskRepo) Create(_ context.Context, task *model.ChunkingTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeChunkingTaskRepo) FindByID(_ context.Context, id string) (*model.ChunkingTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeChunkingTaskRepo) UpdateStatus(_ context.Context, id string, status model.TaskStatus, errorMessage string) error {
	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	task.Status = status
	if errorMessage != "" {
		task.ErrorMessage = errorMessage
	}
	return nil
}

func (r *fakeChunkingTaskRepo) MarkCompleted(_ context.Context, id string, totalChunks int) error {
	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	now := time.Now()
	task.Status = model.TaskStatusCompleted
	task.TotalChunks = totalChunks
	task.CompletedAt = &now
	return nil
}

type fakeStoredChunkRepo struct {
	chunks     []*model.StoredChunk
	lastTable  string
	createErr  error
}

func newFakeStoredChunkRepo() *fakeStoredChunkRepo {
	return &fakeStoredChunkRepo{}
}

func (r *fakeStoredChunkRepo) CreateMany(_ context.Context, chunks []*model.StoredChunk, table string) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.lastTable = table
	for _, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		copied := *chunk
		r.chunks = append(r.chunks, &copied)
	}
	return nil
}

func (r *fakeStoredChunkRepo) CountByTaskID(_ context.Context, taskID string) (int, error) {
	count := 0
	for _, chunk := range r.chunks {
		if chunk.TaskID == taskID {
			count++
		}
	}
	return count, nil
}

func (r *fakeStoredChunkRepo) FindByTaskIDPaginated(_ context.Context, taskID string, offset, limit int) ([]*model.StoredChunk, error) {
	var matched []*model.StoredChunk
	for _, chunk := range r.chunks {
		if chunk.TaskID == taskID {
			matched = append(matched, chunk)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ChunkIndex < matched[j].ChunkIndex
	})

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeStoredChunkRepo) seed(taskID string, contents []string) {
	for i, content := range contents {
		r.chunks = append(r.chunks, &model.StoredChunk{
			ID:         uuid.NewString(),
			TaskID:     taskID,
			ChunkIndex: i,
			Content:    content,
		})
	}
}

type fakeEmbeddingTaskRepo struct {
	tasks map[string]*model.EmbeddingTask
}

func newFakeEmbeddingTaskRepo() *fakeEmbeddingTaskRepo {
	return &fakeEmbeddingTaskRepo{tasks: make(map[string]*model.EmbeddingTask)}
}

func (r *fakeEmbeddingTaskRepo) Create(_ context.Context, task *model.EmbeddingTask) error {
	for _, existing := range r.tasks {
		if existing.ChunkingTaskID == task.ChunkingTaskID {
			return fmt.Errorf("duplicate key on chunking_task_id %s", task.ChunkingTaskID)
		}
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeEmbeddingTaskRepo) FindByID(_ context.Context, id string) (*model.EmbeddingTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeEmbeddingTaskRepo) FindByChunkingTaskID(_ context.Context, chunkingTaskID string) (*model.EmbeddingTask, error) {
	for _, task := range r.tasks {
		if task.ChunkingTaskID == chunkingTaskID {
			copied := *task
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEmbeddingTaskRepo) UpdateStatus(_ context.Context, id string, status model.TaskStatus, errorMessage string) error {
	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	task.Status = status
	if errorMessage != "" {
		task.ErrorMessage = errorMessage
	}
	return nil
}

func (r *fakeEmbeddingTaskRepo) IncrementProcessedChunks(_ context.Context, id string) error {
	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	task.ProcessedChunks++
	return nil
}

func (r *fakeEmbeddingTaskRepo) MarkCompleted(_ context.Context, id string) error {
	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	now := time.Now()
	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now
	return nil
}

type fakeLoader struct {
	docs []schema.Document
	err  error
}

func (l *fakeLoader) Load(_ context.Context, _ string) ([]schema.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.docs, nil
}

// countingEmbedder 记录每次嵌入的文本，failAfter 次成功调用后返回一次错误
type countingEmbedder struct {
	dim       int
	embedded  []string
	failAfter int
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failAfter > 0 && len(e.embedded) >= e.failAfter {
		return nil, fmt.Errorf("embedding provider unavailable")
	}
	e.embedded = append(e.embedded, text)

	vector := make([]float32, e.dim)
	for i := range vector {
		vector[i] = float32(len(text)%7) + float32(i)
	}
	return vector, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (e *countingEmbedder) timesEmbedded(text string) int {
	count := 0
	for _, embedded := range e.embedded {
		if embedded == text {
			count++
		}
	}
	return count
}
