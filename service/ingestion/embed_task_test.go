package ingestion

import (
	"context"
	"fmt"
	"testing"

	"document-rag-backend/model"
	"document-rag-backend/service/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChunks(chunkRepo *fakeStoredChunkRepo, chunkingTaskID string, n int) {
	contents := make([]string, n)
	for i := range contents {
		contents[i] = fmt.Sprintf("chunk content %d", i)
	}
	chunkRepo.seed(chunkingTaskID, contents)
}

func newEmbedService(taskRepo *fakeEmbeddingTaskRepo, chunkRepo *fakeStoredChunkRepo, embedder *countingEmbedder) (*EmbedService, *vectorstore.MemoryStore) {
	store := vectorstore.NewMemoryStore()
	return NewEmbedService(taskRepo, chunkRepo, embedder, store), store
}

func TestProcessEmbeddingsHappyPath(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 12)
	embedder := &countingEmbedder{dim: 4}
	svc, store := newEmbedService(taskRepo, chunkRepo, embedder)

	result, err := svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusCompleted, result.Status)
	assert.Equal(t, 12, result.TotalChunks)
	assert.Equal(t, 12, result.ProcessedChunks)
	assert.Equal(t, vectorstore.DefaultCollectionName, result.CollectionName)
	assert.Equal(t, 12, store.Count(vectorstore.DefaultCollectionName))
	assert.Len(t, embedder.embedded, 12)
}

func TestProcessEmbeddingsAppliesDefaults(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 1)
	embedder := &countingEmbedder{dim: DefaultEmbeddingDimension}
	svc, _ := newEmbedService(taskRepo, chunkRepo, embedder)

	result, err := svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
	})
	require.NoError(t, err)

	task, err := taskRepo.FindByID(context.Background(), result.TaskID)
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbeddingModel, task.EmbeddingConfig.Model)
	assert.Equal(t, DefaultEmbeddingDimension, task.EmbeddingConfig.Dimension)
	assert.Equal(t, vectorstore.DefaultCollectionName, task.EmbeddingConfig.CollectionName)
}

func TestProcessEmbeddingsNoChunksFound(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	embedder := &countingEmbedder{dim: 4}
	svc, _ := newEmbedService(taskRepo, chunkRepo, embedder)

	_, err := svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-empty",
		DocumentID:     "doc-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoChunksFound)

	// 前置校验失败时不创建任何任务记录
	assert.Empty(t, taskRepo.tasks)
	assert.Empty(t, embedder.embedded)
}

func TestProcessEmbeddingsFailureMarksTaskFailed(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 5)
	embedder := &countingEmbedder{dim: 4, failAfter: 2}
	svc, store := newEmbedService(taskRepo, chunkRepo, embedder)

	_, err := svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "embedding provider unavailable")

	task, findErr := taskRepo.FindByChunkingTaskID(context.Background(), "chunking-1")
	require.NoError(t, findErr)
	require.NotNil(t, task)
	assert.Equal(t, model.TaskStatusFailed, task.Status)
	assert.NotEmpty(t, task.ErrorMessage)
	// 失败前成功的两个chunk进度已持久化
	assert.Equal(t, 2, task.ProcessedChunks)
	assert.Equal(t, 2, store.Count(vectorstore.DefaultCollectionName))
}

func TestProcessEmbeddingsDuplicateWithoutResume(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 5)
	embedder := &countingEmbedder{dim: 4, failAfter: 2}
	svc, _ := newEmbedService(taskRepo, chunkRepo, embedder)

	_, err := svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	})
	require.Error(t, err)

	// 未完成任务存在时，缺少resume标志直接拒绝
	_, err = svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingTaskExists)

	// 没有创建重复任务
	assert.Len(t, taskRepo.tasks, 1)
}

func TestProcessEmbeddingsResumeSkipsAlreadyStoredVectors(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 5)
	embedder := &countingEmbedder{dim: 4, failAfter: 3}
	svc, store := newEmbedService(taskRepo, chunkRepo, embedder)

	req := EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	}

	_, err := svc.ProcessEmbeddings(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, 3, store.Count(vectorstore.DefaultCollectionName))

	embedder.failAfter = 0
	req.Resume = true
	result, err := svc.ProcessEmbeddings(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusCompleted, result.Status)
	assert.Equal(t, 5, result.TotalChunks)
	assert.Equal(t, 5, result.ProcessedChunks)
	assert.Equal(t, 5, store.Count(vectorstore.DefaultCollectionName))

	// 已入库的chunk在恢复时不再调用嵌入服务
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, embedder.timesEmbedded(fmt.Sprintf("chunk content %d", i)))
	}
}

func TestProcessEmbeddingsCompletedTaskIsIdempotent(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 3)
	embedder := &countingEmbedder{dim: 4}
	svc, _ := newEmbedService(taskRepo, chunkRepo, embedder)

	req := EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	}

	first, err := svc.ProcessEmbeddings(context.Background(), req)
	require.NoError(t, err)
	callsAfterFirst := len(embedder.embedded)

	// 已完成任务重复调用直接返回既有结果，不触发任何provider调用
	second, err := svc.ProcessEmbeddings(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.TaskID, second.TaskID)
	assert.Equal(t, first.TotalChunks, second.TotalChunks)
	assert.Equal(t, first.ProcessedChunks, second.ProcessedChunks)
	assert.Equal(t, model.TaskStatusCompleted, second.Status)
	assert.Equal(t, callsAfterFirst, len(embedder.embedded))
}

func TestProcessEmbeddingsVectorIDDeterminism(t *testing.T) {
	taskRepo := newFakeEmbeddingTaskRepo()
	chunkRepo := newFakeStoredChunkRepo()
	seedChunks(chunkRepo, "chunking-1", 2)
	embedder := &countingEmbedder{dim: 4}
	svc, store := newEmbedService(taskRepo, chunkRepo, embedder)

	_, err := svc.ProcessEmbeddings(context.Background(), EmbedRequest{
		ChunkingTaskID: "chunking-1",
		DocumentID:     "doc-1",
		Config:         model.EmbeddingConfig{Dimension: 4},
	})
	require.NoError(t, err)

	// 向量ID是chunk ID的纯函数
	for _, chunk := range chunkRepo.chunks {
		exists, err := store.Exists(context.Background(), vectorstore.DefaultCollectionName, vectorstore.DeriveVectorID(chunk.ID))
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestEmbedGetTaskNotFound(t *testing.T) {
	svc, _ := newEmbedService(newFakeEmbeddingTaskRepo(), newFakeStoredChunkRepo(), &countingEmbedder{dim: 4})

	_, err := svc.GetTask(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
