package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const DefaultCollectionName = "documents"

// Store 向量存储的统一契约，由 milvus / qdrant / memory 后端实现
type Store interface {
	// EnsureCollection 集合不存在时按给定维度创建，存在时不做任何修改
	EnsureCollection(ctx context.Context, name string, dimension int) error

	Upsert(ctx context.Context, collection string, points []Point) error

	// Exists 按向量ID判断是否已写入，是嵌入管线可恢复性的依据
	Exists(ctx context.Context, collection, id string) (bool, error)

	Search(ctx context.Context, collection string, vector []float32, limit int, filter *SearchFilter) ([]SearchResult, error)
}

// Point 一条待写入的向量记录
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Payload 向量的结构化负载，落库时统一使用snake_case字段名
type Payload struct {
	ChunkID         string   `json:"chunk_id"`
	ChunkIndex      int      `json:"chunk_index"`
	Content         string   `json:"content"`
	DocumentID      string   `json:"document_id"`
	ChunkingTaskID  string   `json:"chunking_task_id"`
	EmbeddingTaskID string   `json:"embedding_task_id"`
	PageNumber      int      `json:"page_number,omitempty"`
	ContentType     string   `json:"content_type"`
	Tags            []string `json:"tags"`
	CreatedAt       string   `json:"created_at"`
	Version         string   `json:"version"`
}

// SearchFilter 可选的检索过滤条件
type SearchFilter struct {
	DocumentID string
}

type SearchResult struct {
	ID      string
	Score   float32
	Payload Payload
}

// DeriveVectorID 由chunk ID确定性推导向量ID：sha256摘要取前32个十六进制字符，
// 格式化为 8-4-4-4-12 的UUID形态。同一chunk无论重嵌入多少次都落在同一向量ID上，
// 这是嵌入管线幂等与可恢复的基础
func DeriveVectorID(chunkID string) string {
	sum := sha256.Sum256([]byte(chunkID))
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}
