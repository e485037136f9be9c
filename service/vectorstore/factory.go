package vectorstore

import (
	"context"
	"fmt"

	"document-rag-backend/config"
)

const (
	BackendMilvus = "milvus"
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// New 根据配置构造向量存储后端
func New(ctx context.Context) (Store, error) {
	cfg := config.Cfg.VectorStore

	switch cfg.Backend {
	case BackendMilvus:
		return NewMilvusStore(ctx, cfg.Milvus.Endpoint, cfg.Milvus.APIKey)
	case BackendQdrant:
		return NewQdrantStore(cfg.Qdrant.Endpoint, cfg.Qdrant.APIKey), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store backend: %s", cfg.Backend)
	}
}
