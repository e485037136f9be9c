package embedding

import (
	"context"
	"fmt"
	"time"

	"document-rag-backend/config"
	"document-rag-backend/utils"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"

	defaultEmbeddingBatchSize = 50
)

// Provider 文本向量化的统一接口
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type langchainProvider struct {
	embedder embeddings.Embedder
	model    string
}

var _ Provider = &langchainProvider{}

// New 根据配置构造嵌入后端
func New() (Provider, error) {
	cfg := config.Cfg.Embedding

	var client embeddings.EmbedderClient
	var err error

	switch cfg.Backend {
	case BackendOllama:
		client, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
		)
	case BackendOpenAI:
		client, err = openai.New(
			openai.WithEmbeddingModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithHTTPClient(utils.NewHTTPClient(
				utils.WithTimeout(60*time.Second),
			)),
		)
	default:
		return nil, fmt.Errorf("unsupported embedding backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(defaultEmbeddingBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %v", err)
	}

	return &langchainProvider{embedder: embedder, model: cfg.Model}, nil
}

func (p *langchainProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	return vector, nil
}

func (p *langchainProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %v", err)
	}
	return vectors, nil
}
