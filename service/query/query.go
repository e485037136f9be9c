package query

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"document-rag-backend/service/embedding"
	"document-rag-backend/service/llm"
	"document-rag-backend/service/vectorstore"
)

const DefaultTopK = 5

var (
	//go:embed prompts/rag_system.txt
	ragSystemPrompt string

	//go:embed prompts/rag_user.txt
	ragUserPrompt string
)

// Options 检索参数，零值回退到配置默认
type Options struct {
	CollectionName string
	TopK           int
	DocumentID     string
}

// Source 支撑答案的检索来源，用于溯源
type Source struct {
	ChunkID    string  `json:"chunk_id"`
	Content    string  `json:"content"`
	ChunkIndex int     `json:"chunk_index"`
	DocumentID string  `json:"document_id"`
	PageNumber int     `json:"page_number,omitempty"`
	Score      float32 `json:"score"`
}

type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service 检索增强问答：查询向量化、近邻检索、上下文拼装、模型作答
type Service struct {
	embedder embedding.Provider
	store    vectorstore.Store
	llm      llm.Provider
}

func NewService(embedder embedding.Provider, store vectorstore.Store, llmProvider llm.Provider) *Service {
	return &Service{
		embedder: embedder,
		store:    store,
		llm:      llmProvider,
	}
}

func (s *Service) Query(ctx context.Context, text string, opts Options) (*Result, error) {
	sources, err := s.SearchVectors(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	answer, err := s.llm.Invoke(ctx, ragSystemPrompt, buildUserPrompt(text, sources))
	if err != nil {
		return nil, fmt.Errorf("failed to invoke llm: %v", err)
	}

	return &Result{Answer: answer, Sources: sources}, nil
}

// QueryStream 流式作答，返回的sources在流开始前已就绪
func (s *Service) QueryStream(ctx context.Context, text string, opts Options, fn func(chunk string) error) ([]Source, error) {
	sources, err := s.SearchVectors(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	if err := s.llm.Stream(ctx, ragSystemPrompt, buildUserPrompt(text, sources), fn); err != nil {
		return sources, fmt.Errorf("failed to stream llm response: %v", err)
	}

	return sources, nil
}

// SearchVectors 纯向量检索，不经过对话模型
func (s *Service) SearchVectors(ctx context.Context, text string, opts Options) ([]Source, error) {
	collection := opts.CollectionName
	if collection == "" {
		collection = vectorstore.DefaultCollectionName
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	var filter *vectorstore.SearchFilter
	if opts.DocumentID != "" {
		filter = &vectorstore.SearchFilter{DocumentID: opts.DocumentID}
	}

	results, err := s.store.Search(ctx, collection, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %v", err)
	}

	slog.Debug("vector search finished", "collection", collection, "top_k", topK, "results_num", len(results))

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			ChunkID:    r.Payload.ChunkID,
			Content:    r.Payload.Content,
			ChunkIndex: r.Payload.ChunkIndex,
			DocumentID: r.Payload.DocumentID,
			PageNumber: r.Payload.PageNumber,
			Score:      r.Score,
		})
	}
	return sources, nil
}

// buildUserPrompt 按相似度降序拼装上下文，每条带序号标记
func buildUserPrompt(question string, sources []Source) string {
	blocks := make([]string, 0, len(sources))
	for i, src := range sources {
		blocks = append(blocks, fmt.Sprintf("[%d] %s", i+1, src.Content))
	}

	contextBlock := strings.Join(blocks, "\n\n---\n\n")
	if contextBlock == "" {
		contextBlock = "(no relevant context found)"
	}

	prompt := strings.ReplaceAll(ragUserPrompt, "{context}", contextBlock)
	return strings.ReplaceAll(prompt, "{question}", question)
}
