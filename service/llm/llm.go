package llm

import (
	"context"
	"fmt"
	"time"

	"document-rag-backend/config"
	"document-rag-backend/utils"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Provider 对话模型的统一接口
type Provider interface {
	Invoke(ctx context.Context, system, user string) (string, error)
	// Stream 增量回调每个输出片段，返回前输出已全部送达
	Stream(ctx context.Context, system, user string, fn func(chunk string) error) error
}

type langchainProvider struct {
	model llms.Model
}

var _ Provider = &langchainProvider{}

// New 根据配置构造对话模型后端
func New() (Provider, error) {
	cfg := config.Cfg.Chat

	var model llms.Model
	var err error

	switch cfg.Backend {
	case BackendOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
		)
	case BackendOpenAI:
		model, err = openai.New(
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			// 配置 300s 超时时间处理 LLM 流式输出
			openai.WithHTTPClient(utils.NewHTTPClient(
				utils.WithTimeout(300*time.Second),
			)),
		)
	default:
		return nil, fmt.Errorf("unsupported chat backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %v", err)
	}

	return &langchainProvider{model: model}, nil
}

func (p *langchainProvider) Invoke(ctx context.Context, system, user string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, messages(system, user))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (p *langchainProvider) Stream(ctx context.Context, system, user string, fn func(chunk string) error) error {
	_, err := p.model.GenerateContent(ctx, messages(system, user),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return fn(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to generate content: %v", err)
	}
	return nil
}

func messages(system, user string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
}
