package main

import (
	"context"
	"fmt"

	"document-rag-backend/config"
	"document-rag-backend/dao"
	"document-rag-backend/service/embedding"
	"document-rag-backend/service/ingestion"
	"document-rag-backend/service/ingestion/chunker"
	"document-rag-backend/service/ingestion/loader"
	"document-rag-backend/service/llm"
	"document-rag-backend/service/query"
	"document-rag-backend/service/vectorstore"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "文档摄取与检索命令行工具",
	Long: `ragctl 驱动文档RAG管线：分块、嵌入、检索问答与向量搜索。
所有命令共享 --config 指定的配置文件。`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Load(configPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径")
}

// newIngestionServices 构建分块与嵌入服务，需要MySQL与向量存储就绪
func newIngestionServices(ctx context.Context) (*ingestion.ChunkService, *ingestion.EmbedService, error) {
	if err := dao.Init(); err != nil {
		return nil, nil, err
	}

	store, err := vectorstore.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create vector store: %v", err)
	}
	embedder, err := embedding.New()
	if err != nil {
		return nil, nil, err
	}

	chunkService := ingestion.NewChunkService(
		dao.NewChunkingTaskDAO(dao.DB),
		dao.NewStoredChunkDAO(dao.DB),
		loader.NewFileLoader(),
		chunker.NewDefaultRegistry(),
	)
	embedService := ingestion.NewEmbedService(
		dao.NewEmbeddingTaskDAO(dao.DB),
		dao.NewStoredChunkDAO(dao.DB),
		embedder,
		store,
	)
	return chunkService, embedService, nil
}

// newQueryService 构建检索服务，不依赖MySQL
func newQueryService(ctx context.Context) (*query.Service, error) {
	store, err := vectorstore.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %v", err)
	}
	embedder, err := embedding.New()
	if err != nil {
		return nil, err
	}
	chatProvider, err := llm.New()
	if err != nil {
		return nil, err
	}
	return query.NewService(embedder, store, chatProvider), nil
}
