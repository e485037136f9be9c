package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"document-rag-backend/config"
	"document-rag-backend/controller"
	"document-rag-backend/dao"
	"document-rag-backend/router"
	"document-rag-backend/service/embedding"
	"document-rag-backend/service/ingestion"
	"document-rag-backend/service/ingestion/chunker"
	"document-rag-backend/service/ingestion/loader"
	"document-rag-backend/service/llm"
	"document-rag-backend/service/mq"
	"document-rag-backend/service/query"
	"document-rag-backend/service/vectorstore"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.Load(configPath); err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	if err := dao.Init(); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := vectorstore.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %v", err)
	}

	embedder, err := embedding.New()
	if err != nil {
		return err
	}

	chatProvider, err := llm.New()
	if err != nil {
		return err
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
	queryService := query.NewService(embedder, store, chatProvider)

	controller.InitIngestion(chunkService, embedService)
	controller.InitQuery(queryService)

	if config.Cfg.MQ.Enabled {
		if err := mq.Init(); err != nil {
			return err
		}
		ingestor := ingestion.NewIngestor(ingestion.NewObjectFetcher(), chunkService, embedService)
		if err := mq.Run(ingestor.HandleIngestMessage); err != nil {
			return err
		}
		defer mq.Shutdown()
	}

	r := router.Register()
	addr := fmt.Sprintf("%s:%s", config.Cfg.Server.Host, config.Cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(addr)
	}()
	slog.Info("server started", "addr", addr, "vector_store", config.Cfg.VectorStore.Backend)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
		return nil
	}
}
