package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"document-rag-backend/config"
	"document-rag-backend/service/vectorstore"
)

// 预创建向量集合，避免首次嵌入运行时隐式建表
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	collection := flag.String("collection", vectorstore.DefaultCollectionName, "集合名")
	dimension := flag.Int("dimension", 0, "向量维度，缺省取嵌入配置")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	dim := *dimension
	if dim <= 0 {
		dim = config.Cfg.Embedding.Dimension
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := vectorstore.New(ctx)
	if err != nil {
		slog.Error("failed to create vector store", "err", err)
		os.Exit(1)
	}

	if err := store.EnsureCollection(ctx, *collection, dim); err != nil {
		slog.Error("failed to ensure collection", "collection", *collection, "err", err)
		os.Exit(1)
	}

	slog.Info("vector collection ready",
		"backend", config.Cfg.VectorStore.Backend,
		"collection", *collection,
		"dimension", dim)
}
