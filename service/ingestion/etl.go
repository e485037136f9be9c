package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"document-rag-backend/model"

	"github.com/apache/rocketmq-client-go/v2/primitive"
)

// IngestMessage 经MQ下发的摄取任务：OSS对象 -> 分块 -> 嵌入
type IngestMessage struct {
	ObjectName     string `json:"object_name"`
	DocumentID     string `json:"document_id"`
	Strategy       string `json:"strategy"`
	CollectionName string `json:"collection_name"`
}

// Ingestor 异步摄取管线，消费MQ消息串联分块与嵌入
type Ingestor struct {
	fetcher *ObjectFetcher
	chunk   *ChunkService
	embed   *EmbedService
}

func NewIngestor(fetcher *ObjectFetcher, chunk *ChunkService, embed *EmbedService) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		chunk:   chunk,
		embed:   embed,
	}
}

// HandleIngestMessage MQ消息处理入口，返回错误触发MQ重试
func (i *Ingestor) HandleIngestMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var ingestMsg IngestMessage
	if err := json.Unmarshal(msg.Body, &ingestMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message body: %v", err)
	}

	slog.Info("handling ingest message",
		"object_name", ingestMsg.ObjectName, "msg_id", msg.MsgId)

	path, cleanup, err := i.fetcher.Fetch(ctx, ingestMsg.ObjectName)
	if err != nil {
		return err
	}
	defer cleanup()

	chunkResult, err := i.chunk.Chunk(ctx, ChunkRequest{
		FilePath:   path,
		DocumentID: ingestMsg.DocumentID,
		Strategy:   ingestMsg.Strategy,
	})
	if err != nil {
		return fmt.Errorf("failed to chunk object %s: %v", ingestMsg.ObjectName, err)
	}

	// MQ重试会重新走整个管线，嵌入阶段按任务状态接管
	_, err = i.embed.ProcessEmbeddings(ctx, EmbedRequest{
		ChunkingTaskID: chunkResult.TaskID,
		DocumentID:     chunkResult.DocumentID,
		Config: model.EmbeddingConfig{
			CollectionName: ingestMsg.CollectionName,
		},
		Resume: true,
	})
	if err != nil {
		return fmt.Errorf("failed to embed chunks of %s: %v", ingestMsg.ObjectName, err)
	}

	slog.Info("ingest message processed",
		"object_name", ingestMsg.ObjectName,
		"chunking_task_id", chunkResult.TaskID,
		"total_chunks", chunkResult.TotalChunks)
	return nil
}
