package main

import (
	"context"
	"fmt"
	"time"

	"document-rag-backend/model"
	"document-rag-backend/service/ingestion"

	"github.com/spf13/cobra"
)

var (
	embedDocumentID string
	embedModel      string
	embedDimension  int
	embedCollection string
	embedResume     bool
)

var embedCmd = &cobra.Command{
	Use:   "embed [chunking-task-id]",
	Short: "嵌入一个分块任务的所有chunk",
	Long: `读取指定分块任务的chunk，逐个生成嵌入向量并写入向量存储。
中断或失败的任务加 --resume 继续，已入库的向量自动跳过。`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedDocumentID, "document-id", "", "文档ID")
	embedCmd.Flags().StringVar(&embedModel, "model", "", "嵌入模型名")
	embedCmd.Flags().IntVar(&embedDimension, "dimension", 0, "向量维度")
	embedCmd.Flags().StringVar(&embedCollection, "collection", "", "目标向量集合")
	embedCmd.Flags().BoolVar(&embedResume, "resume", false, "恢复未完成的嵌入任务")
	embedCmd.MarkFlagRequired("document-id")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, embedService, err := newIngestionServices(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := embedService.ProcessEmbeddings(ctx, ingestion.EmbedRequest{
		ChunkingTaskID: args[0],
		DocumentID:     embedDocumentID,
		Config: model.EmbeddingConfig{
			Model:          embedModel,
			Dimension:      embedDimension,
			CollectionName: embedCollection,
		},
		Resume: embedResume,
	})
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	cmd.Println("Embedding completed:")
	cmd.Printf("  Task ID:          %s\n", result.TaskID)
	cmd.Printf("  Document ID:      %s\n", result.DocumentID)
	cmd.Printf("  Processed chunks: %d/%d\n", result.ProcessedChunks, result.TotalChunks)
	cmd.Printf("  Status:           %s\n", result.Status)
	cmd.Printf("  Collection:       %s\n", result.CollectionName)
	cmd.Printf("  Elapsed:          %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
