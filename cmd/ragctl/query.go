package main

import (
	"context"
	"fmt"
	"time"

	"document-rag-backend/service/query"

	"github.com/spf13/cobra"
)

var (
	queryTopK       int
	queryCollection string
	queryDocumentID string
	queryStream     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "检索增强问答",
	Long:  `嵌入问题文本，检索最相关的chunk作为上下文，交给对话模型作答。`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "检索的chunk数量")
	queryCmd.Flags().StringVar(&queryCollection, "collection", "", "向量集合名")
	queryCmd.Flags().StringVar(&queryDocumentID, "document-id", "", "限定检索的文档ID")
	queryCmd.Flags().BoolVar(&queryStream, "stream", false, "流式输出答案")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryService, err := newQueryService(ctx)
	if err != nil {
		return err
	}

	opts := query.Options{
		CollectionName: queryCollection,
		TopK:           queryTopK,
		DocumentID:     queryDocumentID,
	}

	start := time.Now()
	var sources []query.Source

	if queryStream {
		sources, err = queryService.QueryStream(ctx, args[0], opts, func(chunk string) error {
			cmd.Print(chunk)
			return nil
		})
		cmd.Println()
	} else {
		var result *query.Result
		result, err = queryService.Query(ctx, args[0], opts)
		if err == nil {
			cmd.Println(result.Answer)
			sources = result.Sources
		}
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range sources {
		cmd.Printf("  [%d] %s chunk %d (%.3f)\n", i+1, src.DocumentID, src.ChunkIndex, src.Score)
	}
	cmd.Printf("Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
