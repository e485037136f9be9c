package main

import (
	"context"
	"fmt"
	"time"

	"document-rag-backend/service/query"

	"github.com/spf13/cobra"
)

var (
	searchLimit      int
	searchCollection string
	searchDocumentID string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "向量相似度检索",
	Long:  `嵌入查询文本后直接检索向量存储，不经过对话模型。`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "返回结果数量")
	searchCmd.Flags().StringVar(&searchCollection, "collection", "", "向量集合名")
	searchCmd.Flags().StringVar(&searchDocumentID, "document-id", "", "限定检索的文档ID")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryService, err := newQueryService(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	sources, err := queryService.SearchVectors(ctx, args[0], query.Options{
		CollectionName: searchCollection,
		TopK:           searchLimit,
		DocumentID:     searchDocumentID,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	for i, src := range sources {
		snippet := src.Content
		if len(snippet) > 120 {
			snippet = snippet[:120] + "..."
		}
		cmd.Printf("  [%d] %s chunk %d (%.3f)\n", i+1, src.DocumentID, src.ChunkIndex, src.Score)
		cmd.Printf("      %s\n", snippet)
	}
	cmd.Printf("Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
