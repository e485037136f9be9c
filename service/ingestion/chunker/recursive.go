package chunker

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// RecursiveChunker 递归字符分块：按目标大小和重叠量切分
// 文档末尾的chunk允许短于目标大小
type RecursiveChunker struct{}

var _ Chunker = &RecursiveChunker{}

func NewRecursiveChunker() *RecursiveChunker {
	return &RecursiveChunker{}
}

func (c *RecursiveChunker) Strategy() string {
	return StrategyRecursive
}

func (c *RecursiveChunker) ChunkDocuments(docs []schema.Document, opts Options) ([]Chunk, error) {
	if len(docs) == 0 {
		return []Chunk{}, nil
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	overlap := opts.ChunkOverlap
	if overlap <= 0 {
		// 重叠量默认不超过目标大小的一半
		overlap = min(DefaultChunkOverlap, chunkSize/2)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
	)

	chunks := make([]Chunk, 0, len(docs))
	index := 0
	for _, doc := range docs {
		parts, err := splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("failed to split text: %v", err)
		}

		for _, part := range parts {
			chunks = append(chunks, Chunk{
				ID:      uuid.NewString(),
				Content: part,
				Metadata: Metadata{
					Source:     source(doc),
					ChunkIndex: index,
					PageNumber: pageNumber(doc),
					Strategy:   StrategyRecursive,
				},
			})
			index++
		}
	}

	return chunks, nil
}
