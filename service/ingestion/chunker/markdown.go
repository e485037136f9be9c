package chunker

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// MarkdownChunker 两阶段分块：先按标题切出候选章节，
// 超限章节再用递归字符切分兜底，标题层级信息在两个阶段间保留
type MarkdownChunker struct{}

var _ Chunker = &MarkdownChunker{}

func NewMarkdownChunker() *MarkdownChunker {
	return &MarkdownChunker{}
}

func (c *MarkdownChunker) Strategy() string {
	return StrategyMarkdown
}

func (c *MarkdownChunker) ChunkDocuments(docs []schema.Document, opts Options) ([]Chunk, error) {
	if len(docs) == 0 {
		return []Chunk{}, nil
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultMarkdownChunkSize
	}
	overlap := opts.ChunkOverlap
	if overlap <= 0 {
		overlap = DefaultMarkdownChunkOverlap
	}

	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
		// 保留父级标题信息
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithSecondSplitter(textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
		)),
	)

	chunks := make([]Chunk, 0, len(docs))
	index := 0
	for _, doc := range docs {
		parts, err := splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("failed to split markdown: %v", err)
		}

		for _, part := range parts {
			chunks = append(chunks, Chunk{
				ID:      uuid.NewString(),
				Content: part,
				Metadata: Metadata{
					Source:     source(doc),
					ChunkIndex: index,
					PageNumber: pageNumber(doc),
					Strategy:   StrategyMarkdown,
				},
			})
			index++
		}
	}

	return chunks, nil
}
