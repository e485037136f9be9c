package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func doc(content string, page int) schema.Document {
	return schema.Document{
		PageContent: content,
		Metadata: map[string]any{
			"source": "/docs/manual.pdf",
			"page":   page,
		},
	}
}

func assertContiguousIndexes(t *testing.T, chunks []Chunk) {
	t.Helper()
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
	}
}

func TestRegistryResolvesFullStrategyIdentifier(t *testing.T) {
	registry := NewDefaultRegistry()

	c, err := registry.Get("recursive-1000-200")
	require.NoError(t, err)
	assert.Equal(t, StrategyRecursive, c.Strategy())

	c, err = registry.Get("toc")
	require.NoError(t, err)
	assert.Equal(t, StrategyTOC, c.Strategy())
}

func TestRegistryUnknownStrategy(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.Get("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStrategyNotFound)
	assert.Contains(t, err.Error(), "nonexistent")

	assert.False(t, registry.Has("nonexistent"))
	assert.True(t, registry.Has("markdown"))
}

func TestAllStrategiesReturnEmptyForEmptyInput(t *testing.T) {
	for _, c := range []Chunker{NewRecursiveChunker(), NewTOCChunker(), NewMarkdownChunker()} {
		chunks, err := c.ChunkDocuments(nil, Options{})
		require.NoError(t, err, c.Strategy())
		assert.Empty(t, chunks, c.Strategy())
		assert.NotNil(t, chunks, c.Strategy())
	}
}

func TestRecursiveChunkerSizeAndOverlap(t *testing.T) {
	content := strings.Repeat("abcdefghij", 250)
	chunks, err := NewRecursiveChunker().ChunkDocuments(
		[]schema.Document{doc(content, 1)},
		Options{ChunkSize: 1000, ChunkOverlap: 200},
	)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assertContiguousIndexes(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 1000)
		assert.Equal(t, StrategyRecursive, chunk.Metadata.Strategy)
		assert.Equal(t, "/docs/manual.pdf", chunk.Metadata.Source)
		assert.Equal(t, 1, chunk.Metadata.PageNumber)
	}

	// 前一个chunk的末尾与后一个chunk的开头重叠
	tail := chunks[0].Content[len(chunks[0].Content)-200:]
	assert.True(t, strings.HasPrefix(chunks[1].Content, tail))
}

func TestRecursiveChunkerIndexContinuesAcrossDocuments(t *testing.T) {
	content := strings.Repeat("x y z w v u t s r q ", 60)
	chunks, err := NewRecursiveChunker().ChunkDocuments(
		[]schema.Document{doc(content, 1), doc(content, 2)},
		Options{ChunkSize: 300, ChunkOverlap: 50},
	)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	assertContiguousIndexes(t, chunks)

	// 页码元数据跟随来源文档
	assert.Equal(t, 1, chunks[0].Metadata.PageNumber)
	assert.Equal(t, 2, chunks[len(chunks)-1].Metadata.PageNumber)
}

func TestTOCChunkerExtractsSections(t *testing.T) {
	content := strings.Join([]string{
		"preamble text without a header, dropped",
		"# Introduction",
		strings.Repeat("intro content. ", 20),
		"# Methods",
		strings.Repeat("methods content. ", 20),
	}, "\n")

	chunks, err := NewTOCChunker().ChunkDocuments([]schema.Document{doc(content, 3)}, Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assertContiguousIndexes(t, chunks)
	assert.Equal(t, "Introduction", chunks[0].Metadata.SectionTitle)
	assert.Equal(t, 1, chunks[0].Metadata.SectionLevel)
	assert.Equal(t, "Methods", chunks[1].Metadata.SectionTitle)
	assert.Contains(t, chunks[0].Content, "intro content.")
	assert.NotContains(t, chunks[0].Content, "preamble")
	assert.Equal(t, 3, chunks[0].Metadata.PageNumber)
}

func TestTOCChunkerSplitsLargeSections(t *testing.T) {
	paragraphs := make([]string, 8)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat(fmt.Sprintf("paragraph %d sentence. ", i), 10)
	}
	content := "# Big Section\n" + strings.Join(paragraphs, "\n\n")

	chunks, err := NewTOCChunker().ChunkDocuments(
		[]schema.Document{doc(content, 1)},
		Options{TOC: TOCOptions{MaxChunkSize: 600, MinChunkSize: 50}},
	)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 600)
		assert.Equal(t, fmt.Sprintf("Big Section (Part %d)", i+1), chunk.Metadata.SectionTitle)
	}
}

func TestTOCChunkerCombinesSmallSections(t *testing.T) {
	content := strings.Join([]string{
		"# First",
		"tiny one",
		"# Second",
		"tiny two",
		"# Third",
		strings.Repeat("substantial third section content. ", 10),
	}, "\n")

	chunks, err := NewTOCChunker().ChunkDocuments(
		[]schema.Document{doc(content, 1)},
		Options{TOC: TOCOptions{MaxChunkSize: 5000, MinChunkSize: 100}},
	)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// 两个过小章节合并为一个chunk，各自的标题保留在正文里
	merged := chunks[0]
	assert.Equal(t, "First, Second", merged.Metadata.SectionTitle)
	assert.Contains(t, merged.Content, "## First")
	assert.Contains(t, merged.Content, "## Second")
	assert.Contains(t, merged.Content, "tiny one")
	assert.Contains(t, merged.Content, "tiny two")

	assert.Equal(t, "Third", chunks[1].Metadata.SectionTitle)
}

func TestTOCChunkerDropsSmallSectionsWhenCombineDisabled(t *testing.T) {
	combine := false
	content := strings.Join([]string{
		"# First",
		"tiny one",
		"# Second",
		strings.Repeat("substantial second section content. ", 10),
	}, "\n")

	chunks, err := NewTOCChunker().ChunkDocuments(
		[]schema.Document{doc(content, 1)},
		Options{TOC: TOCOptions{MinChunkSize: 100, CombineSmallSections: &combine}},
	)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Second", chunks[0].Metadata.SectionTitle)
}

func TestTOCChunkerHeaderLevelDetection(t *testing.T) {
	tests := []struct {
		line  string
		level int
	}{
		{"# Top", 1},
		{"### Deep", 3},
		{"SECTION OVERVIEW", 1},
		{"1.2 Mixed case numbered heading", 2},
	}
	for _, tt := range tests {
		_, level, ok := matchHeader(tt.line, defaultHeaderPatterns)
		require.True(t, ok, tt.line)
		assert.Equal(t, tt.level, level, tt.line)
	}

	_, _, ok := matchHeader("plain body text here", defaultHeaderPatterns)
	assert.False(t, ok)
}

func TestTOCChunkerNumberedHeaderTitle(t *testing.T) {
	title, _, ok := matchHeader("2.1 Dosage Guidelines", defaultHeaderPatterns)
	require.True(t, ok)
	assert.Equal(t, "Dosage Guidelines", title)
}

func TestMarkdownChunkerPreservesHeaderContext(t *testing.T) {
	content := strings.Join([]string{
		"# Guide",
		"",
		"## Setup",
		strings.Repeat("setup instructions. ", 30),
		"",
		"## Usage",
		strings.Repeat("usage notes. ", 30),
	}, "\n")

	chunks, err := NewMarkdownChunker().ChunkDocuments(
		[]schema.Document{doc(content, 1)},
		Options{ChunkSize: 400, ChunkOverlap: 50},
	)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assertContiguousIndexes(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, StrategyMarkdown, chunk.Metadata.Strategy)
		assert.NotEmpty(t, chunk.Content)
	}
}
