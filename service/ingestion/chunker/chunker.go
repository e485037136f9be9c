package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// 策略标识
const (
	StrategyRecursive = "recursive"
	StrategyTOC       = "toc"
	StrategyMarkdown  = "markdown"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	DefaultMarkdownChunkSize    = 2000
	DefaultMarkdownChunkOverlap = 200

	DefaultTOCMaxChunkSize = 5000
	DefaultTOCMinChunkSize = 100
)

var ErrStrategyNotFound = errors.New("chunk strategy not found")

// Chunk 分块结果的原子单元，chunk_index 在一次调用内跨文档连续递增
type Chunk struct {
	ID       string
	Content  string
	Metadata Metadata
}

type Metadata struct {
	Source       string
	ChunkIndex   int
	PageNumber   int
	Strategy     string
	SectionTitle string
	SectionLevel int
}

// Options 各策略共用的分块参数，零值字段由策略回填默认值
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TOC          TOCOptions
}

type TOCOptions struct {
	MaxChunkSize int
	MinChunkSize int

	// nil 视为 true
	CombineSmallSections *bool

	// 按优先级逐行尝试，首个命中生效
	HeaderPatterns []*regexp.Regexp
}

// Chunker 分块策略的统一能力：文档列表 -> chunk列表
type Chunker interface {
	Strategy() string
	ChunkDocuments(docs []schema.Document, opts Options) ([]Chunk, error)
}

// Registry 策略注册表，按标识分发
type Registry struct {
	chunkers map[string]Chunker
}

func NewRegistry(chunkers ...Chunker) *Registry {
	r := &Registry{chunkers: make(map[string]Chunker)}
	for _, c := range chunkers {
		r.Register(c)
	}
	return r
}

// NewDefaultRegistry 注册全部内置策略
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewRecursiveChunker(),
		NewTOCChunker(),
		NewMarkdownChunker(),
	)
}

func (r *Registry) Register(c Chunker) {
	r.chunkers[c.Strategy()] = c
}

// Get 解析策略标识，未注册时返回配置错误
// 形如 "recursive-1000-200" 的完整标识按首段归一化到基础策略
func (r *Registry) Get(strategy string) (Chunker, error) {
	if c, ok := r.chunkers[strategy]; ok {
		return c, nil
	}
	if base, _, found := strings.Cut(strategy, "-"); found {
		if c, ok := r.chunkers[base]; ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, strategy)
}

func (r *Registry) Has(strategy string) bool {
	_, err := r.Get(strategy)
	return err == nil
}

// pageNumber 提取加载器写入的页码元数据
func pageNumber(doc schema.Document) int {
	switch v := doc.Metadata["page"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func source(doc schema.Document) string {
	if s, ok := doc.Metadata["source"].(string); ok {
		return s
	}
	return ""
}
