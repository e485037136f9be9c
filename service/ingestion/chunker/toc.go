package chunker

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
)

// 默认的标题匹配模式，按优先级排列：markdown标题、编号标题、全大写行
var defaultHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^#{1,6}\s+(.+)$`),
	regexp.MustCompile(`^\d+(?:\.\d+)*\.?\s+(\S.{2,78})$`),
	regexp.MustCompile(`^([A-Z][A-Z0-9 ,:&'\-]{3,78})$`),
}

var (
	markdownHeaderRe = regexp.MustCompile(`^(#+)\s`)
	paragraphSplitRe = regexp.MustCompile(`\n\n+`)
	uppercaseRe      = regexp.MustCompile(`[A-Z]`)
)

// tocSection 标题与归属其下的正文
type tocSection struct {
	title     string
	content   string
	startPage int
	level     int
}

// TOCChunker 目录感知分块：按标题切出章节，超限章节按段落拆分，
// 过小章节可选合并
type TOCChunker struct{}

var _ Chunker = &TOCChunker{}

func NewTOCChunker() *TOCChunker {
	return &TOCChunker{}
}

func (c *TOCChunker) Strategy() string {
	return StrategyTOC
}

func (c *TOCChunker) ChunkDocuments(docs []schema.Document, opts Options) ([]Chunk, error) {
	if len(docs) == 0 {
		return []Chunk{}, nil
	}

	maxChunkSize := opts.TOC.MaxChunkSize
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultTOCMaxChunkSize
	}
	minChunkSize := opts.TOC.MinChunkSize
	if minChunkSize <= 0 {
		minChunkSize = DefaultTOCMinChunkSize
	}
	combineSmall := true
	if opts.TOC.CombineSmallSections != nil {
		combineSmall = *opts.TOC.CombineSmallSections
	}
	patterns := opts.TOC.HeaderPatterns
	if len(patterns) == 0 {
		patterns = defaultHeaderPatterns
	}

	sections := extractSections(docs, patterns)
	slog.Debug("extracted toc sections", "sections_num", len(sections))

	sections = processSections(sections, maxChunkSize, minChunkSize, combineSmall)
	slog.Debug("processed toc sections", "chunks_num", len(sections))

	chunks := make([]Chunk, 0, len(sections))
	for i, section := range sections {
		chunks = append(chunks, Chunk{
			ID:      uuid.NewString(),
			Content: section.content,
			Metadata: Metadata{
				Source:       source(docs[0]),
				ChunkIndex:   i,
				PageNumber:   section.startPage,
				Strategy:     StrategyTOC,
				SectionTitle: section.title,
				SectionLevel: section.level,
			},
		})
	}

	return chunks, nil
}

// extractSections 逐行扫描，标题行开启新章节，正文归属前一个标题
// 首个标题之前的内容没有归属，丢弃
func extractSections(docs []schema.Document, patterns []*regexp.Regexp) []tocSection {
	var sections []tocSection

	for _, doc := range docs {
		page := pageNumber(doc)
		lines := strings.Split(doc.PageContent, "\n")

		var current *tocSection
		var buffer []string

		for _, line := range lines {
			title, level, ok := matchHeader(line, patterns)
			if ok {
				if current != nil && len(buffer) > 0 {
					current.content = strings.TrimSpace(strings.Join(buffer, "\n"))
					sections = append(sections, *current)
				}
				current = &tocSection{
					title:     title,
					startPage: page,
					level:     level,
				}
				buffer = []string{line}
			} else if current != nil {
				buffer = append(buffer, line)
			}
		}

		if current != nil && len(buffer) > 0 {
			current.content = strings.TrimSpace(strings.Join(buffer, "\n"))
			sections = append(sections, *current)
		}
	}

	return sections
}

// matchHeader 按优先级尝试各模式，首个命中生效
func matchHeader(line string, patterns []*regexp.Regexp) (title string, level int, ok bool) {
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		title = strings.TrimSpace(line)
		if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			title = strings.TrimSpace(m[1])
		}
		return title, detectHeaderLevel(line), true
	}
	return "", 0, false
}

// detectHeaderLevel markdown标题按#数量定级；
// 否则大写字母占比超过0.7视为一级标题，其余为二级
func detectHeaderLevel(line string) int {
	if m := markdownHeaderRe.FindStringSubmatch(line); m != nil {
		return len(m[1])
	}

	if len(line) > 0 {
		upper := len(uppercaseRe.FindAllString(line, -1))
		if float64(upper)/float64(len(line)) > 0.7 {
			return 1
		}
	}
	return 2
}

func processSections(sections []tocSection, maxChunkSize, minChunkSize int, combineSmall bool) []tocSection {
	var processed []tocSection

	for _, section := range sections {
		if len(section.content) > maxChunkSize {
			processed = append(processed, splitLargeSection(section, maxChunkSize)...)
		} else {
			processed = append(processed, section)
		}
	}

	if combineSmall {
		return combineSmallSections(processed, minChunkSize, maxChunkSize)
	}

	var kept []tocSection
	for _, section := range processed {
		if len(section.content) >= minChunkSize {
			kept = append(kept, section)
		}
	}
	return kept
}

// splitLargeSection 按空行分隔的段落贪心打包，各部分标题追加 "(Part N)"
func splitLargeSection(section tocSection, maxSize int) []tocSection {
	var parts []tocSection
	paragraphs := paragraphSplitRe.Split(section.content, -1)

	var current strings.Builder
	partIndex := 0

	for _, paragraph := range paragraphs {
		if current.Len()+len(paragraph) > maxSize && current.Len() > 0 {
			parts = append(parts, tocSection{
				title:     fmt.Sprintf("%s (Part %d)", section.title, partIndex+1),
				content:   strings.TrimSpace(current.String()),
				startPage: section.startPage,
				level:     section.level,
			})
			current.Reset()
			partIndex++
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}

	if strings.TrimSpace(current.String()) != "" {
		title := section.title
		if len(parts) > 0 {
			title = fmt.Sprintf("%s (Part %d)", section.title, partIndex+1)
		}
		parts = append(parts, tocSection{
			title:     title,
			content:   strings.TrimSpace(current.String()),
			startPage: section.startPage,
			level:     section.level,
		})
	}

	return parts
}

// combineSmallSections 过小章节先缓冲，攒够 minSize 或超过 maxSize/2 时合并落盘
func combineSmallSections(sections []tocSection, minSize, maxSize int) []tocSection {
	var combined []tocSection
	var buffer []tocSection
	bufferSize := 0

	for _, section := range sections {
		if len(section.content) >= minSize {
			if len(buffer) > 0 {
				combined = append(combined, mergeBufferedSections(buffer))
				buffer = nil
				bufferSize = 0
			}
			combined = append(combined, section)
			continue
		}

		buffer = append(buffer, section)
		bufferSize += len(section.content)

		if bufferSize >= minSize || bufferSize > maxSize/2 {
			combined = append(combined, mergeBufferedSections(buffer))
			buffer = nil
			bufferSize = 0
		}
	}

	if len(buffer) > 0 {
		combined = append(combined, mergeBufferedSections(buffer))
	}

	return combined
}

// mergeBufferedSections 合并标题逗号拼接，级别取最小值，
// 各子章节正文前保留自身标题
func mergeBufferedSections(sections []tocSection) tocSection {
	titles := make([]string, 0, len(sections))
	contents := make([]string, 0, len(sections))
	level := sections[0].level

	for _, section := range sections {
		titles = append(titles, section.title)
		contents = append(contents, fmt.Sprintf("## %s\n\n%s", section.title, section.content))
		if section.level < level {
			level = section.level
		}
	}

	return tocSection{
		title:     strings.Join(titles, ", "),
		content:   strings.Join(contents, "\n\n"),
		startPage: sections[0].startPage,
		level:     level,
	}
}
