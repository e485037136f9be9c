package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// FileLoader 按扩展名选择解析方式，加载为带元数据的文档序列
// PDF按页拆分，markdown/文本整体作为单个文档
type FileLoader struct{}

func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

func (l *FileLoader) Load(ctx context.Context, path string) ([]schema.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat document: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %v", err)
	}
	defer file.Close()

	var docs []schema.Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		docs, err = documentloaders.NewPDF(file, info.Size()).Load(ctx)
	case ".md", ".markdown", ".txt":
		docs, err = documentloaders.NewText(file).Load(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %v", path, err)
	}

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]any)
		}
		docs[i].Metadata["source"] = path
	}

	return docs, nil
}
