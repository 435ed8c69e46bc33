package ingest

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/smallnest/docraggo/rag"
)

// TextLoader loads a plain-text file as a single document.
type TextLoader struct {
	filePath string
	metadata map[string]any
}

var _ rag.DocumentLoader = (*TextLoader)(nil)

// TextLoaderOption configures a TextLoader.
type TextLoaderOption func(*TextLoader)

// WithTextMetadata merges additional metadata into loaded documents.
func WithTextMetadata(metadata map[string]any) TextLoaderOption {
	return func(l *TextLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// NewTextLoader creates a loader for the given file.
func NewTextLoader(filePath string, opts ...TextLoaderOption) *TextLoader {
	l := &TextLoader{
		filePath: filePath,
		metadata: map[string]any{
			"source": filePath,
			"type":   "text",
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the whole file into one document.
func (l *TextLoader) Load(ctx context.Context) ([]rag.Document, error) {
	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.filePath, err)
	}

	metadata := make(map[string]any, len(l.metadata))
	maps.Copy(metadata, l.metadata)

	return []rag.Document{{
		ID:       fmt.Sprintf("text_%s", l.filePath),
		Content:  string(content),
		Metadata: metadata,
	}}, nil
}
