package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/smallnest/docraggo/log"
	"github.com/smallnest/docraggo/rag"
)

// Processor routes files to the right loader by extension and splits the
// loaded documents into chunks.
type Processor struct {
	splitter rag.TextSplitter
	logger   log.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithSplitter replaces the default recursive splitter.
func WithSplitter(splitter rag.TextSplitter) ProcessorOption {
	return func(p *Processor) {
		p.splitter = splitter
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(logger log.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a processor with the default chunking parameters.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		splitter: NewRecursiveCharacterTextSplitter(),
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoaderFor returns the loader for the file's extension, or nil for an
// unsupported type.
func LoaderFor(filePath string) rag.DocumentLoader {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return NewPDFLoader(filePath)
	case ".ipynb":
		return NewNotebookLoader(filePath)
	case ".md", ".markdown":
		return NewMarkdownLoader(filePath)
	case ".html", ".htm":
		return NewHTMLLoader(filePath)
	case ".txt", ".text":
		return NewTextLoader(filePath)
	default:
		return nil
	}
}

// ProcessFile loads one file and returns its chunks.
func (p *Processor) ProcessFile(ctx context.Context, filePath string) ([]rag.Document, error) {
	loader := LoaderFor(filePath)
	if loader == nil {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
	}

	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	chunks := p.splitter.SplitDocuments(docs)
	p.logger.Debug("processed %s: %d chunks", filePath, len(chunks))
	return chunks, nil
}

// ProcessDir walks a directory tree and processes every supported file.
// Unsupported files are skipped, a failing file aborts the walk.
func (p *Processor) ProcessDir(ctx context.Context, dir string) ([]rag.Document, error) {
	var all []rag.Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || LoaderFor(path) == nil {
			return nil
		}

		chunks, err := p.ProcessFile(ctx, path)
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("processed directory %s: %d chunks", dir, len(all))
	return all, nil
}
