package ingest

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/docraggo/rag"
)

// MarkdownLoader loads a markdown file as plain text: the markup is rendered
// and stripped so headings, links and emphasis don't pollute the chunks.
type MarkdownLoader struct {
	filePath string
}

var _ rag.DocumentLoader = (*MarkdownLoader)(nil)

// NewMarkdownLoader creates a loader for the given markdown file.
func NewMarkdownLoader(filePath string) *MarkdownLoader {
	return &MarkdownLoader{filePath: filePath}
}

// Load renders the markdown and strips all tags, yielding one document.
func (l *MarkdownLoader) Load(ctx context.Context) ([]rag.Document, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("read markdown %s: %w", l.filePath, err)
	}

	return []rag.Document{{
		ID:      fmt.Sprintf("markdown_%s", l.filePath),
		Content: markdownToText(data),
		Metadata: map[string]any{
			"source": l.filePath,
			"type":   "markdown",
		},
	}}, nil
}

// markdownToText renders markdown to HTML and strips every tag, leaving the
// textual content with paragraph structure intact.
func markdownToText(source []byte) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(source)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.Render(doc, renderer)

	stripped := bluemonday.StrictPolicy().SanitizeBytes(rendered)
	text := html.UnescapeString(string(stripped))

	// Collapse the blank-line runs left behind by stripped block elements.
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
