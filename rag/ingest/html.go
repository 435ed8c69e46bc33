package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/smallnest/docraggo/rag"
)

// HTMLLoader extracts the visible text of an HTML file as one document.
type HTMLLoader struct {
	filePath string
}

var _ rag.DocumentLoader = (*HTMLLoader)(nil)

// NewHTMLLoader creates a loader for the given HTML file.
func NewHTMLLoader(filePath string) *HTMLLoader {
	return &HTMLLoader{filePath: filePath}
}

// Load parses the HTML, drops scripts and styles, and returns the body text.
func (l *HTMLLoader) Load(ctx context.Context) ([]rag.Document, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("open html %s: %w", l.filePath, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", l.filePath, err)
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var sections []string
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		sections = append(sections, body.Text())
	})
	if len(sections) == 0 {
		sections = append(sections, doc.Text())
	}

	content := normalizeWhitespace(strings.Join(sections, "\n"))

	metadata := map[string]any{
		"source": l.filePath,
		"type":   "html",
	}
	if title != "" {
		metadata["title"] = title
	}

	return []rag.Document{{
		ID:       fmt.Sprintf("html_%s", l.filePath),
		Content:  content,
		Metadata: metadata,
	}}, nil
}

// normalizeWhitespace collapses intra-line whitespace and blank-line runs.
func normalizeWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
