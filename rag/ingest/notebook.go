package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/smallnest/docraggo/rag"
)

// NotebookLoader extracts text from a Jupyter notebook. Markdown and code
// cells are included by default, cell outputs are skipped.
type NotebookLoader struct {
	filePath        string
	includeCode     bool
	includeMarkdown bool
	includeOutputs  bool
}

var _ rag.DocumentLoader = (*NotebookLoader)(nil)

// NotebookLoaderOption configures a NotebookLoader.
type NotebookLoaderOption func(*NotebookLoader)

// WithCodeCells toggles inclusion of code cells.
func WithCodeCells(include bool) NotebookLoaderOption {
	return func(l *NotebookLoader) {
		l.includeCode = include
	}
}

// WithMarkdownCells toggles inclusion of markdown cells.
func WithMarkdownCells(include bool) NotebookLoaderOption {
	return func(l *NotebookLoader) {
		l.includeMarkdown = include
	}
}

// WithOutputCells toggles inclusion of cell outputs.
func WithOutputCells(include bool) NotebookLoaderOption {
	return func(l *NotebookLoader) {
		l.includeOutputs = include
	}
}

// NewNotebookLoader creates a loader for the given .ipynb file.
func NewNotebookLoader(filePath string, opts ...NotebookLoaderOption) *NotebookLoader {
	l := &NotebookLoader{
		filePath:        filePath,
		includeCode:     true,
		includeMarkdown: true,
		includeOutputs:  false,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// notebook mirrors the nbformat JSON layout. source may be a string or a
// list of strings depending on the producing tool.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string           `json:"cell_type"`
	Source   json.RawMessage  `json:"source"`
	Outputs  []notebookOutput `json:"outputs"`
}

type notebookOutput struct {
	Text json.RawMessage `json:"text"`
}

// Load flattens the selected cells into one tagged text document.
func (l *NotebookLoader) Load(ctx context.Context) ([]rag.Document, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("read notebook %s: %w", l.filePath, err)
	}

	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook %s: %w", l.filePath, err)
	}

	var sections []string
	for _, cell := range nb.Cells {
		switch cell.CellType {
		case "markdown":
			if !l.includeMarkdown {
				continue
			}
			if content := joinSource(cell.Source); content != "" {
				sections = append(sections, "[MARKDOWN]\n"+content)
			}
		case "code":
			if l.includeCode {
				if content := joinSource(cell.Source); content != "" {
					sections = append(sections, "[CODE]\n"+content)
				}
			}
			if l.includeOutputs {
				for _, output := range cell.Outputs {
					if text := joinSource(output.Text); text != "" {
						sections = append(sections, "[OUTPUT]\n"+text)
					}
				}
			}
		}
	}

	return []rag.Document{{
		ID:      fmt.Sprintf("notebook_%s", l.filePath),
		Content: strings.Join(sections, "\n\n"),
		Metadata: map[string]any{
			"source": l.filePath,
			"type":   "notebook",
			"cells":  len(nb.Cells),
		},
	}}, nil
}

// joinSource handles nbformat's string-or-string-list source encoding.
func joinSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.TrimSpace(strings.Join(lines, ""))
	}

	return ""
}
