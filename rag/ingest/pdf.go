package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/smallnest/docraggo/rag"
)

// PDFLoader extracts the plain text of a PDF file as one document.
type PDFLoader struct {
	filePath string
}

var _ rag.DocumentLoader = (*PDFLoader)(nil)

// NewPDFLoader creates a loader for the given PDF file.
func NewPDFLoader(filePath string) *PDFLoader {
	return &PDFLoader{filePath: filePath}
}

// Load extracts the text layer of the PDF. Image-only PDFs yield an empty
// document; OCR is out of scope.
func (l *PDFLoader) Load(ctx context.Context) ([]rag.Document, error) {
	f, r, err := pdf.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", l.filePath, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text %s: %w", l.filePath, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("read pdf text %s: %w", l.filePath, err)
	}

	return []rag.Document{{
		ID:      fmt.Sprintf("pdf_%s", l.filePath),
		Content: strings.TrimSpace(buf.String()),
		Metadata: map[string]any{
			"source": l.filePath,
			"type":   "pdf",
			"pages":  r.NumPage(),
		},
	}}, nil
}
