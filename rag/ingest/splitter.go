// Package ingest turns source files into chunked, metadata-carrying
// documents ready for embedding and indexing.
package ingest

import (
	"fmt"
	"maps"
	"strings"

	"github.com/smallnest/docraggo/rag"
)

// Default chunking parameters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// RecursiveCharacterTextSplitter splits text on a separator hierarchy,
// falling back to finer separators until chunks fit the size limit.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
}

var _ rag.TextSplitter = (*RecursiveCharacterTextSplitter)(nil)

// SplitterOption configures a RecursiveCharacterTextSplitter.
type SplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap carried between consecutive chunks.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators replaces the separator hierarchy.
func WithSeparators(separators []string) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// NewRecursiveCharacterTextSplitter creates a splitter with paragraph, line,
// word and character separators.
func NewRecursiveCharacterTextSplitter(opts ...SplitterOption) *RecursiveCharacterTextSplitter {
	s := &RecursiveCharacterTextSplitter{
		separators:   []string{"\n\n", "\n", " ", ""},
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 5
	}
	return s
}

// SplitText splits text into chunks of at most the configured size.
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, s.separators)
}

// SplitDocuments splits each document, stamping chunk index and parent ID
// into the chunk metadata.
func (s *RecursiveCharacterTextSplitter) SplitDocuments(docs []rag.Document) []rag.Document {
	var chunks []rag.Document
	for _, doc := range docs {
		pieces := s.SplitText(doc.Content)
		for i, piece := range pieces {
			metadata := make(map[string]any, len(doc.Metadata)+3)
			maps.Copy(metadata, doc.Metadata)
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(pieces)
			metadata["parent_id"] = doc.ID

			chunks = append(chunks, rag.Document{
				ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Content:  piece,
				Metadata: metadata,
			})
		}
	}
	return chunks
}

func (s *RecursiveCharacterTextSplitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return s.splitByWidth(text)
	}

	separator := separators[0]
	rest := separators[1:]
	if separator == "" {
		return s.splitByWidth(text)
	}

	var pieces []string
	for _, part := range strings.Split(text, separator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(part) <= s.chunkSize {
			pieces = append(pieces, part)
		} else {
			pieces = append(pieces, s.split(part, rest)...)
		}
	}

	return s.merge(pieces, separator)
}

// merge packs adjacent pieces back together up to the chunk size, keeping a
// tail of the previous chunk as overlap.
func (s *RecursiveCharacterTextSplitter) merge(pieces []string, separator string) []string {
	var chunks []string
	var current string

	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		joined := current + separator + piece
		if len(joined) <= s.chunkSize {
			current = joined
			continue
		}

		chunks = append(chunks, current)
		current = piece
		if s.chunkOverlap > 0 && len(chunks[len(chunks)-1]) > s.chunkOverlap {
			tail := chunks[len(chunks)-1]
			withOverlap := tail[len(tail)-s.chunkOverlap:] + separator + piece
			if len(withOverlap) <= s.chunkSize {
				current = withOverlap
			}
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitByWidth is the last resort: fixed-width slices with overlap.
func (s *RecursiveCharacterTextSplitter) splitByWidth(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
