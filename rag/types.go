package rag

import "context"

// Grade is the relevance verdict produced by a Grader for a set of
// retrieved passages.
type Grade int

const (
	// GradeUngraded means the passages have not been graded yet.
	GradeUngraded Grade = iota
	// GradeRelevant means the passages are sufficient to answer the query.
	GradeRelevant
	// GradeIrrelevant means the passages do not answer the query.
	GradeIrrelevant
)

// String returns the string representation of a Grade.
func (g Grade) String() string {
	switch g {
	case GradeRelevant:
		return "RELEVANT"
	case GradeIrrelevant:
		return "IRRELEVANT"
	default:
		return "UNGRADED"
	}
}

// Status is the lifecycle state of a Turn. Status only moves forward:
// PENDING -> ANSWERED or PENDING -> EXHAUSTED.
type Status int

const (
	// StatusPending means the turn is still being processed.
	StatusPending Status = iota
	// StatusAnswered means the turn completed with relevant evidence.
	StatusAnswered
	// StatusExhausted means the rewrite budget ran out (or grading/rewriting
	// failed) and the answer is best-effort.
	StatusExhausted
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusAnswered:
		return "ANSWERED"
	case StatusExhausted:
		return "EXHAUSTED"
	default:
		return "PENDING"
	}
}

// Passage is a unit of retrieved evidence. Passages are immutable once
// retrieved: higher Score means more relevant.
type Passage struct {
	Text     string  `json:"text"`
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
}

// Turn is one query-to-answer exchange, possibly spanning multiple internal
// retrieval/rewrite iterations. A Turn is mutated in place by the workflow
// and finalized before being appended to a Session.
type Turn struct {
	ID            int       `json:"id"`
	OriginalQuery string    `json:"original_query"`
	CurrentQuery  string    `json:"current_query"`
	Passages      []Passage `json:"passages,omitempty"`
	Grade         Grade     `json:"grade"`
	RewriteCount  int       `json:"rewrite_count"`
	Answer        string    `json:"answer,omitempty"`
	Status        Status    `json:"status"`
}

// Document is a unit of ingested source content, the input side of the
// searchable index the retriever consumes.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Retriever fetches ranked passages for a query from an external index.
// Implementations wrap failures in ErrRetrieval.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Passage, error)
}

// Grader classifies whether a passage set is sufficient to answer a query.
// An empty passage set is graded GradeIrrelevant without any model call.
type Grader interface {
	Grade(ctx context.Context, query string, passages []Passage) (Grade, error)
}

// Rewriter reformulates a query that failed grading. It never returns an
// empty string: a blank model response is reported as ErrRewrite.
type Rewriter interface {
	Rewrite(ctx context.Context, original, current string, passages []Passage) (string, error)
}

// Generator produces the final answer from a query, its supporting passages,
// and the prior turns of the session. It must produce an answer even when
// passages is empty.
type Generator interface {
	Generate(ctx context.Context, query string, passages []Passage, history []Turn) (string, error)
}

// DocumentLoader loads documents from a source (file, URL, ...).
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// TextSplitter splits documents into smaller chunks for indexing.
type TextSplitter interface {
	SplitText(text string) []string
	SplitDocuments(docs []Document) []Document
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore stores document embeddings and performs nearest-neighbor search.
type VectorStore interface {
	Add(ctx context.Context, docs []Document, embeddings [][]float32) error
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error)
}

// SearchResult is a document returned by a vector store search with its
// similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}
