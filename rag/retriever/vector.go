// Package retriever provides rag.Retriever implementations backed by vector
// similarity search.
package retriever

import (
	"context"
	"fmt"

	"github.com/smallnest/docraggo/rag"
)

// VectorRetriever retrieves passages by embedding the query and running a
// nearest-neighbor search against a vector store.
type VectorRetriever struct {
	store    rag.VectorStore
	embedder rag.Embedder
}

var _ rag.Retriever = (*VectorRetriever)(nil)

// NewVectorRetriever creates a retriever over the given store and embedder.
func NewVectorRetriever(store rag.VectorStore, embedder rag.Embedder) *VectorRetriever {
	return &VectorRetriever{store: store, embedder: embedder}
}

// Retrieve returns up to topK passages ranked by descending similarity.
// Fewer than topK matches is not an error; zero matches returns an empty
// slice. Embedding and search failures are reported as rag.ErrRetrieval.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.Passage, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", rag.ErrRetrieval, topK)
	}

	queryEmbedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", rag.ErrRetrieval, err)
	}

	results, err := r.store.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", rag.ErrRetrieval, err)
	}

	passages := make([]rag.Passage, len(results))
	for i, res := range results {
		passages[i] = rag.Passage{
			Text:     res.Document.Content,
			SourceID: sourceID(res.Document),
			Score:    res.Score,
		}
	}

	return passages, nil
}

// sourceID prefers the document's source metadata over its internal ID so
// answers can cite the originating file.
func sourceID(doc rag.Document) string {
	if doc.Metadata != nil {
		if source, ok := doc.Metadata["source"].(string); ok && source != "" {
			return source
		}
	}
	return doc.ID
}
