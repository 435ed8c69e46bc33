package retriever

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/vectorstores"

	"github.com/smallnest/docraggo/rag"
)

// LangChainRetriever adapts a langchaingo vector store (Chroma, pgvector,
// Weaviate, ...) to the rag.Retriever interface.
type LangChainRetriever struct {
	store vectorstores.VectorStore
	opts  []vectorstores.Option
}

var _ rag.Retriever = (*LangChainRetriever)(nil)

// NewLangChainRetriever creates a retriever over a langchaingo vector store.
// opts are passed through to every similarity search, e.g.
// vectorstores.WithNameSpace for a collection name.
func NewLangChainRetriever(store vectorstores.VectorStore, opts ...vectorstores.Option) *LangChainRetriever {
	return &LangChainRetriever{store: store, opts: opts}
}

// Retrieve runs a similarity search and converts the results to passages.
// Stores that report scores do so through the document metadata; a missing
// score is left as zero rather than guessed.
func (r *LangChainRetriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.Passage, error) {
	docs, err := r.store.SimilaritySearch(ctx, query, topK, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %w", rag.ErrRetrieval, err)
	}

	passages := make([]rag.Passage, len(docs))
	for i, doc := range docs {
		passage := rag.Passage{Text: doc.PageContent, Score: float64(doc.Score)}
		if source, ok := doc.Metadata["source"].(string); ok {
			passage.SourceID = source
		}
		if passage.Score == 0 {
			passage.Score = metadataScore(doc.Metadata)
		}
		passages[i] = passage
	}

	return passages, nil
}

func metadataScore(metadata map[string]any) float64 {
	for _, key := range []string{"_score", "score"} {
		if v, ok := metadata[key]; ok {
			switch f := v.(type) {
			case float64:
				return f
			case float32:
				return float64(f)
			}
		}
	}
	return 0
}
