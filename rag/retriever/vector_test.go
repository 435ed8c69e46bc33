package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/docraggo/rag"
)

// keywordEmbedder maps each known keyword to its own axis, so similarity is
// exact keyword overlap. Deterministic and dependency-free.
type keywordEmbedder struct {
	keywords []string
	err      error
}

func (e *keywordEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, len(e.keywords))
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *keywordEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func indexedStore(t *testing.T, embedder rag.Embedder, docs []rag.Document) *InMemoryVectorStore {
	t.Helper()
	ctx := context.Background()
	store := NewInMemoryVectorStore()

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	embeddings, err := embedder.EmbedTexts(ctx, texts)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, docs, embeddings))
	return store
}

func TestVectorRetrieverRanksByRelevance(t *testing.T) {
	embedder := &keywordEmbedder{keywords: []string{"tensor", "matrix", "graph"}}
	docs := []rag.Document{
		{ID: "d1", Content: "a tensor generalizes a matrix", Metadata: map[string]any{"source": "algebra.md"}},
		{ID: "d2", Content: "a graph has nodes and edges"},
		{ID: "d3", Content: "a tensor has a rank"},
	}
	store := indexedStore(t, embedder, docs)
	retriever := NewVectorRetriever(store, embedder)

	passages, err := retriever.Retrieve(context.Background(), "what is a tensor?", 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	// Both tensor documents outrank the graph document.
	assert.Contains(t, passages[0].Text, "tensor")
	assert.Contains(t, passages[1].Text, "tensor")
	assert.GreaterOrEqual(t, passages[0].Score, passages[1].Score)
}

func TestVectorRetrieverSourceID(t *testing.T) {
	embedder := &keywordEmbedder{keywords: []string{"tensor"}}
	docs := []rag.Document{
		{ID: "d1", Content: "tensor", Metadata: map[string]any{"source": "notes.pdf"}},
		{ID: "d2", Content: "tensor"},
	}
	store := indexedStore(t, embedder, docs)
	retriever := NewVectorRetriever(store, embedder)

	passages, err := retriever.Retrieve(context.Background(), "tensor", 2)
	require.NoError(t, err)

	sources := []string{passages[0].SourceID, passages[1].SourceID}
	assert.Contains(t, sources, "notes.pdf")
	assert.Contains(t, sources, "d2")
}

func TestVectorRetrieverEmptyCorpus(t *testing.T) {
	embedder := &keywordEmbedder{keywords: []string{"x"}}
	retriever := NewVectorRetriever(NewInMemoryVectorStore(), embedder)

	passages, err := retriever.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestVectorRetrieverEmbedderFailure(t *testing.T) {
	embedder := &keywordEmbedder{keywords: []string{"x"}, err: errors.New("api down")}
	retriever := NewVectorRetriever(NewInMemoryVectorStore(), embedder)

	_, err := retriever.Retrieve(context.Background(), "q", 5)
	assert.ErrorIs(t, err, rag.ErrRetrieval)
}

func TestVectorRetrieverInvalidTopK(t *testing.T) {
	embedder := &keywordEmbedder{keywords: []string{"x"}}
	retriever := NewVectorRetriever(NewInMemoryVectorStore(), embedder)

	_, err := retriever.Retrieve(context.Background(), "q", 0)
	assert.ErrorIs(t, err, rag.ErrRetrieval)
	_, err = retriever.Retrieve(context.Background(), "q", -1)
	assert.ErrorIs(t, err, rag.ErrRetrieval)
}
