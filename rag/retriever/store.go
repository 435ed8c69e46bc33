package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/smallnest/docraggo/rag"
)

// InMemoryVectorStore is a thread-safe in-memory vector store using exact
// cosine similarity. It is meant for tests, examples and small corpora; a
// real deployment plugs in an external store behind the same interface.
type InMemoryVectorStore struct {
	mu         sync.RWMutex
	documents  []rag.Document
	embeddings [][]float32
}

var _ rag.VectorStore = (*InMemoryVectorStore)(nil)

// NewInMemoryVectorStore creates an empty in-memory vector store.
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{}
}

// Add stores documents with their precomputed embeddings.
func (s *InMemoryVectorStore) Add(ctx context.Context, docs []rag.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings must have same length: %d != %d", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, docs...)
	s.embeddings = append(s.embeddings, embeddings...)
	return nil
}

// Search returns the k nearest documents by cosine similarity, descending.
func (s *InMemoryVectorStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 {
		return []rag.SearchResult{}, nil
	}

	results := make([]rag.SearchResult, len(s.documents))
	for i, docEmb := range s.embeddings {
		results[i] = rag.SearchResult{
			Document: s.documents[i],
			Score:    cosineSimilarity(queryEmbedding, docEmb),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored documents.
func (s *InMemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched or zero-norm vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
