// Docraggo - Agentic Retrieval-Augmented Question Answering in Go
//
// Docraggo answers questions over a private document corpus with a
// self-correcting retrieval loop: retrieved passages are graded for
// relevance, insufficient queries are rewritten and retried within a
// bounded budget, and the final answer is generated with conversational
// grounding from prior turns.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/docraggo
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/tmc/langchaingo/llms/openai"
//
//		"github.com/smallnest/docraggo/rag"
//		"github.com/smallnest/docraggo/rag/retriever"
//		"github.com/smallnest/docraggo/rag/workflow"
//	)
//
//	func main() {
//		llm, _ := openai.New()
//
//		embedder := retriever.NewOpenAIEmbedder("sk-...", "")
//		store := retriever.NewInMemoryVectorStore()
//		// index documents into store, then:
//
//		wf, _ := workflow.NewWithModel(workflow.Config{
//			TopK:        5,
//			MaxRewrites: 2,
//		}, retriever.NewVectorRetriever(store, embedder), llm)
//
//		answer, session, _ := wf.Run(context.Background(),
//			"what is a tensor?", rag.NewSession())
//		fmt.Println(answer, session.Len())
//	}
//
// # Packages
//
//   - rag: core domain types and component interfaces
//   - rag/workflow: the retrieve-grade-rewrite-generate control loop
//   - rag/retriever: vector retrieval over in-memory or external stores
//   - rag/ingest: document loading (text, PDF, notebooks, markdown, HTML)
//     and chunking
//   - memory: session persistence (in-memory, Redis, SQLite, Postgres)
//   - graph: the small state machine engine the workflow runs on
//   - config: YAML configuration with environment overrides
package docraggo
