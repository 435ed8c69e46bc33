// Package rag defines the domain model of the agentic RAG document chat:
// passages, turns, sessions, the component interfaces (Retriever, Grader,
// Rewriter, Generator) and the error taxonomy shared by the workflow and its
// collaborators.
//
// The packages underneath implement the components:
//
//   - rag/workflow: the self-correcting retrieval/grade/rewrite/generate loop
//   - rag/retriever: vector-store retrieval adapters and embedders
//   - rag/ingest: document loaders and text splitting for index building
//
// A minimal end-to-end assembly:
//
//	retriever := retriever.NewVectorRetriever(store, embedder)
//	wf, _ := workflow.New(workflow.Config{TopK: 5, MaxRewrites: 2},
//		retriever,
//		workflow.NewLLMGrader(model, "gpt-4o-mini"),
//		workflow.NewLLMRewriter(model, "gpt-4o-mini"),
//		workflow.NewLLMGenerator(model, "gpt-4o-mini", 0))
//
//	answer, session, err := wf.Run(ctx, "What is a tensor?", rag.NewSession())
package rag // import "github.com/smallnest/docraggo/rag"
