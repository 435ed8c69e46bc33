// Package workflow implements the agentic RAG control loop: a per-turn state
// machine that retrieves passages, grades their relevance, rewrites the query
// within a bounded budget when evidence is insufficient, and generates the
// final answer with conversational grounding.
//
// The loop always makes forward progress: grading failures, rewrite failures
// and no-op rewrites all degrade to a best-effort answer with the turn marked
// EXHAUSTED, never to an infinite loop or a silent hang. Only retrieval and
// generation failures (and a blank query) surface as errors from Run.
package workflow // import "github.com/smallnest/docraggo/rag/workflow"
