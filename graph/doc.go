// Package graph provides a small sequential state-graph engine: named nodes,
// static and conditional edges, and an Invoke loop that threads a state value
// from the entry point to END. It is the substrate the RAG workflow's state
// machine is built on.
package graph // import "github.com/smallnest/docraggo/graph"
