package rag

import "errors"

var (
	// ErrInvalidInput is returned when the incoming query is empty after
	// trimming. It is rejected before any external call.
	ErrInvalidInput = errors.New("invalid input: query is empty")

	// ErrRetrieval is returned when the vector store call fails. It is fatal
	// to the turn: the workflow does not retry retrieval internally.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGrading is returned when the grading model call fails or produces a
	// malformed verdict. The workflow absorbs it and degrades the turn to a
	// best-effort EXHAUSTED answer.
	ErrGrading = errors.New("grading failed")

	// ErrRewrite is returned when the rewriting model returns empty or
	// whitespace-only text. The workflow absorbs it via the no-op guard.
	ErrRewrite = errors.New("rewrite failed")

	// ErrGeneration is returned when the answer model call fails. It is the
	// one failure the workflow cannot route around.
	ErrGeneration = errors.New("generation failed")

	// ErrModel is the underlying LLM boundary failure: API error, rate limit,
	// or malformed response.
	ErrModel = errors.New("model call failed")
)
