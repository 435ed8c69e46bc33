package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/docraggo/rag"
)

// stubRetriever returns a fixed passage set and records every query it saw.
type stubRetriever struct {
	passages []rag.Passage
	err      error
	queries  []string
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.Passage, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.passages, nil
}

// stubGrader returns a scripted sequence of grades, repeating the last one.
type stubGrader struct {
	grades []rag.Grade
	err    error
	calls  int
}

func (g *stubGrader) Grade(ctx context.Context, query string, passages []rag.Passage) (rag.Grade, error) {
	g.calls++
	if g.err != nil {
		return rag.GradeUngraded, g.err
	}
	if len(passages) == 0 {
		return rag.GradeIrrelevant, nil
	}
	idx := g.calls - 1
	if idx >= len(g.grades) {
		idx = len(g.grades) - 1
	}
	return g.grades[idx], nil
}

// stubRewriter appends a suffix so each rewrite differs from the last query.
type stubRewriter struct {
	fixed string // when set, always return this exact string
	err   error
	calls int
}

func (r *stubRewriter) Rewrite(ctx context.Context, original, current string, passages []rag.Passage) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	if r.fixed != "" {
		return r.fixed, nil
	}
	return fmt.Sprintf("%s (attempt %d)", original, r.calls), nil
}

type stubGenerator struct {
	answer  string
	err     error
	calls   int
	history []rag.Turn
}

func (g *stubGenerator) Generate(ctx context.Context, query string, passages []rag.Passage, history []rag.Turn) (string, error) {
	g.calls++
	g.history = history
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func threePassages() []rag.Passage {
	return []rag.Passage{
		{Text: "A tensor is a multi-dimensional array.", SourceID: "doc-1", Score: 0.91},
		{Text: "Tensors generalize matrices.", SourceID: "doc-2", Score: 0.88},
		{Text: "Rank counts tensor dimensions.", SourceID: "doc-3", Score: 0.80},
	}
}

func newTestWorkflow(t *testing.T, maxRewrites int, retriever rag.Retriever, grader rag.Grader, rewriter rag.Rewriter, generator rag.Generator) *Workflow {
	t.Helper()
	wf, err := New(Config{TopK: 5, MaxRewrites: maxRewrites}, retriever, grader, rewriter, generator)
	require.NoError(t, err)
	return wf
}

func TestRunRelevantFirstPass(t *testing.T) {
	// Scenario: first retrieval is graded relevant, so exactly one retrieval
	// and one generation happen and the rewrite count stays zero.
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeRelevant}}
	rewriter := &stubRewriter{}
	generator := &stubGenerator{answer: "A tensor is a multi-dimensional array of numbers."}

	wf := newTestWorkflow(t, 2, retriever, grader, rewriter, generator)

	answer, session, err := wf.Run(context.Background(), "What is a tensor?", rag.NewSession())
	require.NoError(t, err)

	assert.Equal(t, generator.answer, answer)
	assert.Len(t, retriever.queries, 1)
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, 0, rewriter.calls)

	require.Equal(t, 1, session.Len())
	turn := session.Turns[0]
	assert.Equal(t, 1, turn.ID)
	assert.Equal(t, rag.StatusAnswered, turn.Status)
	assert.Equal(t, rag.GradeRelevant, turn.Grade)
	assert.Equal(t, 0, turn.RewriteCount)
	assert.Equal(t, "What is a tensor?", turn.OriginalQuery)
	assert.Equal(t, "What is a tensor?", turn.CurrentQuery)
	assert.Len(t, turn.Passages, 3)
}

func TestRunExhaustsRewriteBudget(t *testing.T) {
	// Scenario: retrieval never finds anything, so grading is forced
	// irrelevant every time. With max_rewrites=2 there are 3 retrieval calls
	// and the turn ends EXHAUSTED with a non-empty best-effort answer.
	retriever := &stubRetriever{passages: nil}
	grader := &stubGrader{}
	rewriter := &stubRewriter{}
	generator := &stubGenerator{answer: "I could not find evidence for that in the documents."}

	wf := newTestWorkflow(t, 2, retriever, grader, rewriter, generator)

	answer, session, err := wf.Run(context.Background(), "asdf", rag.NewSession())
	require.NoError(t, err)

	assert.NotEmpty(t, answer)
	assert.Len(t, retriever.queries, 3) // initial + 2 rewrites
	assert.Equal(t, 2, rewriter.calls)
	assert.Equal(t, 1, generator.calls)

	require.Equal(t, 1, session.Len())
	turn := session.Turns[0]
	assert.Equal(t, rag.StatusExhausted, turn.Status)
	assert.Equal(t, 2, turn.RewriteCount)
	assert.Equal(t, "asdf", turn.OriginalQuery)
	assert.NotEqual(t, turn.OriginalQuery, turn.CurrentQuery)
}

func TestRunRelevantAfterRewrite(t *testing.T) {
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeIrrelevant, rag.GradeRelevant}}
	rewriter := &stubRewriter{}
	generator := &stubGenerator{answer: "answer"}

	wf := newTestWorkflow(t, 3, retriever, grader, rewriter, generator)

	_, session, err := wf.Run(context.Background(), "tensors?", rag.NewSession())
	require.NoError(t, err)

	assert.Len(t, retriever.queries, 2)
	turn := session.Turns[0]
	assert.Equal(t, rag.StatusAnswered, turn.Status)
	assert.Equal(t, 1, turn.RewriteCount)
	assert.Equal(t, "tensors? (attempt 1)", turn.CurrentQuery)
}

func TestRunEmptyQuery(t *testing.T) {
	retriever := &stubRetriever{}
	wf := newTestWorkflow(t, 2, retriever, &stubGrader{}, &stubRewriter{}, &stubGenerator{answer: "x"})

	for _, query := range []string{"", "   ", "\n\t"} {
		_, session, err := wf.Run(context.Background(), query, rag.NewSession())
		assert.ErrorIs(t, err, rag.ErrInvalidInput)
		assert.Equal(t, 0, session.Len())
	}
	assert.Empty(t, retriever.queries, "no retrieval call may happen for an empty query")
}

func TestRunRetrievalFailure(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("connection refused")}
	wf := newTestWorkflow(t, 2, retriever, &stubGrader{}, &stubRewriter{}, &stubGenerator{answer: "x"})

	session := rag.NewSession()
	_, updated, err := wf.Run(context.Background(), "anything", session)

	assert.ErrorIs(t, err, rag.ErrRetrieval)
	assert.Equal(t, 0, updated.Len(), "no turn may be appended on retrieval failure")
}

func TestRunGenerationFailure(t *testing.T) {
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeRelevant}}
	generator := &stubGenerator{err: fmt.Errorf("%w: rate limited", rag.ErrGeneration)}

	wf := newTestWorkflow(t, 2, retriever, grader, &stubRewriter{}, generator)

	_, updated, err := wf.Run(context.Background(), "q", rag.NewSession())
	assert.ErrorIs(t, err, rag.ErrGeneration)
	assert.Equal(t, 0, updated.Len())
}

func TestRunGradingFailureDegrades(t *testing.T) {
	// A grading failure routes straight to generation, best effort.
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{err: fmt.Errorf("%w: timeout", rag.ErrGrading)}
	rewriter := &stubRewriter{}
	generator := &stubGenerator{answer: "best effort"}

	wf := newTestWorkflow(t, 2, retriever, grader, rewriter, generator)

	answer, session, err := wf.Run(context.Background(), "q", rag.NewSession())
	require.NoError(t, err)

	assert.Equal(t, "best effort", answer)
	assert.Len(t, retriever.queries, 1)
	assert.Equal(t, 0, rewriter.calls)
	assert.Equal(t, rag.StatusExhausted, session.Turns[0].Status)
}

func TestRunNoOpRewriteGuard(t *testing.T) {
	// A rewriter that echoes the current query back must not loop: the
	// workflow proceeds to generation without incrementing the count.
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeIrrelevant}}
	rewriter := &stubRewriter{fixed: "same question"}
	generator := &stubGenerator{answer: "degraded answer"}

	wf := newTestWorkflow(t, 5, retriever, grader, rewriter, generator)

	_, session, err := wf.Run(context.Background(), "same question", rag.NewSession())
	require.NoError(t, err)

	assert.Len(t, retriever.queries, 1)
	assert.Equal(t, 1, rewriter.calls)
	turn := session.Turns[0]
	assert.Equal(t, 0, turn.RewriteCount)
	assert.Equal(t, rag.StatusExhausted, turn.Status)
	assert.Equal(t, "degraded answer", turn.Answer)
}

func TestRunRewriteFailureDegrades(t *testing.T) {
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeIrrelevant}}
	rewriter := &stubRewriter{err: fmt.Errorf("%w: empty", rag.ErrRewrite)}
	generator := &stubGenerator{answer: "degraded"}

	wf := newTestWorkflow(t, 5, retriever, grader, rewriter, generator)

	answer, session, err := wf.Run(context.Background(), "q", rag.NewSession())
	require.NoError(t, err)

	assert.Equal(t, "degraded", answer)
	assert.Len(t, retriever.queries, 1)
	assert.Equal(t, rag.StatusExhausted, session.Turns[0].Status)
}

func TestRunZeroRewriteBudget(t *testing.T) {
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeIrrelevant}}
	rewriter := &stubRewriter{}
	generator := &stubGenerator{answer: "best effort"}

	wf := newTestWorkflow(t, 0, retriever, grader, rewriter, generator)

	_, session, err := wf.Run(context.Background(), "q", rag.NewSession())
	require.NoError(t, err)

	assert.Len(t, retriever.queries, 1)
	assert.Equal(t, 0, rewriter.calls)
	assert.Equal(t, rag.StatusExhausted, session.Turns[0].Status)
}

func TestRunIsIdempotentWithDeterministicStubs(t *testing.T) {
	run := func() (string, rag.Session) {
		retriever := &stubRetriever{passages: threePassages()}
		grader := &stubGrader{grades: []rag.Grade{rag.GradeRelevant}}
		generator := &stubGenerator{answer: "deterministic answer"}
		wf := newTestWorkflow(t, 2, retriever, grader, &stubRewriter{}, generator)

		answer, session, err := wf.Run(context.Background(), "q", rag.Session{ID: "fixed"})
		require.NoError(t, err)
		return answer, session
	}

	answer1, session1 := run()
	answer2, session2 := run()

	assert.Equal(t, answer1, answer2)
	assert.Equal(t, session1.Len(), session2.Len())
	assert.Equal(t, 1, session1.Len())
	assert.Equal(t, session1.Turns, session2.Turns)
}

func TestRunDoesNotMutateInputSession(t *testing.T) {
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeRelevant}}
	generator := &stubGenerator{answer: "first"}
	wf := newTestWorkflow(t, 2, retriever, grader, &stubRewriter{}, generator)

	session := rag.NewSession()
	_, updated, err := wf.Run(context.Background(), "first question", session)
	require.NoError(t, err)

	assert.Equal(t, 0, session.Len(), "input session must stay untouched")
	assert.Equal(t, 1, updated.Len())
}

func TestRunPassesHistoryToGenerator(t *testing.T) {
	retriever := &stubRetriever{passages: threePassages()}
	grader := &stubGrader{grades: []rag.Grade{rag.GradeRelevant}}
	generator := &stubGenerator{answer: "a"}
	wf := newTestWorkflow(t, 2, retriever, grader, &stubRewriter{}, generator)

	session := rag.NewSession()
	_, session, err := wf.Run(context.Background(), "first", session)
	require.NoError(t, err)
	assert.Empty(t, generator.history)

	_, session, err = wf.Run(context.Background(), "second", session)
	require.NoError(t, err)

	require.Len(t, generator.history, 1)
	assert.Equal(t, "first", generator.history[0].OriginalQuery)
	assert.Equal(t, 2, session.Len())
	assert.Equal(t, 2, session.Turns[1].ID)
}

func TestNewValidatesConfig(t *testing.T) {
	retriever := &stubRetriever{}
	grader := &stubGrader{}
	rewriter := &stubRewriter{}
	generator := &stubGenerator{}

	_, err := New(Config{TopK: 0, MaxRewrites: 2}, retriever, grader, rewriter, generator)
	assert.Error(t, err)

	_, err = New(Config{TopK: 5, MaxRewrites: -1}, retriever, grader, rewriter, generator)
	assert.Error(t, err)

	_, err = New(Config{TopK: 5, MaxRewrites: 2}, nil, grader, rewriter, generator)
	assert.Error(t, err)
}
