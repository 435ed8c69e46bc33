package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/docraggo/graph"
	"github.com/smallnest/docraggo/log"
	"github.com/smallnest/docraggo/rag"
)

// Node names of the workflow state machine.
const (
	nodeRetrieve = "retrieve"
	nodeGrade    = "grade"
	nodeRewrite  = "rewrite"
	nodeGenerate = "generate"
)

// Config is the immutable configuration for one workflow instance.
type Config struct {
	// TopK is how many passages to request per retrieval. Must be > 0.
	TopK int

	// MaxRewrites bounds the rewrite loop. Must be >= 0.
	MaxRewrites int

	// Model identifiers for the three LLM-backed components, used by
	// NewWithModel. Empty means the model's default.
	GraderModel    string
	RewriterModel  string
	GeneratorModel string

	// Temperature for answer generation. Grading and rewriting always run
	// at temperature 0.
	Temperature float64
}

// Workflow drives the agentic retrieval loop for one query at a time:
// retrieve, grade, conditionally rewrite-and-retry within the rewrite
// budget, then generate.
//
// A Workflow is safe for concurrent use across independent sessions, but a
// single session must not have two Run calls in flight at once; serializing
// per-session calls is the caller's responsibility.
type Workflow struct {
	cfg       Config
	retriever rag.Retriever
	grader    rag.Grader
	rewriter  rag.Rewriter
	generator rag.Generator
	logger    log.Logger
	runnable  *graph.Runnable
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the workflow logger.
func WithLogger(logger log.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New creates a Workflow from explicitly provided components.
func New(cfg Config, retriever rag.Retriever, grader rag.Grader, rewriter rag.Rewriter, generator rag.Generator, opts ...Option) (*Workflow, error) {
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", cfg.TopK)
	}
	if cfg.MaxRewrites < 0 {
		return nil, fmt.Errorf("max rewrites must be non-negative, got %d", cfg.MaxRewrites)
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if grader == nil {
		return nil, fmt.Errorf("grader is required")
	}
	if rewriter == nil {
		return nil, fmt.Errorf("rewriter is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	w := &Workflow{
		cfg:       cfg,
		retriever: retriever,
		grader:    grader,
		rewriter:  rewriter,
		generator: generator,
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}

	runnable, err := w.buildGraph()
	if err != nil {
		return nil, err
	}
	w.runnable = runnable

	return w, nil
}

// NewWithModel creates a Workflow whose grader, rewriter and generator all
// share the given chat model, using the model identifiers from cfg.
func NewWithModel(cfg Config, retriever rag.Retriever, model llms.Model, opts ...Option) (*Workflow, error) {
	return New(cfg, retriever,
		NewLLMGrader(model, cfg.GraderModel),
		NewLLMRewriter(model, cfg.RewriterModel),
		NewLLMGenerator(model, cfg.GeneratorModel, cfg.Temperature),
		opts...)
}

// runState is the value threaded through the state machine for one turn.
type runState struct {
	turn    rag.Turn
	history []rag.Turn

	// forceGenerate short-circuits to answer generation when grading failed
	// or a rewrite was a no-op, guaranteeing forward progress.
	forceGenerate bool
}

// buildGraph wires the per-turn state machine:
//
//	retrieve -> grade -> {rewrite -> retrieve | generate} -> END
func (w *Workflow) buildGraph() (*graph.Runnable, error) {
	g := graph.NewStateGraph()

	g.AddNode(nodeRetrieve, "fetch ranked passages for the current query", w.retrieveNode)
	g.AddNode(nodeGrade, "grade passage relevance", w.gradeNode)
	g.AddNode(nodeRewrite, "reformulate the query", w.rewriteNode)
	g.AddNode(nodeGenerate, "generate the final answer", w.generateNode)

	g.SetEntryPoint(nodeRetrieve)
	g.AddEdge(nodeRetrieve, nodeGrade)
	g.AddConditionalEdge(nodeGrade, w.afterGrade)
	g.AddConditionalEdge(nodeRewrite, w.afterRewrite)
	g.AddEdge(nodeGenerate, graph.END)

	return g.Compile()
}

// Run answers one query against the session's document corpus. It returns
// the answer and the session with the finalized turn appended. The input
// session is never mutated.
//
// Run fails with rag.ErrInvalidInput for a blank query, rag.ErrRetrieval
// when the vector store call fails, and rag.ErrGeneration when the answer
// model fails; in the failure cases no turn is appended.
func (w *Workflow) Run(ctx context.Context, query string, session rag.Session) (string, rag.Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", session, rag.ErrInvalidInput
	}

	st := &runState{
		turn: rag.Turn{
			ID:            session.NextTurnID(),
			OriginalQuery: query,
			CurrentQuery:  query,
			Status:        rag.StatusPending,
		},
		history: session.History(),
	}

	w.logger.Debug("session %s turn %d: start %q", session.ID, st.turn.ID, query)

	if _, err := w.runnable.Invoke(ctx, st); err != nil {
		return "", session, err
	}

	w.logger.Debug("session %s turn %d: done status=%s rewrites=%d",
		session.ID, st.turn.ID, st.turn.Status, st.turn.RewriteCount)

	return st.turn.Answer, session.Append(st.turn), nil
}

// Config returns the workflow configuration.
func (w *Workflow) Config() Config {
	return w.cfg
}

func (w *Workflow) retrieveNode(ctx context.Context, state any) (any, error) {
	st := state.(*runState)

	passages, err := w.retriever.Retrieve(ctx, st.turn.CurrentQuery, w.cfg.TopK)
	if err != nil {
		st.turn.Status = rag.StatusExhausted
		if !errors.Is(err, rag.ErrRetrieval) {
			err = fmt.Errorf("%w: %w", rag.ErrRetrieval, err)
		}
		return nil, err
	}

	st.turn.Passages = passages
	st.turn.Grade = rag.GradeUngraded
	w.logger.Debug("turn %d: retrieved %d passages for %q", st.turn.ID, len(passages), st.turn.CurrentQuery)

	return st, nil
}

func (w *Workflow) gradeNode(ctx context.Context, state any) (any, error) {
	st := state.(*runState)

	grade, err := w.grader.Grade(ctx, st.turn.CurrentQuery, st.turn.Passages)
	if err != nil {
		// Grading failure is not fatal: fall through to a best-effort answer.
		w.logger.Warn("turn %d: grading failed, generating best-effort answer: %v", st.turn.ID, err)
		st.turn.Grade = rag.GradeIrrelevant
		st.forceGenerate = true
		return st, nil
	}

	st.turn.Grade = grade
	w.logger.Debug("turn %d: graded %s", st.turn.ID, grade)

	return st, nil
}

func (w *Workflow) afterGrade(ctx context.Context, state any) string {
	st := state.(*runState)

	if st.forceGenerate || st.turn.Grade == rag.GradeRelevant {
		return nodeGenerate
	}
	if st.turn.RewriteCount < w.cfg.MaxRewrites {
		return nodeRewrite
	}
	// Rewrite budget spent: answer with whatever evidence exists.
	return nodeGenerate
}

func (w *Workflow) rewriteNode(ctx context.Context, state any) (any, error) {
	st := state.(*runState)

	rewritten, err := w.rewriter.Rewrite(ctx, st.turn.OriginalQuery, st.turn.CurrentQuery, st.turn.Passages)
	if err != nil {
		w.logger.Warn("turn %d: rewrite failed, generating best-effort answer: %v", st.turn.ID, err)
		st.forceGenerate = true
		return st, nil
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" || rewritten == st.turn.CurrentQuery {
		// A no-op rewrite would loop forever on the same retrieval.
		w.logger.Warn("turn %d: rewrite produced no change, generating best-effort answer", st.turn.ID)
		st.forceGenerate = true
		return st, nil
	}

	w.logger.Debug("turn %d: rewrote %q -> %q", st.turn.ID, st.turn.CurrentQuery, rewritten)
	st.turn.CurrentQuery = rewritten
	st.turn.RewriteCount++

	return st, nil
}

func (w *Workflow) afterRewrite(ctx context.Context, state any) string {
	st := state.(*runState)

	if st.forceGenerate {
		return nodeGenerate
	}
	return nodeRetrieve
}

func (w *Workflow) generateNode(ctx context.Context, state any) (any, error) {
	st := state.(*runState)

	answer, err := w.generator.Generate(ctx, st.turn.CurrentQuery, st.turn.Passages, st.history)
	if err != nil {
		st.turn.Status = rag.StatusExhausted
		if !errors.Is(err, rag.ErrGeneration) {
			err = fmt.Errorf("%w: %w", rag.ErrGeneration, err)
		}
		return nil, err
	}

	st.turn.Answer = answer
	if st.turn.Grade == rag.GradeRelevant {
		st.turn.Status = rag.StatusAnswered
	} else {
		st.turn.Status = rag.StatusExhausted
	}

	return st, nil
}
