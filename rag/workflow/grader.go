package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/docraggo/rag"
)

// LLMGrader grades passage relevance with a binary yes/no model verdict.
// It is stateless: the verdict is a pure function of its inputs plus the
// underlying model call.
type LLMGrader struct {
	model     llms.Model
	modelName string
}

var _ rag.Grader = (*LLMGrader)(nil)

// NewLLMGrader creates a grader backed by the given model. modelName may be
// empty to use the model's default.
func NewLLMGrader(model llms.Model, modelName string) *LLMGrader {
	return &LLMGrader{model: model, modelName: modelName}
}

// Grade classifies whether the passages are sufficient to answer the query.
// An empty passage set is graded GradeIrrelevant without invoking the model.
func (g *LLMGrader) Grade(ctx context.Context, query string, passages []rag.Passage) (rag.Grade, error) {
	if len(passages) == 0 {
		return rag.GradeIrrelevant, nil
	}

	prompt := fmt.Sprintf(gradePrompt, formatPassages(passages), query)
	opts := []llms.CallOption{llms.WithTemperature(0)}
	if g.modelName != "" {
		opts = append(opts, llms.WithModel(g.modelName))
	}

	text, err := generateText(ctx, g.model,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, opts...)
	if err != nil {
		return rag.GradeUngraded, fmt.Errorf("%w: %w", rag.ErrGrading, err)
	}

	return parseVerdict(text)
}

// parseVerdict maps the model's binary score onto a Grade. Anything other
// than a leading yes/no is a malformed response.
func parseVerdict(text string) (rag.Grade, error) {
	verdict := strings.ToLower(strings.TrimSpace(text))
	verdict = strings.Trim(verdict, ".!\"'")

	switch {
	case verdict == "yes" || strings.HasPrefix(verdict, "yes"):
		return rag.GradeRelevant, nil
	case verdict == "no" || strings.HasPrefix(verdict, "no"):
		return rag.GradeIrrelevant, nil
	default:
		return rag.GradeUngraded, fmt.Errorf("%w: %w: unexpected verdict %q", rag.ErrGrading, rag.ErrModel, text)
	}
}
