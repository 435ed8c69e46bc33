package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/docraggo/rag"
)

// LLMRewriter reformulates queries that failed grading by reasoning about
// the semantic intent of the original question.
type LLMRewriter struct {
	model     llms.Model
	modelName string
}

var _ rag.Rewriter = (*LLMRewriter)(nil)

// NewLLMRewriter creates a rewriter backed by the given model.
func NewLLMRewriter(model llms.Model, modelName string) *LLMRewriter {
	return &LLMRewriter{model: model, modelName: modelName}
}

// Rewrite produces an improved query from the original question and the
// latest failed attempt. A blank model response is an ErrRewrite.
func (r *LLMRewriter) Rewrite(ctx context.Context, original, current string, passages []rag.Passage) (string, error) {
	prompt := fmt.Sprintf(rewritePrompt, original, current)
	opts := []llms.CallOption{llms.WithTemperature(0)}
	if r.modelName != "" {
		opts = append(opts, llms.WithModel(r.modelName))
	}

	text, err := generateText(ctx, r.model,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", rag.ErrRewrite, err)
	}

	rewritten := strings.TrimSpace(text)
	if rewritten == "" {
		return "", fmt.Errorf("%w: model returned empty rewrite", rag.ErrRewrite)
	}

	return rewritten, nil
}
