package workflow

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/docraggo/rag"
)

// LLMGenerator produces the final natural-language answer from the query,
// the retrieved passages, and the prior turns of the session.
type LLMGenerator struct {
	model       llms.Model
	modelName   string
	temperature float64
}

var _ rag.Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator backed by the given model.
func NewLLMGenerator(model llms.Model, modelName string, temperature float64) *LLMGenerator {
	return &LLMGenerator{model: model, modelName: modelName, temperature: temperature}
}

// Generate answers the query from the passages, grounding the answer in the
// session history. With zero passages it still asks the model for a
// best-effort "insufficient evidence" answer; only a model failure is an
// error, reported as ErrGeneration.
func (g *LLMGenerator) Generate(ctx context.Context, query string, passages []rag.Passage, history []rag.Turn) (string, error) {
	messages := make([]llms.MessageContent, 0, 2*len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, generateSystemPrompt))

	// Prior exchanges give the model conversational grounding.
	for _, turn := range history {
		if turn.Answer == "" {
			continue
		}
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeHuman, turn.OriginalQuery),
			llms.TextParts(llms.ChatMessageTypeAI, turn.Answer))
	}

	prompt := fmt.Sprintf(generatePrompt, query, formatPassages(passages))
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.modelName != "" {
		opts = append(opts, llms.WithModel(g.modelName))
	}

	text, err := generateText(ctx, g.model, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", rag.ErrGeneration, err)
	}

	return text, nil
}
