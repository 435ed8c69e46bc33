package workflow

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/docraggo/rag"
)

// generateText calls the model with role-tagged messages and returns the text
// of the first choice. API failures and empty responses are reported as
// rag.ErrModel.
func generateText(ctx context.Context, model llms.Model, messages []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rag.ErrModel, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", rag.ErrModel)
	}
	return resp.Choices[0].Content, nil
}
