package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// mockLLM replays canned responses and records the prompts it received.
type mockLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
	messages  [][]llms.MessageContent
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.messages = append(m.messages, messages)
	m.prompts = append(m.prompts, flattenMessages(messages))
	if m.err != nil {
		return nil, m.err
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	if idx < 0 {
		return nil, errors.New("mockLLM: no responses configured")
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: m.responses[idx]},
		},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func flattenMessages(messages []llms.MessageContent) string {
	var b strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				b.WriteString(text.Text)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
