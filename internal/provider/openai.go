package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible APIs.
// The SDK handles the event-stream transport; this adapter only maps chunks
// to unified events.
type OpenAIProvider struct {
	client openai.Client
	model  string
	name   string
}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		name:   "openai",
	}
}

func (p *OpenAIProvider) Name() string    { return p.name }
func (p *OpenAIProvider) Streaming() bool { return true }

func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: p.buildMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan Event, 16)
	go p.processStream(ctx, stream, ch)
	return ch, nil
}

// processStream reads the SDK's SSE stream and emits unified events.
func (p *OpenAIProvider) processStream(ctx context.Context, stream *ssestream.Stream[openai.ChatCompletionChunk], ch chan<- Event) {
	defer close(ch)

	for stream.Next() {
		select {
		case <-ctx.Done():
			ch <- Event{Type: EventError, Err: ctx.Err()}
			return
		default:
		}

		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			ch <- Event{Type: EventTextDelta, TextDelta: choice.Delta.Content}
		}
		if string(choice.FinishReason) != "" {
			ch <- Event{Type: EventDone}
			return
		}
	}

	if err := stream.Err(); err != nil {
		ch <- Event{Type: EventError, Err: &TransportError{
			Provider: p.name,
			Err:      fmt.Errorf("openai streaming error: %w", err),
		}}
		return
	}
	ch <- Event{Type: EventDone}
}

// buildMessages converts unified messages to OpenAI API params.
func (p *OpenAIProvider) buildMessages(req *ChatRequest) []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		params = append(params, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case RoleUser:
			params = append(params, openai.UserMessage(text))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(text))
		}
	}
	return params
}
