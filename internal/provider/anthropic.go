package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicProvider implements Provider using the Anthropic native API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) Name() string    { return "anthropic" }
func (p *AnthropicProvider) Streaming() bool { return true }

func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  p.buildMessages(req.Messages),
		MaxTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	ch := make(chan Event, 16)
	go p.processStream(ctx, stream, ch)
	return ch, nil
}

// processStream reads the Anthropic SSE stream and emits unified events.
//
// Anthropic streaming event sequence:
//   - ContentBlockDeltaEvent (TextDelta) -> emit EventTextDelta
//   - MessageDeltaEvent -> emit EventDone
func (p *AnthropicProvider) processStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], ch chan<- Event) {
	defer close(ch)
	defer stream.Close()

	for stream.Next() {
		select {
		case <-ctx.Done():
			ch <- Event{Type: EventError, Err: ctx.Err()}
			return
		default:
		}

		event := stream.Current()

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if d, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok {
				ch <- Event{Type: EventTextDelta, TextDelta: d.Text}
			}

		case anthropic.MessageDeltaEvent:
			ch <- Event{Type: EventDone}
			return
		}
	}

	if err := stream.Err(); err != nil {
		ch <- Event{Type: EventError, Err: &TransportError{
			Provider: "anthropic",
			Err:      fmt.Errorf("anthropic streaming error: %w", err),
		}}
		return
	}

	ch <- Event{Type: EventDone}
}

// buildMessages converts unified messages to Anthropic API params.
func (p *AnthropicProvider) buildMessages(msgs []Message) []anthropic.MessageParam {
	var params []anthropic.MessageParam
	for _, msg := range msgs {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		block := anthropic.NewTextBlock(text)
		switch msg.Role {
		case RoleUser:
			params = append(params, anthropic.NewUserMessage(block))
		case RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(block))
		}
	}
	return params
}
