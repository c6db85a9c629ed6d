package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/blackbird-ai/blackbird/internal/wire"
)

const defaultOllamaEndpoint = "http://127.0.0.1:11434/api/chat"

// OllamaProvider talks to a local ollama server. The response is one JSON
// record per line with the content nested under message; the stream ends
// when the server closes the connection.
type OllamaProvider struct {
	client   *http.Client
	endpoint string
	model    string
}

func NewOllamaProvider(endpoint, model string) *OllamaProvider {
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	return &OllamaProvider{
		client:   &http.Client{}, // no overall timeout; local streams can be slow
		endpoint: endpoint,
		model:    model,
	}
}

func (p *OllamaProvider) Name() string    { return "ollama" }
func (p *OllamaProvider) Streaming() bool { return true }

type ollamaRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

func (p *OllamaProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:    p.model,
		Messages: wireMessages(req),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &TransportError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", bytes.TrimSpace(detail)),
		}
	}

	ch := make(chan Event, 16)
	go decodeBody(p.Name(), resp.Body, wire.FramingLines, ch)
	return ch, nil
}
